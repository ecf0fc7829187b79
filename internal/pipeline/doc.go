// Package pipeline runs the export-to-XML workflow end to end.
//
// # Single files
//
// [Runner.Run] cleans a raw ledger export into a private temporary
// directory, falls back to a plain header search when cleaning fails or
// yields nothing, converts the cleaned table into a uctovne_doklady document
// and writes the XML atomically. Outputs are claimed in a shared
// [filelock.Registry] for the duration of the job so that two concurrent
// jobs never write the same file.
//
// # Batches
//
// [Runner.RunBatch] runs many jobs on a bounded worker pool. A failed job
// never stops the others; every job yields an [Outcome] in input order.
// [WriteReport] persists the outcomes of a batch as a YAML manifest.
//
// # Usage
//
//	r := pipeline.NewRunner(afero.NewOsFs(), pipeline.WithLogger(logger))
//	outcomes := r.RunBatch(ctx, jobs, 4)
//	rep := pipeline.NewReport(runID, started, time.Now(), outcomes)
//	_ = pipeline.WriteReport(fs, "report.yaml", rep)
package pipeline
