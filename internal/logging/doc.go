// Package logging provides structured JSON logging for konvertorxml runs.
//
// Every command invocation gets a run id, and the pipeline tags entries
// with the file and stage being processed, so a failed conversion can be
// traced after the fact with the logs command.
//
// # Thread Safety
//
// [Logger] and [RotatingWriter] are safe for concurrent use. Child loggers
// created through the With* methods share the parent's writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(logging.Options{
//	    Path:     config.LogFile(),
//	    Level:    "info",
//	    Rotation: logging.DefaultRotationConfig(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithRun(runID).WithFile("mzdy.csv")
//	log.WithStage("clean").Warn("cleaner failed, using header search", "error", err)
//
// # Reading Logs
//
//	entries, err := logging.ReadLogs(afero.NewOsFs(), config.LogFile())
//	errs := logging.FilterLogs(entries, logging.LogFilter{Level: "warn"})
//	_ = logging.WriteEntries(os.Stdout, logging.Tail(errs, 20), "text")
package logging
