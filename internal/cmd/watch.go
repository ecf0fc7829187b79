package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/konvertorxml/konvertorxml/internal/pipeline"
	"github.com/konvertorxml/konvertorxml/internal/tui/styles"
	"github.com/konvertorxml/konvertorxml/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert exports dropped into an inbox directory",
	Long: `Watch an inbox directory and convert every CSV export that appears in it.

A file is converted once it has not changed for watch.debounce_ms. The XML is
written to the outbox as <name>.xml and the export is moved to the archive
directory when one is set. Failed exports stay in the inbox. The document
attributes come from the document section of the configuration and the flags;
all six must be set. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	watchInbox   string
	watchOutbox  string
	watchArchive string
	watchHeader  *headerFlags
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "directory to watch (default watch.inbox)")
	watchCmd.Flags().StringVar(&watchOutbox, "outbox", "", "directory for XML output (default watch.outbox, else the inbox)")
	watchCmd.Flags().StringVar(&watchArchive, "archive", "", "directory for processed exports (default watch.archive)")
	watchHeader = addHeaderFlags(watchCmd, false)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() { a.Close(err) }()

	header, err := watchHeader.resolve(a.cfg.Document, "")
	if err != nil {
		return err
	}

	inbox := firstNonEmpty(watchInbox, a.cfg.Watch.Inbox)
	cfg := watch.Config{
		Inbox:       inbox,
		Outbox:      firstNonEmpty(watchOutbox, a.cfg.Watch.Outbox, inbox),
		Archive:     firstNonEmpty(watchArchive, a.cfg.Watch.Archive),
		Debounce:    a.cfg.Watch.Debounce(),
		Header:      header,
		KeepEmpty:   a.cfg.XML.KeepEmpty,
		Delimiter:   a.cfg.CSV.DelimiterRune(),
		MaxParallel: a.cfg.Batch.MaxParallel,
	}

	w := cmd.OutOrStdout()
	var mu sync.Mutex
	watcher, err := watch.New(cfg, a.runner(),
		watch.WithLogger(a.logger),
		watch.WithFs(a.fs),
		watch.WithOutcomeHandler(func(o pipeline.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			printOutcome(w, o)
		}))
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", cfg.Inbox)
	if err := watcher.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, styles.Muted.Render("Stopped."))
	return nil
}
