// Package watch turns a directory into an inbox: ledger exports dropped
// there are converted to XML in an outbox and optionally archived.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/filelock"
	"github.com/konvertorxml/konvertorxml/internal/logging"
	"github.com/konvertorxml/konvertorxml/internal/pipeline"
	"github.com/konvertorxml/konvertorxml/internal/udxml"
	"github.com/konvertorxml/konvertorxml/internal/util"
)

const (
	// DefaultDebounce is used when Config.Debounce is not positive.
	DefaultDebounce = 500 * time.Millisecond

	claimOwner    = "watch"
	archiveSuffix = "20060102-150405"
)

// Config describes the directories and document defaults of an inbox.
type Config struct {
	Inbox   string
	Outbox  string
	Archive string // empty leaves converted exports in place

	// Debounce is how long the inbox must stay quiet before pending files
	// are processed. Many programs write an export in several chunks.
	Debounce time.Duration

	Header      udxml.Header
	KeepEmpty   bool
	Delimiter   rune
	MaxParallel int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithFs replaces the filesystem used for listing and archiving. Events
// still come from the operating system, so fs must be backed by it.
func WithFs(fs afero.Fs) Option {
	return func(w *Watcher) {
		w.fs = fs
	}
}

// WithOutcomeHandler registers fn to receive the outcome of every
// processed export. It is called from worker goroutines.
func WithOutcomeHandler(fn func(pipeline.Outcome)) Option {
	return func(w *Watcher) {
		w.onOutcome = fn
	}
}

// Watcher converts exports appearing in an inbox directory.
type Watcher struct {
	cfg       Config
	fs        afero.Fs
	runner    *pipeline.Runner
	claims    *filelock.Registry
	logger    *logging.Logger
	onOutcome func(pipeline.Outcome)

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup // tracks batches in flight
	now     func() time.Time
}

// New validates cfg, creates the outbox and archive directories and
// subscribes to inbox events.
func New(cfg Config, runner *pipeline.Runner, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		runner: runner,
		logger: logging.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.claims = filelock.NewRegistry(filelock.WithReleaseHandler(func(c filelock.Claim) {
		w.logger.WithFile(c.Path).Debug("export released", "held_ms", w.now().Sub(c.ClaimedAt).Milliseconds())
	}))
	if w.cfg.Debounce <= 0 {
		w.cfg.Debounce = DefaultDebounce
	}
	if w.cfg.MaxParallel < 1 {
		w.cfg.MaxParallel = 1
	}

	if err := w.checkDirs(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := watcher.Add(cfg.Inbox); err != nil {
		_ = watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", cfg.Inbox)
	}
	w.watcher = watcher
	return w, nil
}

func (w *Watcher) checkDirs() error {
	if w.cfg.Inbox == "" || w.cfg.Outbox == "" {
		return errors.NewValidationError("inbox and outbox are required").WithField("watch")
	}
	info, err := w.fs.Stat(w.cfg.Inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewValidationError("inbox does not exist").WithField("watch.inbox").WithValue(w.cfg.Inbox)
		}
		return errors.Wrapf(err, "failed to stat inbox %s", w.cfg.Inbox)
	}
	if !info.IsDir() {
		return errors.NewValidationError("inbox is not a directory").WithField("watch.inbox").WithValue(w.cfg.Inbox)
	}

	for _, dir := range []string{w.cfg.Outbox, w.cfg.Archive} {
		if dir == "" {
			continue
		}
		if err := w.fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	return nil
}

// Run processes exports already in the inbox, then every export that
// appears until ctx is canceled. It waits for batches in flight before
// returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()
	defer func() {
		w.wg.Wait()
		if n := w.claims.ReleaseAll(claimOwner); n > 0 {
			w.logger.Warn("released unfinished exports", "count", n)
		}
	}()

	pending := make(map[string]struct{})
	existing, err := w.scanInbox()
	if err != nil {
		return err
	}
	for _, p := range existing {
		pending[p] = struct{}{}
	}

	debounce := time.NewTimer(w.cfg.Debounce)
	if len(pending) == 0 {
		debounce.Stop()
	}
	defer debounce.Stop()

	w.logger.Info("watching inbox", "inbox", w.cfg.Inbox, "outbox", w.cfg.Outbox, "pending", len(pending))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopped watching inbox", "inbox", w.cfg.Inbox)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !IsExport(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			debounce.Reset(w.cfg.Debounce)

		case <-debounce.C:
			jobs, stamps, busy := w.claimJobs(pending)
			pending = busy
			if len(busy) > 0 {
				debounce.Reset(w.cfg.Debounce)
			}
			if len(jobs) == 0 {
				continue
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.process(ctx, jobs, stamps)
			}()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}

// IsExport reports whether path looks like a ledger export the inbox
// should pick up. Hidden and temporary files are ignored.
func IsExport(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".csv")
}

func (w *Watcher) scanInbox() ([]string, error) {
	entries, err := afero.ReadDir(w.fs, w.cfg.Inbox)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list inbox %s", w.cfg.Inbox)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && IsExport(e.Name()) {
			out = append(out, filepath.Join(w.cfg.Inbox, e.Name()))
		}
	}
	return out, nil
}

// fileStamp identifies one version of an export.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func (s fileStamp) same(o fileStamp) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

func (w *Watcher) stat(path string) (fileStamp, bool) {
	info, err := w.fs.Stat(path)
	if err != nil || info.IsDir() {
		return fileStamp{}, false
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, true
}

// claimJobs turns pending paths into jobs, skipping files that vanished.
// Files an earlier batch is still converting are returned in busy and
// retried on a later tick.
func (w *Watcher) claimJobs(pending map[string]struct{}) (jobs []pipeline.Job, stamps map[string]fileStamp, busy map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	stamps = make(map[string]fileStamp)
	busy = make(map[string]struct{})
	for _, p := range paths {
		st, ok := w.stat(p)
		if !ok {
			continue
		}
		if !w.claims.TryClaim(claimOwner, p) {
			w.logger.WithFile(p).Debug("export still in progress, retrying later")
			busy[p] = struct{}{}
			continue
		}
		stamps[p] = st
		jobs = append(jobs, w.job(p))
	}
	return jobs, stamps, busy
}

func (w *Watcher) job(path string) pipeline.Job {
	return pipeline.Job{
		Input:     path,
		Output:    filepath.Join(w.cfg.Outbox, util.Stem(path)+".xml"),
		Header:    w.cfg.Header,
		KeepEmpty: w.cfg.KeepEmpty,
		Delimiter: w.cfg.Delimiter,
	}
}

// process converts jobs and archives the exports that converted. An
// export rewritten during its conversion stays in the inbox for the next
// round.
func (w *Watcher) process(ctx context.Context, jobs []pipeline.Job, stamps map[string]fileStamp) {
	outcomes := w.runner.RunBatch(ctx, jobs, w.cfg.MaxParallel)
	for _, o := range outcomes {
		log := w.logger.WithFile(o.Input)
		if o.Status.IsSuccess() && w.cfg.Archive != "" {
			if st, ok := w.stat(o.Input); ok && !st.same(stamps[o.Input]) {
				log.Info("export changed during conversion, keeping it for the next round")
			} else if err := w.archive(o.Input); err != nil {
				log.Warn("failed to archive export", "error", err.Error())
			}
		}
		if !o.Status.IsSuccess() {
			log.Error("export not converted", "status", o.Status.String(), "error", o.Error)
		}
		_ = w.claims.Release(claimOwner, o.Input)

		if w.onOutcome != nil {
			w.onOutcome(o)
		}
	}
}

// archive moves a converted export into the archive directory. An
// existing file of the same name gets a timestamp suffix instead of being
// overwritten.
func (w *Watcher) archive(path string) error {
	dst := filepath.Join(w.cfg.Archive, filepath.Base(path))
	if ok, _ := afero.Exists(w.fs, dst); ok {
		ext := filepath.Ext(path)
		dst = filepath.Join(w.cfg.Archive, util.Stem(path)+"-"+w.now().Format(archiveSuffix)+ext)
	}
	return w.fs.Rename(path, dst)
}
