package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/filelock"
	"github.com/konvertorxml/konvertorxml/internal/ledger"
	"github.com/konvertorxml/konvertorxml/internal/logging"
	"github.com/konvertorxml/konvertorxml/internal/udxml"
)

const (
	cleanedName   = "cleaned.csv"
	tempDirGlob   = "konvertorxml-"
	stageClean    = "clean"
	stageFallback = "fallback"
	stageConvert  = "convert"
)

// Job describes one conversion.
type Job struct {
	Input     string
	Output    string
	Header    udxml.Header
	KeepEmpty bool
	// Delimiter forces the separator of the cleaned CSV. Zero means sniff.
	Delimiter rune
}

// Result describes a finished conversion.
type Result struct {
	Input        string        `yaml:"input"`
	Output       string        `yaml:"output"`
	Report       ledger.Report `yaml:"clean_report"`
	UsedFallback bool          `yaml:"used_fallback"`
	Items        int           `yaml:"items"`
	Bytes        int           `yaml:"bytes"`
	Duration     time.Duration `yaml:"duration"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithTempDir sets the parent of the per-job temporary directories.
// Empty uses the system default.
func WithTempDir(dir string) Option {
	return func(r *Runner) {
		r.tempDir = dir
	}
}

// WithClaims shares a claim registry between runners so that concurrent
// jobs never write the same output.
func WithClaims(reg *filelock.Registry) Option {
	return func(r *Runner) {
		r.claims = reg
	}
}

// Runner executes jobs against a filesystem. It is safe for concurrent use.
type Runner struct {
	fs      afero.Fs
	logger  *logging.Logger
	claims  *filelock.Registry
	tempDir string
	now     func() time.Time
	seq     atomic.Uint64
}

// NewRunner creates a Runner working on fs.
func NewRunner(fs afero.Fs, opts ...Option) *Runner {
	r := &Runner{
		fs:     fs,
		logger: logging.NopLogger(),
		claims: filelock.NewRegistry(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes job. Every document attribute must be set.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	start := r.now()
	log := r.logger.WithFile(job.Input)

	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}
	if err := job.Header.Validate(); err != nil {
		return nil, err
	}

	owner := fmt.Sprintf("%s#%d", job.Input, r.seq.Add(1))
	if err := r.claims.Claim(owner, job.Output); err != nil {
		return nil, errors.NewConvertError("claim output", err).WithFile(job.Input).WithOutput(job.Output)
	}
	defer func() { _ = r.claims.Release(owner, job.Output) }()

	tmp, err := afero.TempDir(r.fs, r.tempDir, tempDirGlob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer func() { _ = r.fs.RemoveAll(tmp) }()

	res := &Result{Input: job.Input, Output: job.Output}
	cleaned := filepath.Join(tmp, cleanedName)

	rep, cleanErr := ledger.CleanFile(r.fs, job.Input, cleaned)
	if cleanErr == nil && r.nonEmpty(cleaned) {
		res.Report = rep
		log.WithStage(stageClean).Debug("cleaned export",
			"encoding", string(rep.Encoding),
			"rows", rep.Rows,
			"skipped_preamble", rep.SkippedPreamble,
			"removed_summaries", rep.RemovedSummaries)
	} else {
		warn := log.WithStage(stageClean)
		if cleanErr != nil {
			warn.Warn("cleaner failed, searching for header", "error", cleanErr.Error())
		} else {
			warn.Warn("cleaner produced no output, searching for header")
		}

		ok, err := ledger.ExtractFromHeader(r.fs, job.Input, cleaned)
		if err != nil {
			return nil, errors.NewCleanError(stageFallback, err).WithFile(job.Input)
		}
		if !ok {
			return nil, errors.NewCleanError(stageFallback, errors.ErrHeaderNotFound).WithFile(job.Input)
		}
		res.UsedFallback = true
	}

	if err := ctx.Err(); err != nil {
		return nil, canceled(err)
	}

	conv, err := udxml.ConvertFile(r.fs, cleaned, job.Output, job.Header, udxml.Options{
		Delimiter: job.Delimiter,
		KeepEmpty: job.KeepEmpty,
	})
	if err != nil {
		var ce *errors.ConvertError
		if errors.As(err, &ce) {
			// Report the user's file, not the temporary copy.
			ce.File = job.Input
		}
		log.WithStage(stageConvert).Error("conversion failed", "error", err.Error())
		return nil, err
	}

	res.Items = conv.Items()
	res.Bytes = len(conv.XML)
	res.Duration = r.now().Sub(start)

	log.WithStage(stageConvert).Info("wrote XML",
		"output", job.Output,
		"items", res.Items,
		"bytes", res.Bytes,
		"fallback", res.UsedFallback,
		"duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func canceled(err error) error {
	return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
}

func (r *Runner) nonEmpty(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && info.Size() > 0
}
