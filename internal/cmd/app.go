package cmd

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/konvertorxml/konvertorxml/internal/config"
	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/logging"
	"github.com/konvertorxml/konvertorxml/internal/pipeline"
)

// app bundles what one command invocation needs.
type app struct {
	cfg    *config.Config
	fs     afero.Fs
	logger *logging.Logger
	runID  string
}

// isTerminal reports whether stdin is a terminal. Tests replace it.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newApp loads the configuration and opens the run's logger. Callers must
// Close the result.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	a := &app{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		logger: logger.WithRun(runID),
		runID:  runID,
	}
	a.logger.Info("run started", "command", cmd.CommandPath())
	return a, nil
}

func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(logging.Options{
		Path:  config.LogFile(),
		Level: cfg.Level,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		},
	})
}

func (a *app) runner() *pipeline.Runner {
	return pipeline.NewRunner(a.fs, pipeline.WithLogger(a.logger))
}

// Close logs the end of the run and releases the log file.
func (a *app) Close(err error) {
	switch {
	case err == nil:
		a.logger.Info("run finished")
	case errors.GetSeverity(err) <= errors.SeverityWarning:
		a.logger.Warn("run stopped", "error", err.Error(), "severity", errors.GetSeverity(err).String())
	default:
		a.logger.Error("run failed", "error", err.Error())
	}
	_ = a.logger.Close()
}
