package pipeline

import (
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/konvertorxml/konvertorxml/internal/errors"
	"github.com/konvertorxml/konvertorxml/internal/util"
)

// Report is the YAML manifest written after a batch.
type Report struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Summary    Summary   `yaml:"summary"`
	Outcomes   []Outcome `yaml:"outcomes"`
}

// NewReport assembles a report for a finished batch.
func NewReport(runID string, started, finished time.Time, outcomes []Outcome) Report {
	return Report{
		RunID:      runID,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Summary:    Summarize(outcomes),
		Outcomes:   outcomes,
	}
}

// WriteReport marshals rep to YAML and writes it atomically to path.
func WriteReport(fs afero.Fs, path string, rep Report) error {
	data, err := yaml.Marshal(&rep)
	if err != nil {
		return errors.Wrap(err, "failed to marshal report")
	}
	if err := util.WriteFileAtomic(fs, path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write report %s", path)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(fs afero.Fs, path string) (Report, error) {
	var rep Report
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return rep, errors.Wrapf(err, "failed to read report %s", path)
	}
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return rep, errors.Wrapf(err, "failed to parse report %s", path)
	}
	return rep, nil
}
