package pipeline

// Status is the final state of one job in a batch.
type Status string

const (
	// StatusOK indicates the XML document was written.
	StatusOK Status = "ok"

	// StatusFailed indicates the job stopped with an error.
	StatusFailed Status = "failed"

	// StatusCanceled indicates the batch was canceled before the job finished.
	StatusCanceled Status = "canceled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsSuccess returns true if the job produced its output.
func (s Status) IsSuccess() bool {
	return s == StatusOK
}

// Outcome pairs a job with what happened to it.
type Outcome struct {
	Input  string  `yaml:"input"`
	Output string  `yaml:"output"`
	Status Status  `yaml:"status"`
	Error  string  `yaml:"error,omitempty"`
	Result *Result `yaml:"result,omitempty"`

	// Err is the original error, kept for callers that inspect it.
	Err error `yaml:"-"`
}

// Summary counts outcomes by status.
type Summary struct {
	Total    int `yaml:"total"`
	OK       int `yaml:"ok"`
	Failed   int `yaml:"failed"`
	Canceled int `yaml:"canceled"`
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusOK:
			s.OK++
		case StatusFailed:
			s.Failed++
		case StatusCanceled:
			s.Canceled++
		}
	}
	return s
}
