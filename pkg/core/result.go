package core

import (
	"sync"

	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// FileOutcome records how far one input got through the conversion steps
type FileOutcome struct {
	Input     string
	Output    string
	Staged    bool
	Encoded   bool
	Validated bool
	Valid     bool
	Skipped   bool
	Err       error
}

// Failed reports whether the file ended in the failed state
func (o FileOutcome) Failed() bool {
	return o.Err != nil
}

// RunResult accumulates the outcomes of one directory sweep. Workers record
// into it concurrently; it is read only after every worker has finished.
type RunResult struct {
	Total     int
	Converted int
	Skipped   int
	Invalid   []string
	Failures  []FileOutcome

	mu       sync.Mutex
	outcomes []FileOutcome
	recorded []bool
}

func newRunResult(total int) *RunResult {
	return &RunResult{
		Total:    total,
		outcomes: make([]FileOutcome, total),
		recorded: make([]bool, total),
	}
}

func (r *RunResult) record(index int, outcome FileOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[index] = outcome
	r.recorded[index] = true
}

// Outcomes returns the per-file outcomes in selection order
func (r *RunResult) Outcomes() []FileOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FileOutcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// finalize derives the summary lists in selection order. With validation
// enabled, every output that did not receive a positive verdict is invalid,
// except for files refused because another input already owns the output.
func (r *RunResult) finalize(validate bool, notRun func(FileOutcome) FileOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.outcomes {
		if !r.recorded[i] {
			r.outcomes[i] = notRun(r.outcomes[i])
			r.recorded[i] = true
		}
		o := r.outcomes[i]

		switch {
		case o.Skipped:
			r.Skipped++
			continue
		case o.Encoded:
			r.Converted++
		}
		if o.Failed() {
			r.Failures = append(r.Failures, o)
		}
		if validate && !(o.Validated && o.Valid) && !utils.IsErrorType(o.Err, utils.ErrorTypeConflict) {
			r.Invalid = append(r.Invalid, o.Output)
		}
	}
}
