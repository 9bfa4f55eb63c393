// Package engine executes action sequences against the live desktop: one
// run at a time, on a background goroutine, with cooperative cancellation
// and a poll-friendly state record.
package engine

import "fmt"

// Status is the closed set of per-action result tags.
type Status string

const (
	// StatusSuccess means the action did what it was asked to.
	StatusSuccess Status = "success"
	// StatusNotFound means a template search exhausted the ladder without a
	// match. Terminal for the action, not for the run.
	StatusNotFound Status = "not_found"
	// StatusTimeout means a wait-style action exceeded its deadline.
	StatusTimeout Status = "timeout"
	// StatusAborted means cancellation was observed; remaining actions are
	// skipped.
	StatusAborted Status = "aborted"
	// StatusError means malformed input or an I/O failure. Surfaced
	// immediately, does not abort the run.
	StatusError Status = "error"
	// StatusInfo is a progress-only marker, excluded from success tallies.
	StatusInfo Status = "info"
)

// Outcome is the recorded result of one action (or an Info progress marker).
// Outcomes are appended to the run's log and never mutated.
type Outcome struct {
	Status Status `yaml:"status" json:"status"`
	Detail string `yaml:"message" json:"message"`
}

func success(detail string) Outcome  { return Outcome{Status: StatusSuccess, Detail: detail} }
func notFound(detail string) Outcome { return Outcome{Status: StatusNotFound, Detail: detail} }
func timeout(detail string) Outcome  { return Outcome{Status: StatusTimeout, Detail: detail} }
func aborted(detail string) Outcome  { return Outcome{Status: StatusAborted, Detail: detail} }
func errorf(format string, args ...interface{}) Outcome {
	return Outcome{Status: StatusError, Detail: "error: " + fmt.Sprintf(format, args...)}
}
func info(detail string) Outcome { return Outcome{Status: StatusInfo, Detail: detail} }
