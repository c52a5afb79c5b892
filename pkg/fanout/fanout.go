// Package fanout runs a set of independent best-effort tasks, collecting
// every outcome instead of short-circuiting on the first failure.
//
// It is the Go equivalent of Promise.allSettled: one slow or failing email
// recipient must never fail the checkout or refund that triggered it.
package fanout

import "fmt"

// Task is a named unit of best-effort work.
type Task struct {
	Name string
	Run  func() error
}

// Outcome records how a single task finished.
type Outcome struct {
	Name string
	Err  error
}

// All runs every task in order and returns one outcome per task. A panicking
// task is captured as a failed outcome; it never propagates to the caller.
func All(tasks ...Task) []Outcome {
	outcomes := make([]Outcome, 0, len(tasks))
	for _, t := range tasks {
		outcomes = append(outcomes, Outcome{Name: t.Name, Err: run(t)})
	}
	return outcomes
}

// Failed returns the subset of outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

func run(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fanout: task %s panicked: %v", t.Name, r)
		}
	}()
	return t.Run()
}
