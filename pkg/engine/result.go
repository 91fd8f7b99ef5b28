package engine

import (
	"strconv"
	"time"
)

// Reserved binding names written after every evaluation that ran a process.
const (
	// ExitValueBindingName receives the exit code.
	ExitValueBindingName = "EXIT_VALUE"
	// VariablesBindingName names an optional map owned by an orchestration
	// layer; the exit code is mirrored into it under ExitValueBindingName.
	VariablesBindingName = "variables"
)

// Bindings are the named values handed to one evaluation.
type Bindings map[string]any

// Outcome classifies a finished evaluation.
type Outcome uint8

const (
	Success Outcome = iota
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Result describes one evaluation whose process was started.
type Result struct {
	// ID identifies the evaluation in logs.
	ID       string
	Outcome  Outcome
	ExitCode int
	// Stderr is the tail of the child's standard error.
	Stderr          string
	StderrTruncated bool
	Canceled        bool
	Duration        time.Duration
}

// Err returns nil for a successful result and an *ExecutionError otherwise.
func (r Result) Err() error {
	if r.Outcome == Success {
		return nil
	}
	return &ExecutionError{ID: r.ID, ExitCode: r.ExitCode, Stderr: r.Stderr}
}

// publish records code under the reserved names. A variables entry of an
// unrecognized type is left alone.
func publish(bindings Bindings, code int) {
	if bindings == nil {
		return
	}
	bindings[ExitValueBindingName] = code
	switch vars := bindings[VariablesBindingName].(type) {
	case map[string]any:
		if vars != nil {
			vars[ExitValueBindingName] = code
		}
	case map[string]string:
		if vars != nil {
			vars[ExitValueBindingName] = strconv.Itoa(code)
		}
	case map[string]int:
		if vars != nil {
			vars[ExitValueBindingName] = code
		}
	}
}
