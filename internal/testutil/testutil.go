// Package testutil provides common test helpers for virtadm tests.
package testutil

import (
	"context"

	"virtadm/internal/toolrun"
)

// Call records one invocation passed to a FakeRunner.
type Call struct {
	Name string
	Args []string
}

// FakeRunner is a toolrun.Runner for tests. Every invocation is recorded;
// Handler, when set, produces the result, otherwise an empty success is
// returned.
type FakeRunner struct {
	Handler func(name string, args []string) (toolrun.Result, error)
	Calls   []Call
}

// Run records the call and delegates to Handler.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (toolrun.Result, error) {
	f.Calls = append(f.Calls, Call{Name: name, Args: args})
	if f.Handler == nil {
		return toolrun.Result{}, nil
	}
	return f.Handler(name, args)
}

// CallCount returns how many invocations were recorded.
func (f *FakeRunner) CallCount() int {
	return len(f.Calls)
}

// LastCall returns the most recent invocation, or a zero Call if none.
func (f *FakeRunner) LastCall() Call {
	if len(f.Calls) == 0 {
		return Call{}
	}
	return f.Calls[len(f.Calls)-1]
}
