package check

import (
	"fmt"
	"io"
	"os"
)

// Runner prints check outcomes in the fixed "description: result" protocol.
// The output writer is configurable for tests; production runs use stdout.
type Runner struct {
	Out io.Writer
}

func NewRunner() *Runner {
	return &Runner{Out: os.Stdout}
}

// RunOne performs a single check and prints its result: "Good" on pass,
// "Bad: <condition>: <message>" on an assertion failure. The returned error
// is non-nil only for infrastructure problems, which the caller must treat
// as fatal.
func (r *Runner) RunOne(desc string, fn func() (*Failure, error)) (bool, error) {
	fmt.Fprintf(r.Out, "%s: ", desc)
	f, err := fn()
	if err != nil {
		fmt.Fprintln(r.Out, "error")
		return false, fmt.Errorf("%s: %w", desc, err)
	}
	if f != nil {
		fmt.Fprintf(r.Out, "Bad: %s: %s\n", f.Cond, f.Msg)
		return false, nil
	}
	fmt.Fprintln(r.Out, "Good")
	return true, nil
}

// RunHTTP executes the checks in order against the session. A failing check
// never prevents subsequent checks from running; an infrastructure error
// aborts immediately.
func (r *Runner) RunHTTP(checks []Descriptor, s *Session) (failed int, err error) {
	for _, c := range checks {
		ok, err := r.RunOne(c.Desc, func() (*Failure, error) { return c.Run(s) })
		if err != nil {
			return failed, err
		}
		if !ok {
			failed++
		}
	}
	return failed, nil
}
