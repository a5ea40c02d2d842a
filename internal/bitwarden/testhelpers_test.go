package bitwarden

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/leinardi/r2-login/internal/proc"
)

type scripted struct {
	stdout string
	stderr string
	code   int
}

// fakeRunner answers bw invocations from a table keyed by the joined argument list.
type fakeRunner struct {
	responses map[string]scripted
	calls     []proc.Command
}

func (f *fakeRunner) Run(_ context.Context, cmd proc.Command) (proc.Result, error) {
	f.calls = append(f.calls, cmd)

	resp, ok := f.responses[strings.Join(cmd.Args, " ")]
	if !ok {
		return proc.Result{}, &proc.ExitError{Command: cmd.String(), Code: 127, Stderr: "unexpected call"}
	}
	res := proc.Result{Stdout: resp.stdout, Stderr: resp.stderr, ExitCode: resp.code}
	if resp.code != 0 {
		return res, &proc.ExitError{Command: cmd.String(), Code: resp.code, Stderr: resp.stderr}
	}
	return res, nil
}

func (f *fakeRunner) called(args string) []proc.Command {
	var out []proc.Command
	for _, c := range f.calls {
		if strings.Join(c.Args, " ") == args {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(responses map[string]scripted) (*Client, *fakeRunner) {
	r := &fakeRunner{responses: responses}
	return NewClient(zap.NewNop(), r, "bw"), r
}
