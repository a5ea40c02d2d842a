package r2login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/leinardi/r2-login/internal/proc"
	"github.com/leinardi/r2-login/internal/secrets"
)

// FieldsSource returns the custom fields of the selected vault item.
// Every name in required must be present and non-empty.
type FieldsSource interface {
	Fetch(ctx context.Context, sel secrets.Selector, required []string) (map[string]string, error)
}

// FetcherCmd obtains fields by running the bw-fields binary.
type FetcherCmd struct {
	logger  *zap.Logger
	runner  proc.Runner
	bin     string
	verbose bool
}

// NewFetcherCmd constructs a FetcherCmd for bin. verbose is forwarded as --verbose.
func NewFetcherCmd(logger *zap.Logger, runner proc.Runner, bin string, verbose bool) *FetcherCmd {
	return &FetcherCmd{logger: logger, runner: runner, bin: bin, verbose: verbose}
}

// Args builds the bw-fields argument list.
func (f *FetcherCmd) Args(sel secrets.Selector, required []string) ([]string, error) {
	var args []string
	if f.verbose {
		args = append(args, "--verbose")
	}

	switch {
	case sel.ID != "":
		args = append(args, "--bw-item-id", sel.ID)
	case sel.Name != "":
		args = append(args, "--bw-item-name", sel.Name)
	default:
		return nil, errors.New("provide --bw-item-id or --bw-item-name / BW_ITEM_NAME")
	}

	for _, name := range required {
		args = append(args, "--require", name)
	}
	return args, nil
}

// Fetch runs bw-fields with the terminal attached so vault prompts stay visible.
func (f *FetcherCmd) Fetch(ctx context.Context, sel secrets.Selector, required []string) (map[string]string, error) {
	args, err := f.Args(sel, required)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(f.bin)
	res, err := f.runner.Run(ctx, proc.Command{Name: f.bin, Args: args, Mode: proc.Passthrough})
	if err != nil {
		var exitErr *proc.ExitError
		if errors.As(err, &exitErr) {
			// stderr was inherited; the child's own message is already on screen.
			return nil, fmt.Errorf("%s failed (rc=%d); see output above", name, exitErr.Code)
		}
		return nil, fmt.Errorf("run %s: %w", name, err)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%s did not return a JSON object", name)
		}
		return nil, fmt.Errorf("%s returned invalid JSON: %w", name, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%s did not return a JSON object", name)
	}

	fields := make(map[string]string, len(out))
	for k, v := range out {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}

	f.logger.Debug("r2login.fields_received",
		zap.Int("count", len(fields)),
		zap.Strings("names", secrets.SortedNames(fields)))
	return fields, nil
}
