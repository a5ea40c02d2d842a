// bw-fields prints the custom fields of a Bitwarden item as a one-line JSON object.
//
// Diagnostics go to stderr; secret values are never logged, even with --verbose.
// Exit codes: 0 success, 1 error, 130 interrupted.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leinardi/r2-login/internal/bitwarden"
	"github.com/leinardi/r2-login/internal/cli"
	"github.com/leinardi/r2-login/internal/proc"
	"github.com/leinardi/r2-login/internal/secrets"
	"github.com/leinardi/r2-login/pkg/config"
	"github.com/leinardi/r2-login/pkg/logger"
	pkgsecrets "github.com/leinardi/r2-login/pkg/secrets"
)

const (
	sourceBitwarden = "bitwarden"
	sourceAWS       = "aws-sm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout)
	interrupted := ctx.Err() != nil
	stop()
	logger.Sync()

	os.Exit(cli.Report(os.Stderr, err, interrupted))
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	// --- Load configuration (env, .env, then flags) ---
	cfg := config.LoadFetcher()

	fs := pflag.NewFlagSet("bw-fields", pflag.ContinueOnError)
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "verbose debug logging (never prints secret values)")
	fs.StringVar(&cfg.ItemID, "bw-item-id", cfg.ItemID, "Bitwarden item ID, preferred (env BW_ITEM_ID)")
	fs.StringVar(&cfg.ItemName, "bw-item-name", cfg.ItemName, "item name to search, fallback (env BW_ITEM_NAME)")
	fs.StringSliceVar(&cfg.Fields, "fields", nil, "subset of field names to output; repeatable (default: all custom fields)")
	fs.StringSliceVar(&cfg.Require, "require", nil, "field names that must exist and be non-empty; repeatable")
	fs.StringVar(&cfg.Source, "source", cfg.Source, "secret backend: bitwarden or aws-sm (env BW_FIELDS_SOURCE)")
	fs.StringVar(&cfg.AWSRegion, "aws-region", cfg.AWSRegion, "region for --source aws-sm (env AWS_REGION)")
	fs.StringVar(&cfg.BWBin, "bw-bin", cfg.BWBin, "Bitwarden CLI binary (env BW_BIN)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bw-fields [flags]\n\nFetch Bitwarden item custom fields as JSON.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger.Init("bw-fields", cfg.Verbose)
	log := logger.L()

	if cfg.ItemID == "" && cfg.ItemName == "" {
		return errors.New("provide --bw-item-id (preferred) or --bw-item-name / BW_ITEM_NAME")
	}

	// --- Secret backend ---
	provider, label, err := newProvider(ctx, log, cfg)
	if err != nil {
		return err
	}

	// --- Resolve item and extract fields ---
	resolver := secrets.NewResolver(log, label, "--bw-item-id", provider)
	fields, err := resolver.Fields(ctx, secrets.Selector{ID: cfg.ItemID, Name: cfg.ItemName})
	if err != nil {
		return err
	}

	if err := secrets.Require(label, fields, cfg.Require); err != nil {
		return err
	}
	fields = secrets.Select(fields, cfg.Fields)

	out, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", out)
	return err
}

// newProvider builds the configured backend. For Bitwarden this unlocks the vault first.
func newProvider(ctx context.Context, log *zap.Logger, cfg *config.FetcherConfig) (pkgsecrets.Provider, string, error) {
	switch cfg.Source {
	case sourceBitwarden, "":
		client := bitwarden.NewClient(log, proc.NewExecRunner(log), cfg.BWBin)
		session, err := client.EnsureSession(ctx, cfg.Session)
		if err != nil {
			return nil, "", err
		}
		return bitwarden.NewProvider(client, session), "Bitwarden", nil
	case sourceAWS:
		p, err := pkgsecrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, "", err
		}
		return p, "AWS Secrets Manager", nil
	default:
		return nil, "", fmt.Errorf("unknown --source %q (expected %s or %s)", cfg.Source, sourceBitwarden, sourceAWS)
	}
}
