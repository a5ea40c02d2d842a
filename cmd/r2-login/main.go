// r2-login mints short-lived Cloudflare R2 credentials and stores them as a
// profile in the AWS shared credentials file.
//
// Vault secrets are read through bw-fields. Exit codes: 0 success, 1 error, 130 interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leinardi/r2-login/internal/cli"
	"github.com/leinardi/r2-login/internal/cloudflare"
	"github.com/leinardi/r2-login/internal/httpclient"
	"github.com/leinardi/r2-login/internal/metrics"
	"github.com/leinardi/r2-login/internal/proc"
	"github.com/leinardi/r2-login/internal/r2login"
	"github.com/leinardi/r2-login/internal/secrets"
	"github.com/leinardi/r2-login/pkg/config"
	"github.com/leinardi/r2-login/pkg/logger"
)

const fetcherName = "bw-fields"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout)
	interrupted := ctx.Err() != nil
	stop()
	logger.Sync()

	os.Exit(cli.Report(os.Stderr, err, interrupted))
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg := config.LoadLogin()
	if os.Getenv("BW_FIELDS_BIN") == "" {
		cfg.FetcherBin = defaultFetcherBin()
	}

	fs := pflag.NewFlagSet("r2-login", pflag.ContinueOnError)
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "verbose debug logging (never prints secret values)")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "AWS profile name to write")
	fs.IntVar(&cfg.TTLSeconds, "ttl-seconds", cfg.TTLSeconds, "credential lifetime in seconds")
	fs.StringVar(&cfg.ItemID, "bw-item-id", cfg.ItemID, "Bitwarden item ID, preferred (env BW_ITEM_ID)")
	fs.StringVar(&cfg.ItemName, "bw-item-name", cfg.ItemName, "Bitwarden item name, fallback (env BW_ITEM_NAME)")
	fs.StringVar(&cfg.Bucket, "bucket", cfg.Bucket, "R2 bucket when the item has no r2_bucket field")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "object prefix when the item has no r2_prefix field")
	fs.StringVar(&cfg.CredentialsFile, "credentials-file", cfg.CredentialsFile, "AWS credentials file (default ~/.aws/credentials)")
	fs.StringVar(&cfg.FetcherBin, "bw-fields-bin", cfg.FetcherBin, "bw-fields binary (env BW_FIELDS_BIN)")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "Cloudflare API base URL (env CLOUDFLARE_API_BASE_URL)")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus textfile metrics here after a successful login")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: r2-login [flags]\n\nMint temporary R2 credentials into an AWS profile.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger.Init("r2-login", cfg.Verbose)
	log := logger.L()

	log.Debug("r2login.config",
		zap.String("profile", cfg.Profile),
		zap.Int("ttl_seconds", cfg.TTLSeconds),
		zap.String("bucket", cfg.Bucket),
		zap.String("prefix", cfg.Prefix),
		zap.String("bw_fields_bin", cfg.FetcherBin))

	fetcher := r2login.NewFetcherCmd(log, proc.NewExecRunner(log), cfg.FetcherBin, cfg.Verbose)
	issuer := cloudflare.NewClient(log, httpclient.NewHTTPClient(), cfg.APIBaseURL)
	svc := r2login.NewService(log, fetcher, issuer)

	res, err := svc.Login(ctx, r2login.Options{
		Profile:         cfg.Profile,
		TTLSeconds:      cfg.TTLSeconds,
		Item:            secrets.Selector{ID: cfg.ItemID, Name: cfg.ItemName},
		Bucket:          cfg.Bucket,
		Prefix:          cfg.Prefix,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("metrics.write_failed", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}

	fmt.Fprintf(stdout, "Updated AWS profile [%s] in %s (expires %s).\n", res.Profile, res.Path, res.Expires())
	fmt.Fprintf(stdout, "Use: AWS_PROFILE=%s tofu plan\n", res.Profile)
	return nil
}

// defaultFetcherBin prefers a bw-fields installed next to this executable.
func defaultFetcherBin() string {
	exe, err := os.Executable()
	if err != nil {
		return fetcherName
	}
	sibling := filepath.Join(filepath.Dir(exe), fetcherName)
	if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
		return sibling
	}
	return fetcherName
}
