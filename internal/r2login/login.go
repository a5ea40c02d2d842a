// Package r2login mints temporary Cloudflare R2 credentials and stores them as an AWS profile.
package r2login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leinardi/r2-login/internal/awscreds"
	"github.com/leinardi/r2-login/internal/cloudflare"
	"github.com/leinardi/r2-login/internal/metrics"
	"github.com/leinardi/r2-login/internal/secrets"
)

// Vault field names.
const (
	FieldAccountID         = "cf_account_id"
	FieldAPIToken          = "cf_api_token"
	FieldParentAccessKeyID = "r2_parent_access_key_id"
	FieldBucket            = "r2_bucket"
	FieldPrefix            = "r2_prefix"
)

// RequiredFields must be present in the vault item.
var RequiredFields = []string{FieldAccountID, FieldAPIToken, FieldParentAccessKeyID}

// ExpiryLayout is ISO-8601 with second precision and a numeric UTC offset.
const ExpiryLayout = "2006-01-02T15:04:05-07:00"

// Issuer mints temporary credentials.
type Issuer interface {
	CreateTempCredentials(ctx context.Context, accountID, apiToken string, body cloudflare.TempCredentialsRequest) (*cloudflare.TempCredentials, error)
}

// Options controls one login.
type Options struct {
	Profile         string
	TTLSeconds      int
	Item            secrets.Selector
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// Result describes what was written.
type Result struct {
	Profile   string
	Path      string
	Bucket    string
	Prefix    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Replaced  bool
}

// Expires formats ExpiresAt the way it appears in the credentials file.
func (r *Result) Expires() string {
	return r.ExpiresAt.Format(ExpiryLayout)
}

// Service runs the fetch → mint → upsert sequence.
type Service struct {
	logger *zap.Logger
	fields FieldsSource
	issuer Issuer
	now    func() time.Time
}

// NewService wires a login service.
func NewService(logger *zap.Logger, fields FieldsSource, issuer Issuer) *Service {
	return &Service{logger: logger, fields: fields, issuer: issuer, now: time.Now}
}

// Login fetches vault secrets, mints credentials and upserts them into the credentials file.
// Nothing is written unless every earlier step succeeded.
func (s *Service) Login(ctx context.Context, opts Options) (*Result, error) {
	if opts.Profile == "" {
		return nil, errors.New("profile must not be empty")
	}
	if opts.TTLSeconds <= 0 {
		return nil, fmt.Errorf("ttl-seconds must be positive, got %d", opts.TTLSeconds)
	}
	path := opts.CredentialsFile
	if path == "" {
		path = awscreds.DefaultPath()
	}

	fields, err := s.fields.Fetch(ctx, opts.Item, RequiredFields)
	if err != nil {
		return nil, err
	}
	if err := secrets.Require("Bitwarden", fields, RequiredFields); err != nil {
		return nil, err
	}

	bucket := firstNonEmpty(fields[FieldBucket], opts.Bucket)
	prefix := firstNonEmpty(fields[FieldPrefix], opts.Prefix)

	body := cloudflare.TempCredentialsRequest{
		Bucket:            bucket,
		ParentAccessKeyID: fields[FieldParentAccessKeyID],
		Permission:        cloudflare.PermissionObjectReadWrite,
		TTLSeconds:        opts.TTLSeconds,
		Prefixes:          []string{prefix},
	}

	start := s.now()
	creds, err := s.issuer.CreateTempCredentials(ctx, fields[FieldAccountID], fields[FieldAPIToken], body)
	if err != nil {
		return nil, err
	}
	issued := s.now()
	expires := issued.Add(time.Duration(opts.TTLSeconds) * time.Second).Local()

	res := &Result{
		Profile:   opts.Profile,
		Path:      path,
		Bucket:    bucket,
		Prefix:    prefix,
		IssuedAt:  issued,
		ExpiresAt: expires,
	}

	kv := []string{
		fmt.Sprintf("# Generated by r2-login; expires %s", res.Expires()),
		"aws_access_key_id = " + creds.AccessKeyID,
		"aws_secret_access_key = " + creds.SecretAccessKey,
		"aws_session_token = " + creds.SessionToken,
	}

	res.Replaced, err = awscreds.Upsert(s.logger, path, opts.Profile, kv)
	if err != nil {
		return nil, err
	}

	metrics.RecordIssue(opts.Profile, bucket, issued, expires, issued.Sub(start))

	s.logger.Debug("r2login.profile_written",
		zap.String("profile", opts.Profile),
		zap.String("path", path),
		zap.Bool("replaced", res.Replaced),
		zap.String("expires", res.Expires()))
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
