package config

import (
	"github.com/joho/godotenv"
)

const (
	DefaultProfile    = "r2-gh-leinardi-iac"
	DefaultItemName   = "cloudflare-r2-gh-leinardi-iac"
	DefaultTTLSeconds = 8 * 60 * 60
	DefaultBucket     = "gh-leinardi-iac"
	DefaultPrefix     = "github-repos/"
	DefaultAPIBaseURL = "https://api.cloudflare.com"
)

// FetcherConfig holds the runtime configuration for bw-fields.
type FetcherConfig struct {
	Verbose  bool
	ItemID   string
	ItemName string
	// Session is an externally supplied vault session (BW_SESSION), possibly empty.
	Session   string
	Source    string
	AWSRegion string
	BWBin     string
	Fields    []string
	Require   []string
}

// LoginConfig holds the runtime configuration for r2-login.
type LoginConfig struct {
	Verbose    bool
	Profile    string
	TTLSeconds int
	ItemID     string
	ItemName   string
	Bucket     string
	Prefix     string
	APIBaseURL string

	// CredentialsFile defaults to the shared AWS credentials file when empty.
	CredentialsFile string
	FetcherBin      string
	MetricsFile     string
}

// LoadFetcher loads bw-fields defaults from environment variables and an optional .env file.
// Command-line flags are applied on top by the caller.
func LoadFetcher() *FetcherConfig {
	_ = godotenv.Load()

	return &FetcherConfig{
		Verbose:   GetEnvBool("BW_FIELDS_VERBOSE", false),
		ItemID:    GetEnv("BW_ITEM_ID", ""),
		ItemName:  GetEnv("BW_ITEM_NAME", ""),
		Session:   GetEnv("BW_SESSION", ""),
		Source:    GetEnv("BW_FIELDS_SOURCE", "bitwarden"),
		AWSRegion: GetEnv("AWS_REGION", "us-east-1"),
		BWBin:     GetEnv("BW_BIN", "bw"),
	}
}

// LoadLogin loads r2-login defaults from environment variables and an optional .env file.
// Command-line flags are applied on top by the caller.
func LoadLogin() *LoginConfig {
	_ = godotenv.Load()

	return &LoginConfig{
		Verbose:    GetEnvBool("R2_LOGIN_VERBOSE", false),
		Profile:    DefaultProfile,
		TTLSeconds: DefaultTTLSeconds,
		ItemID:     GetEnv("BW_ITEM_ID", ""),
		ItemName:   GetEnv("BW_ITEM_NAME", DefaultItemName),
		Bucket:     DefaultBucket,
		Prefix:     DefaultPrefix,
		APIBaseURL: GetEnv("CLOUDFLARE_API_BASE_URL", DefaultAPIBaseURL),
		FetcherBin: GetEnv("BW_FIELDS_BIN", "bw-fields"),
	}
}
