package cloudflare

import "encoding/json"

// PermissionObjectReadWrite grants read and write on objects under the scoped prefixes.
const PermissionObjectReadWrite = "object-read-write"

// TempCredentialsRequest is the body of POST .../r2/temp-access-credentials.
type TempCredentialsRequest struct {
	Bucket            string   `json:"bucket"`
	ParentAccessKeyID string   `json:"parentAccessKeyId"`
	Permission        string   `json:"permission"`
	TTLSeconds        int      `json:"ttlSeconds"`
	Prefixes          []string `json:"prefixes"`
}

// Envelope is the v4 API response wrapper.
type Envelope struct {
	Success  bool            `json:"success"`
	Errors   json.RawMessage `json:"errors"`
	Messages json.RawMessage `json:"messages"`
	Result   json.RawMessage `json:"result"`
}

// TempCredentials is a temporary S3-compatible credential set.
type TempCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}
