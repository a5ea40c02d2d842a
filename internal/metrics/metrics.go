package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds only r2-login metrics, so the textfile carries no Go runtime series.
var Registry = prometheus.NewRegistry()

var (
	// Unix time at which the profile's credentials were issued.
	CredentialsIssued = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "r2_login_credentials_issued_timestamp_seconds",
			Help: "Unix time the temporary R2 credentials were issued.",
		},
		[]string{"profile", "bucket"},
	)

	// Unix time after which the profile's credentials stop working.
	CredentialsExpiry = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "r2_login_credentials_expiry_timestamp_seconds",
			Help: "Unix time the temporary R2 credentials expire.",
		},
		[]string{"profile", "bucket"},
	)

	// Duration of the temp-access-credentials API call.
	APIRequestDuration = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "r2_login_api_request_duration_seconds",
			Help: "Duration of the last Cloudflare temp-access-credentials request.",
		},
		[]string{"profile"},
	)
)

// RecordIssue sets the issue/expiry gauges for one minted credential set.
func RecordIssue(profile, bucket string, issued, expires time.Time, apiDuration time.Duration) {
	CredentialsIssued.WithLabelValues(profile, bucket).Set(float64(issued.Unix()))
	CredentialsExpiry.WithLabelValues(profile, bucket).Set(float64(expires.Unix()))
	APIRequestDuration.WithLabelValues(profile).Set(apiDuration.Seconds())
}

// WriteTextfile writes the registry in node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
