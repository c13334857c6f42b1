// Package internaldefs names the counters and histogram exported by the
// otel adapter, kept separate from metrics so the exporter package can
// depend on names/help text without pulling in the counting logic.
package internaldefs

import "github.com/cruxauth/authsvc/metrics"

type CounterDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: metrics.MetricSignUpSuccess, Name: "authsvc_signup_success_total", Help: "Successful sign-ups."},
	{ID: metrics.MetricSignUpConflict, Name: "authsvc_signup_conflict_total", Help: "Sign-ups rejected as duplicate."},
	{ID: metrics.MetricSignInSuccess, Name: "authsvc_signin_success_total", Help: "Successful sign-ins."},
	{ID: metrics.MetricSignInFailure, Name: "authsvc_signin_failure_total", Help: "Failed sign-ins."},
	{ID: metrics.MetricRefreshSuccess, Name: "authsvc_refresh_success_total", Help: "Successful token refreshes."},
	{ID: metrics.MetricRefreshFailure, Name: "authsvc_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: metrics.MetricValidateSuccess, Name: "authsvc_validate_success_total", Help: "Successful token validations."},
	{ID: metrics.MetricValidateFailure, Name: "authsvc_validate_failure_total", Help: "Failed token validations."},
	{ID: metrics.MetricVerifySuccess, Name: "authsvc_verify_success_total", Help: "Successful email verifications."},
	{ID: metrics.MetricVerifyFailure, Name: "authsvc_verify_failure_total", Help: "Failed email verifications."},
	{ID: metrics.MetricRateLimitHit, Name: "authsvc_rate_limit_hit_total", Help: "Admission Guard rejections."},
}

var HistogramDefs = []HistogramDef{
	{ID: metrics.MetricValidateLatency, Name: "authsvc_validate_latency_seconds", Help: "ValidateToken latency histogram."},
}

var HistogramBoundSuffix = []string{
	"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf",
}

func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
