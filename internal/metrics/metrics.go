package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh sources.
const (
	SourceUnauthorized = "unauthorized"
	SourceProactive    = "proactive"
)

// Refresh results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Recorder holds the token lifecycle counters. A nil *Recorder records nothing.
type Recorder struct {
	refreshes *prometheus.CounterVec
	expiries  *prometheus.CounterVec
	requests  *prometheus.CounterVec
}

// New registers the counters with reg. A nil registerer returns a nil Recorder.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, nil
	}
	r := &Recorder{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragadmin_token_refresh_total",
			Help: "Token refresh attempts by trigger and outcome.",
		}, []string{"source", "result"}),
		expiries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragadmin_session_expired_total",
			Help: "Forced session expiries by reason.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragadmin_http_requests_total",
			Help: "Backend requests by method and status code (0 for transport errors).",
		}, []string{"method", "code"}),
	}
	for _, c := range []prometheus.Collector{r.refreshes, r.expiries, r.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) RefreshAttempt(source, result string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(source, result).Inc()
}

func (r *Recorder) SessionExpired(reason string) {
	if r == nil {
		return
	}
	r.expiries.WithLabelValues(reason).Inc()
}

func (r *Recorder) Request(method string, code int) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
