// Package metrics names the gateway's session metrics and emits them to a
// statsd.Sink. Every function accepts a nil sink.
package metrics

import (
	"time"

	obserrors "github.com/ShageeshanT/kalyanijewellers/internal/observability/errors"
	"github.com/ShageeshanT/kalyanijewellers/internal/observability/statsd"
)

const (
	metricLogin           = "session.login"
	metricLoginDuration   = "session.login.duration"
	metricRestore         = "session.restore"
	metricRestoreDuration = "session.restore.duration"
	metricLogout          = "session.logout"
	metricExpired         = "session.expired"
	metricActive          = "sessions.active"
)

// Restore outcomes.
const (
	RestoreNone     = "none"
	RestoreVerified = "verified"
	RestoreCached   = "cached"
	RestoreRejected = "rejected"
	RestoreAborted  = "aborted"
	RestoreError    = "error"
)

// LoginMetric describes one finished login attempt.
type LoginMetric struct {
	Success  bool
	Admin    bool
	Duration time.Duration
	Err      error
}

// EmitLogin records a login attempt and how long it took.
func EmitLogin(sink statsd.Sink, m LoginMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": "failure"}
	if m.Success {
		tags["result"] = "success"
		tags["role"] = "customer"
		if m.Admin {
			tags["role"] = "admin"
		}
	} else if m.Err != nil {
		tags["error_type"] = obserrors.Classify(m.Err)
	}
	sink.Count(metricLogin, 1, tags)
	if m.Duration > 0 {
		sink.Timing(metricLoginDuration, m.Duration, map[string]string{"result": tags["result"]})
	}
}

// EmitRestore records how a startup restore ended.
func EmitRestore(sink statsd.Sink, outcome string, d time.Duration) {
	if sink == nil {
		return
	}
	if outcome == "" {
		outcome = RestoreNone
	}
	tags := map[string]string{"outcome": outcome}
	sink.Count(metricRestore, 1, tags)
	if d > 0 {
		sink.Timing(metricRestoreDuration, d, tags)
	}
}

// EmitLogout records an explicit sign-out.
func EmitLogout(sink statsd.Sink) {
	if sink == nil {
		return
	}
	sink.Count(metricLogout, 1, nil)
}

// EmitExpired records a session ended by a backend 401.
func EmitExpired(sink statsd.Sink) {
	if sink == nil {
		return
	}
	sink.Count(metricExpired, 1, nil)
}

// GaugeActiveSessions reports how many sessions the gateway holds in memory.
func GaugeActiveSessions(sink statsd.Sink, n int) {
	if sink == nil {
		return
	}
	sink.Gauge(metricActive, float64(n), nil)
}
