package notification

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/leighmacdonald/drgwatch/internal/metrics"
)

const (
	headerRemaining  = "X-RateLimit-Remaining"
	headerResetAfter = "X-RateLimit-Reset-After"
)

// Governor applies the advisory quota throttling carried on webhook response
// headers. This is distinct from the mandatory backoff of a rate limited
// response body: exhausted-quota headers arrive on successful responses too,
// and suspending before the quota resets avoids burning the next call.
type Governor struct {
	sleep func(time.Duration)
}

func NewGovernor() *Governor {
	return &Governor{sleep: time.Sleep}
}

// Throttle suspends until the quota resets when the response reports zero
// remaining calls. Responses missing either header carry no quota
// information and never suspend.
func (g *Governor) Throttle(header http.Header) {
	remaining, errRemaining := strconv.Atoi(header.Get(headerRemaining))
	if errRemaining != nil {
		return
	}

	resetAfter, errReset := strconv.ParseFloat(header.Get(headerResetAfter), 64)
	if errReset != nil {
		return
	}

	if remaining > 0 {
		slog.Debug("Webhook quota", slog.Int("remaining", remaining))

		return
	}

	metrics.RateLimitWaits.Inc()
	slog.Info("Webhook quota exhausted", slog.Float64("reset_after", resetAfter))
	g.sleep(time.Duration(resetAfter * float64(time.Second)))
}
