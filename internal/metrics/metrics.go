// Package metrics holds the prometheus collectors shared across jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LobbiesPolled = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "drgwatch",
		Name:      "lobbies_polled_total",
		Help:      "Count of lobby snapshots written by the poller",
	})

	ModsResolved = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "drgwatch",
		Name:      "mods_resolved_total",
		Help:      "Count of mods resolved against mod.io",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "drgwatch",
		Name:      "notifications_total",
		Help:      "Webhook operations performed, by action",
	}, []string{"action"})

	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "drgwatch",
		Name:      "ratelimit_waits_total",
		Help:      "Times the webhook quota forced a suspension",
	})
)
