package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values shared by the workflow and shortener collectors.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

var (
	// BotUpdates counts updates received per bot and handler kind
	// (command, media, text, ignored).
	BotUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_bot_updates_total",
			Help: "Telegram updates handled, by bot and kind.",
		},
		[]string{"bot", "kind"},
	)

	// WorkflowResults counts completed workflows (publish, convert, resolve)
	// by outcome.
	WorkflowResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_workflow_total",
			Help: "Completed workflows by name and outcome.",
		},
		[]string{"workflow", "outcome"},
	)

	// ShortenRequests counts shortening calls by outcome.
	ShortenRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_shorten_requests_total",
			Help: "Calls to the shortening service by outcome.",
		},
		[]string{"outcome"},
	)

	// ShortenLatency observes shortening round-trip time in seconds.
	ShortenLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linkbox_shorten_duration_seconds",
			Help:    "Shortening service round-trip time in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
	)

	// PollErrors counts failed getUpdates calls per bot.
	PollErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_poll_errors_total",
			Help: "Failed long-poll requests, by bot.",
		},
		[]string{"bot"},
	)

	// HandlerPanics counts panics recovered while handling a single update.
	HandlerPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_handler_panics_total",
			Help: "Panics recovered in update handlers, by bot.",
		},
		[]string{"bot"},
	)

	// TaskRestarts counts supervisor restarts per task.
	TaskRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbox_task_restarts_total",
			Help: "Supervised task restarts, by task.",
		},
		[]string{"task"},
	)

	// TaskUp is 1 while a supervised task is running, 0 otherwise.
	TaskUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linkbox_task_up",
			Help: "1 when the supervised task is running.",
		},
		[]string{"task"},
	)
)

func init() {
	prometheus.MustRegister(
		BotUpdates,
		WorkflowResults,
		ShortenRequests,
		ShortenLatency,
		PollErrors,
		HandlerPanics,
		TaskRestarts,
		TaskUp,
	)
}
