package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskbot_intents_classified_total",
			Help: "Total number of utterances classified, by detected intent",
		},
		[]string{"intent"},
	)

	ChatReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskbot_chat_replies_total",
			Help: "Total number of assistant replies, by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	ReplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskbot_reply_duration_seconds",
			Help:    "Time spent producing an assistant reply",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"intent"},
	)

	RemindersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deskbot_reminders_created_total",
			Help: "Total number of reminders created",
		},
	)

	RemindersNotified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskbot_reminders_notified_total",
			Help: "Total number of due reminders processed by the notifier, by delivery status",
		},
		[]string{"status"},
	)
)

// Reply outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeClarify  = "clarify"
	OutcomeError    = "error"
)
