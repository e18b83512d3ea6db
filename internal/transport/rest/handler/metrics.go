package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	responsesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatform_responses_recorded_total",
			Help: "Total number of recorded survey responses by mode.",
		},
		[]string{"mode"},
	)

	submissionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatform_submissions_rejected_total",
			Help: "Total number of rejected survey submissions by reason.",
		},
		[]string{"reason"},
	)

	chatStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatform_chat_streams_total",
			Help: "Total number of assistant streams by status.",
		},
		[]string{"status"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatform_owner_logins_total",
			Help: "Total number of owner login attempts by status.",
		},
		[]string{"status"},
	)
)

func modeLabel(conversational bool) string {
	if conversational {
		return "conversational"
	}
	return "classic"
}
