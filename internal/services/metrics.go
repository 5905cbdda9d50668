package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters. HTTP-level metrics live in the middleware; these track
// business outcomes that a request status code alone cannot distinguish.
var (
	analysesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "selfspeak_analyses_generated_total",
		Help: "Daily analyses generated and persisted.",
	})
	quotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "selfspeak_quota_rejections_total",
		Help: "Analysis requests rejected because the weekly quota was spent.",
	})
	insightsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "selfspeak_weekly_insights_generated_total",
		Help: "Weekly insights generated and persisted.",
	})
)
