package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsRecorded counts ledger writes.
	// Labels: type (event type), action (award, revoke)
	eventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openshelf",
		Subsystem: "reputation",
		Name:      "events_recorded_total",
		Help:      "Total reputation events written to the ledger",
	}, []string{"type", "action"})

	// eventsDropped counts events that were not written.
	// Labels: type (event type), reason (unknown_user, no_matching_award)
	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openshelf",
		Subsystem: "reputation",
		Name:      "events_dropped_total",
		Help:      "Total reputation events dropped without a ledger write",
	}, []string{"type", "reason"})

	// achievementsUnlocked counts achievement unlocks by achievement.
	achievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openshelf",
		Subsystem: "reputation",
		Name:      "achievements_unlocked_total",
		Help:      "Total achievements unlocked",
	}, []string{"achievement"})

	// evaluationFailures counts evaluator runs that failed and were swallowed.
	evaluationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "openshelf",
		Subsystem: "reputation",
		Name:      "achievement_evaluation_failures_total",
		Help:      "Total achievement evaluations that failed",
	})

	// rankingDuration measures leaderboard computation time.
	// Labels: recalc (true when the top-rank flag was recalculated)
	rankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "openshelf",
		Subsystem: "reputation",
		Name:      "ranking_duration_seconds",
		Help:      "Leaderboard computation latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"recalc"})

	// migratedUsers counts users processed by the historical migration.
	migratedUsers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "openshelf",
		Subsystem: "reputation",
		Name:      "migrated_users_total",
		Help:      "Total users recomputed by the historical migration",
	})
)
