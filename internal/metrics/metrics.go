package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsTotal counts accepted WebSocket connections by kind.
	ConnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copperhead_connections_total",
		Help: "Accepted WebSocket connections by kind (player, observer)",
	}, []string{"kind"})

	// GamesStartedTotal counts games started by mode.
	GamesStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copperhead_games_started_total",
		Help: "Games started by mode",
	}, []string{"mode"})

	// GamesCompletedTotal counts finished games by outcome.
	GamesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copperhead_games_completed_total",
		Help: "Finished games by outcome (win, draw)",
	}, []string{"outcome"})

	// ActiveRooms tracks rooms that currently hold at least one player.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "copperhead_active_rooms",
		Help: "Rooms currently holding at least one player",
	})

	// GameDuration observes how long finished games ran.
	GameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "copperhead_game_duration_seconds",
		Help:    "Duration of finished games",
		Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 120, 300},
	})

	// BotsSpawnedTotal counts bot processes launched by the server.
	BotsSpawnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copperhead_bots_spawned_total",
		Help: "CopperBot processes launched by the server",
	})
)

// ObserveGameCompleted records a finished game.
func ObserveGameCompleted(outcome string, d time.Duration) {
	GamesCompletedTotal.WithLabelValues(outcome).Inc()
	GameDuration.Observe(d.Seconds())
}
