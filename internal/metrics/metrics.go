// Package metrics exposes the coarse Prometheus gauges/counters the Game
// Manager and both game loops report: active games by mode, connected
// sessions, rounds completed, and words drawn. This is observability, not
// game logic — callers push updates the same way they push log lines,
// never blocking on it, and a nil *Registry is always a safe receiver so
// tests can construct loops without wiring metrics at all.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wordloop/hangman/internal/message"
)

// Registry holds every metric this server reports, bound to its own
// prometheus.Registry rather than the global DefaultRegisterer so that
// multiple Registries (as in tests) never collide on duplicate
// registration.
type Registry struct {
	registry *prometheus.Registry

	gamesCreated   *prometheus.CounterVec
	activeGames    *prometheus.GaugeVec
	sessionsActive prometheus.Gauge
	roundsFinished *prometheus.CounterVec
	wordsDrawn     *prometheus.CounterVec
}

// New builds a Registry with all metrics registered and ready to serve.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		gamesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hangman",
			Name:      "games_created_total",
			Help:      "Total number of rooms created, by mode.",
		}, []string{"mode"}),
		activeGames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hangman",
			Name:      "active_games",
			Help:      "Number of rooms whose loop is currently running, by mode.",
		}, []string{"mode"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hangman",
			Name:      "sessions_active",
			Help:      "Number of currently connected player sessions across all rooms.",
		}),
		roundsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hangman",
			Name:      "rounds_finished_total",
			Help:      "Total number of rounds that reached a terminal outcome, by mode.",
		}, []string{"mode"}),
		wordsDrawn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hangman",
			Name:      "words_drawn_total",
			Help:      "Total number of words sampled from the Word Source, by language and difficulty.",
		}, []string{"language", "difficulty"}),
	}

	reg.MustRegister(
		r.gamesCreated,
		r.activeGames,
		r.sessionsActive,
		r.roundsFinished,
		r.wordsDrawn,
	)

	return r
}

// Handler returns the /metrics exposition handler for this Registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GameCreated records a new room of the given mode.
func (r *Registry) GameCreated(mode message.GameMode) {
	if r == nil {
		return
	}
	r.gamesCreated.WithLabelValues(string(mode)).Inc()
	r.activeGames.WithLabelValues(string(mode)).Inc()
}

// GameEnded records a room's loop terminating.
func (r *Registry) GameEnded(mode message.GameMode) {
	if r == nil {
		return
	}
	r.activeGames.WithLabelValues(string(mode)).Dec()
}

// SessionJoined records a player session registering with a loop.
func (r *Registry) SessionJoined() {
	if r == nil {
		return
	}
	r.sessionsActive.Inc()
}

// SessionLeft records a player session leaving a loop.
func (r *Registry) SessionLeft() {
	if r == nil {
		return
	}
	r.sessionsActive.Dec()
}

// RoundFinished records a round reaching a terminal outcome (solved,
// out-of-tries, or a Competitive countdown firing).
func (r *Registry) RoundFinished(mode message.GameMode) {
	if r == nil {
		return
	}
	r.roundsFinished.WithLabelValues(string(mode)).Inc()
}

// WordDrawn records a Word Source sample.
func (r *Registry) WordDrawn(lang message.GameLanguage, difficulty message.Difficulty) {
	if r == nil {
		return
	}
	r.wordsDrawn.WithLabelValues(string(lang), string(difficulty)).Inc()
}
