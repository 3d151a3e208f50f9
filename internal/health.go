package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type summaryState interface {
	Busy() bool
}

type clientCounter interface {
	ClientCount() int
}

type readiness struct {
	Status            string `json:"status"`
	SummaryInProgress bool   `json:"summary_in_progress"`
	EventClients      int    `json:"event_clients"`
}

// readyHandler answers /health/ready. It fails with 503 when the index is
// unreachable and otherwise reports summary and event-stream activity.
// events may be nil.
func readyHandler(db pinger, svc summaryState, events clientCounter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(readiness{Status: "unavailable"})
			return
		}
		body := readiness{Status: "ok", SummaryInProgress: svc.Busy()}
		if events != nil {
			body.EventClients = events.ClientCount()
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}
