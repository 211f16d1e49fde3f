package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carson-networks/finance-tracker/internal/logging"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Handler reports liveness. With a database attached it also checks that
// the database answers.
type Handler struct {
	Database pinger
}

func NewHandler(database pinger) Handler {
	return Handler{Database: database}
}

func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	if req.Method != "GET" {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("status: method not GET")
	}

	if h.Database != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		endTimer := logData.AddTiming("pingMs")
		err := h.Database.Ping(ctx)
		endTimer()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return err
		}
	}

	w.WriteHeader(http.StatusOK)
	return nil
}
