package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	budgethandler "github.com/carson-networks/finance-tracker/internal/handlers/v1/budget"
	"github.com/carson-networks/finance-tracker/internal/handlers/v1/notification"
	sessionhandler "github.com/carson-networks/finance-tracker/internal/handlers/v1/session"
	"github.com/carson-networks/finance-tracker/internal/handlers/v1/status"
	"github.com/carson-networks/finance-tracker/internal/handlers/v1/transaction"
	"github.com/carson-networks/finance-tracker/internal/logging"
	"github.com/carson-networks/finance-tracker/internal/notify"
	"github.com/carson-networks/finance-tracker/internal/service"
	"github.com/carson-networks/finance-tracker/internal/session"
	"github.com/carson-networks/finance-tracker/internal/storage"
	"github.com/carson-networks/finance-tracker/internal/tracker"
)

type Rest struct {
	Logger        *logrus.Logger
	Port          string
	Storage       *storage.Storage
	Service       *service.Service
	Sessions      *session.Manager
	Trackers      *tracker.Registry
	Notifications *notify.MemorySink

	// TrustClientIdentity enables sign-in with unverified, client-reported identities.
	TrustClientIdentity bool
	// RequestsPerSecond caps the request rate across all clients. Zero disables the limit.
	RequestsPerSecond float64
}

// Handler builds the HTTP handler serving /status and the v1 API.
func (r *Rest) Handler() http.Handler {
	mux := http.NewServeMux()

	statusHandler := status.NewHandler(nil)
	if r.Storage != nil {
		statusHandler = status.NewHandler(r.Storage)
	}
	mux.HandleFunc("/status", logging.LoggingWrapper("Status", r.Logger, statusHandler.Handler))

	config := huma.DefaultConfig("Finance Tracker", "1.0.0")
	api := humago.New(mux, config)
	api.UseMiddleware(logging.HumaMiddleware(r.Logger))
	if r.RequestsPerSecond > 0 {
		api.UseMiddleware(rateLimit(api, rate.NewLimiter(rate.Limit(r.RequestsPerSecond), int(r.RequestsPerSecond)+1)))
	}

	sessionhandler.NewHandler(r.Sessions, r.TrustClientIdentity).Register(api)
	transaction.NewCreateTransactionHandler(r.Sessions, r.Service.Transaction).Register(api)
	transaction.NewUpdateTransactionHandler(r.Sessions, r.Service.Transaction).Register(api)
	transaction.NewDeleteTransactionHandler(r.Sessions, r.Service.Transaction).Register(api)
	transaction.NewListTransactionsHandler(r.Sessions, r.Trackers).Register(api)
	budgethandler.NewHandler(r.Sessions, r.Trackers).Register(api)
	notification.NewHandler(r.Sessions, r.Notifications).Register(api)

	return mux
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (r *Rest) Serve(ctx context.Context) error {
	server := http.Server{
		Addr:              ":" + r.Port,
		Handler:           r.Handler(),
		ReadTimeout:       time.Duration(30) * time.Second,
		WriteTimeout:      time.Duration(30) * time.Second,
		IdleTimeout:       time.Duration(10) * time.Second,
		ReadHeaderTimeout: time.Duration(10) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.Logger.WithField("port", r.Port).Info("HttpServer.Serve.listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		r.Logger.WithError(err).Error("HttpServer.Serve.listen error")
		return err
	case <-ctx.Done():
	}

	r.Logger.Info("HttpServer.Serve.shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func rateLimit(api huma.API, limiter *rate.Limiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !limiter.Allow() {
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(ctx)
	}
}
