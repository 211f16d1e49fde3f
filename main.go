package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/carson-networks/finance-tracker/api"
	"github.com/carson-networks/finance-tracker/internal/budget"
	"github.com/carson-networks/finance-tracker/internal/config"
	"github.com/carson-networks/finance-tracker/internal/feed"
	"github.com/carson-networks/finance-tracker/internal/logging"
	"github.com/carson-networks/finance-tracker/internal/notify"
	"github.com/carson-networks/finance-tracker/internal/operator"
	"github.com/carson-networks/finance-tracker/internal/service"
	"github.com/carson-networks/finance-tracker/internal/session"
	"github.com/carson-networks/finance-tracker/internal/storage"
	"github.com/carson-networks/finance-tracker/internal/tracker"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.WithError(err).Fatal("config.LoadDotEnv")
		return
	}

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}
	if err := envConfig.Validate(); err != nil {
		logrus.WithError(err).Fatal("config.Validate")
		return
	}

	logger := logging.SetupLoggingWithLevel(envConfig.LogLevel)
	logger.Info("finance-tracker starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStorage, err := storage.NewStorage(envConfig)
	if err != nil {
		logger.WithError(err).Fatal("storage.NewStorage")
		return
	}
	defer dbStorage.Close()

	if _, err := storage.RunMigrations(dbStorage.DB, logger); err != nil {
		logger.WithError(err).Fatal("storage.RunMigrations")
		return
	}

	local := feed.NewLocalNotifier()
	var notifier feed.Notifier = local
	var amqpNotifier *feed.AMQPNotifier
	if envConfig.AMQPURL != "" {
		amqpNotifier, err = feed.NewAMQPNotifier(envConfig.AMQPURL, envConfig.AMQPExchange, local, logger)
		if err != nil {
			logger.WithError(err).Fatal("feed.NewAMQPNotifier")
			return
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	delegator := operator.NewOperatorDelegator(dbStorage, notifier, logger, envConfig.OperatorWorkers)
	delegator.Start()
	defer delegator.Stop()

	svc := service.NewService(delegator, dbStorage.Read().Budgets)

	memorySink := notify.NewMemorySink(envConfig.NotificationCapacity)
	var sink notify.Sink = notify.Multi{memorySink, notify.NewLogSink(logger)}
	var suppressing *notify.SuppressingSink
	if envConfig.NotificationWindow > 0 {
		suppressing = notify.NewSuppressingSink(sink, envConfig.NotificationWindow)
		sink = suppressing
	}

	if envConfig.TrustClientIdentity {
		logger.Warn("TRUST_CLIENT_IDENTITY is set: sign-in accepts unverified identities")
	}

	sessions := session.NewManager(envConfig.JWTSecret, envConfig.JWTIssuer, envConfig.SessionTTL)
	defer sessions.Close()

	registry := tracker.NewRegistry(
		feed.New(dbStorage.Read().Transactions, notifier, logger),
		svc.Budget,
		budget.NewEvaluator(envConfig.CurrencySymbol),
		sink,
		logger,
	)
	defer registry.Close()
	registry.Follow(sessions, 10*time.Second)
	if suppressing != nil {
		sessions.OnEnd(func(s session.Session) {
			suppressing.Forget(s.Identity.UserID)
		})
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		httpRest := api.Rest{
			Logger:              logger,
			Port:                envConfig.HTTPPort,
			Storage:             dbStorage,
			Service:             svc,
			Sessions:            sessions,
			Trackers:            registry,
			Notifications:       memorySink,
			TrustClientIdentity: envConfig.TrustClientIdentity,
			RequestsPerSecond:   envConfig.RateLimit,
		}
		return httpRest.Serve(groupCtx)
	})

	if amqpNotifier != nil {
		group.Go(func() error {
			return amqpNotifier.Consume(groupCtx)
		})
	}

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("finance-tracker stopped with error")
		return
	}
	logger.Info("finance-tracker stopped")
}
