package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/broadcastkit/core/broadcast"
	"github.com/dmitrymomot/broadcastkit/core/cache"
	"github.com/dmitrymomot/broadcastkit/core/config"
	"github.com/dmitrymomot/broadcastkit/core/email"
	"github.com/dmitrymomot/broadcastkit/core/logger"
	"github.com/dmitrymomot/broadcastkit/core/notify"
	"github.com/dmitrymomot/broadcastkit/core/sweeper"
	"github.com/dmitrymomot/broadcastkit/integration/database/mongo"
	"github.com/dmitrymomot/broadcastkit/integration/database/pg"
	"github.com/dmitrymomot/broadcastkit/integration/database/redis"
	"github.com/dmitrymomot/broadcastkit/integration/email/postmark"
	"github.com/dmitrymomot/broadcastkit/integration/email/smtp"
)

// broadcastd runs the background half of the broadcast lifecycle: the
// notification worker draining the join-request queue and the expiry
// sweeper reconciling stored status with deadlines. The engine itself is a
// library embedded by the serving application; both halves share the same
// storage.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg) // panic on error

	var log = logger.New(logger.WithProduction(cfg.AppName))
	if cfg.Environment == "development" {
		log = logger.New(logger.WithDevelopment(cfg.AppName))
	}

	store, queueStore, err := connectStorage(ctx, cfg)
	if err != nil {
		log.Error("failed to connect storage", logger.Component("storage"), logger.Error(err))
		os.Exit(1)
	}

	listingCache, err := connectCache(ctx, cfg)
	if err != nil {
		log.Error("failed to connect cache", logger.Component("cache"), logger.Error(err))
		os.Exit(1)
	}

	var notifyCfg notify.Config
	config.MustLoad(&notifyCfg)

	queue, err := notify.NewQueueFromConfig(notifyCfg, queueStore)
	if err != nil {
		log.Error("failed to create notification queue", logger.Component("notify"), logger.Error(err))
		os.Exit(1)
	}

	var broadcastCfg broadcast.Config
	config.MustLoad(&broadcastCfg)

	eng, err := broadcast.NewEngineFromConfig(broadcastCfg, store,
		broadcast.WithCache(listingCache),
		broadcast.WithNotifier(queue),
		broadcast.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to create broadcast engine", logger.Component("broadcast"), logger.Error(err))
		os.Exit(1)
	}

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		log.Error("failed to create notification dispatcher", logger.Component("notify"), logger.Error(err))
		os.Exit(1)
	}

	worker, err := notify.NewWorkerFromConfig(notifyCfg, queueStore, store, dispatcher,
		notify.WithWorkerLogger(log))
	if err != nil {
		log.Error("failed to create notification worker", logger.Component("notify"), logger.Error(err))
		os.Exit(1)
	}

	var sweeperCfg sweeper.Config
	config.MustLoad(&sweeperCfg)

	sw, err := sweeper.NewSweeperFromConfig(sweeperCfg, store,
		sweeper.WithLogger(log),
		sweeper.WithCacheInvalidation(listingCache, "broadcasts:active"),
	)
	if err != nil {
		log.Error("failed to create expiry sweeper", logger.Component("sweeper"), logger.Error(err))
		os.Exit(1)
	}

	// Catch up on anything that came due while the daemon was down, then
	// prime the listing cache for the serving side.
	if n, err := sw.SweepNow(ctx); err != nil {
		log.Warn("startup sweep failed", logger.Component("sweeper"), logger.Error(err))
	} else if n > 0 {
		log.Info("startup sweep expired due broadcasts", logger.Component("sweeper"), logger.Count("expired", int(n)))
	}
	if _, err := eng.ListActive(ctx); err != nil {
		log.Warn("failed to prime listing cache", logger.Component("broadcast"), logger.Error(err))
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(worker.Run(ctx))
	eg.Go(sw.Run(ctx))

	log.Info("broadcastd started",
		logger.Key("storage_driver", cfg.StorageDriver),
		logger.Key("email_provider", cfg.EmailProvider))

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("broadcastd stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("broadcastd stopped")
}

// connectStorage builds the broadcast and notification stores on the
// configured driver.
func connectStorage(ctx context.Context, cfg appConfig) (broadcast.Storage, notify.Storage, error) {
	switch cfg.StorageDriver {
	case "mongo":
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return nil, nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, mongoCfg, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}

		store := mongo.NewBroadcastRepository(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		queueStore := mongo.NewNotificationRepository(db)
		if err := queueStore.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return store, queueStore, nil

	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, pgCfg, nil); err != nil && !errors.Is(err, pg.ErrMigrationsDirNotFound) {
			return nil, nil, err
		}
		return pg.NewBroadcastRepository(pool), pg.NewNotificationRepository(pool), nil

	default:
		return nil, nil, errors.New("unknown storage driver: " + cfg.StorageDriver)
	}
}

// connectCache returns the shared Redis listing cache, or an in-process one
// when Redis is disabled.
func connectCache(ctx context.Context, cfg appConfig) (cache.Cache, error) {
	if !cfg.RedisCache {
		return cache.NewMemory(), nil
	}

	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	return redis.NewCache(client), nil
}

// singleRecipient routes every notification to one monitored inbox; user
// identity resolution belongs to the surrounding platform.
type singleRecipient string

func (r singleRecipient) EmailByID(_ context.Context, _ uuid.UUID) (string, error) {
	return string(r), nil
}

// buildDispatcher selects the notification channel.
func buildDispatcher(cfg appConfig) (notify.Dispatcher, error) {
	var sender email.EmailSender
	switch cfg.EmailProvider {
	case "postmark":
		var pmCfg postmark.Config
		if err := config.Load(&pmCfg); err != nil {
			return nil, err
		}
		s, err := postmark.New(pmCfg)
		if err != nil {
			return nil, err
		}
		sender = s
	case "smtp":
		var smtpCfg smtp.Config
		if err := config.Load(&smtpCfg); err != nil {
			return nil, err
		}
		s, err := smtp.New(smtpCfg)
		if err != nil {
			return nil, err
		}
		sender = s
	case "dev":
		sender = email.NewDevSender(cfg.DevEmailDir)
	default:
		return nil, errors.New("unknown email provider: " + cfg.EmailProvider)
	}

	return notify.NewEmailDispatcher(sender, singleRecipient(cfg.NotifyRecipient))
}
