package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brewtab-cafe-service/internal/cache"
	"brewtab-cafe-service/internal/config"
	"brewtab-cafe-service/internal/db"
	httpapi "brewtab-cafe-service/internal/http"
	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/logger"
	"brewtab-cafe-service/internal/order"
	"brewtab-cafe-service/internal/queue"
	"brewtab-cafe-service/internal/storage"
	"brewtab-cafe-service/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		log.Info("rabbitmq enabled", zap.String("eventsQueue", queue.ReordersQueue))
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without worker", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := qc.EnsureExchange(queue.EventsExchange); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq exchange failed", zap.Error(err))
				}
				log.Warn("rabbitmq exchange failed; continuing without worker", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		if qc != nil {
			if _, err := qc.EnsureQueue(queue.ReordersQueue); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq queue failed", zap.Error(err))
				}
				log.Warn("rabbitmq queue failed; continuing without worker", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		if qc != nil {
			// Topic wildcard '#' matches multi-segment keys like
			// 'inventory.reorder.created'.
			if err := qc.BindQueue(queue.ReordersQueue, queue.EventsExchange, queue.ReordersRK); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq bind failed", zap.Error(err))
				}
				log.Warn("rabbitmq bind failed; continuing without worker", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		if qc != nil {
			if err := queue.EnsureReorderJobsTopology(ctx, qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq reorder_jobs topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq reorder_jobs topology failed; continuing without worker", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}

		if queueClient != nil {
			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("reorder event translator enabled", zap.String("mode", "daemon"))
				go func() {
					err := queueClient.ConsumeWithRetry(queue.ReordersQueue, func(ctx context.Context, body []byte) error {
						return queue.ProcessReorderEvent(ctx, pool, queueClient, body)
					}, 5, 5*time.Second)
					if err != nil {
						log.Error("consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("reorder event translator disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("reorder worker disabled (RABBITMQ_URL is empty)")
	}

	var menuCache *cache.Cache
	if cfg.RedisURL != "" {
		menuCache, err = cache.New(cfg.RedisURL, cfg.MenuCacheTTL)
		if err != nil {
			log.Warn("redis connection failed; continuing without menu cache", zap.Error(err))
			menuCache = nil
		} else {
			log.Info("menu cache enabled", zap.Duration("ttl", cfg.MenuCacheTTL))
			defer menuCache.Close()
		}
	}

	var store *storage.ObjectStore
	if cfg.ObjectStoreEndpoint != "" {
		store, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("object store setup failed", zap.Error(err))
			}
			log.Warn("object store setup failed; uploads disabled", zap.Error(err))
			store = nil
		}
	} else {
		log.Info("object store disabled (OBJECT_STORE_ENDPOINT is empty)")
	}

	var events inventory.EventPublisher
	if queueClient != nil {
		events = queueClient
	}
	inventoryService := inventory.NewService(pool, log, events)
	orderService := order.NewService(pool, log, inventoryService)

	wsServer := ws.New(pool, log, cfg, inventoryService)
	apiServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			DB:        pool,
			Logger:    log,
			Config:    cfg,
			Queue:     queueClient,
			Store:     store,
			Cache:     menuCache,
			Inventory: inventoryService,
			Orders:    orderService,
			WS:        wsServer,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("cafe api ready", zap.String("base", "/api"))
		log.Info("cafe ws ready", zap.String("base", "/ws"))
		log.Info("cafe service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
