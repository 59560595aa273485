package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/cache"
	"brewtab-cafe-service/internal/config"
	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/order"
	"brewtab-cafe-service/internal/queue"
	"brewtab-cafe-service/internal/storage"
)

type Handler struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Config    config.Config
	Queue     *queue.Client
	Store     *storage.ObjectStore
	Cache     *cache.Cache
	Inventory *inventory.Service
	Orders    *order.Service
}
