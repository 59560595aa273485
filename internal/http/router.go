package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"brewtab-cafe-service/internal/cache"
	"brewtab-cafe-service/internal/config"
	"brewtab-cafe-service/internal/http/handlers"
	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/middleware"
	"brewtab-cafe-service/internal/order"
	"brewtab-cafe-service/internal/queue"
	"brewtab-cafe-service/internal/storage"
	"brewtab-cafe-service/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Deps struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Config    config.Config
	Queue     *queue.Client
	Store     *storage.ObjectStore
	Cache     *cache.Cache
	Inventory *inventory.Service
	Orders    *order.Service
	WS        *ws.Server
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Telemetry(deps.Logger))

	cfg := deps.Config
	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Table-Session",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		DB:        deps.DB,
		Logger:    deps.Logger,
		Config:    cfg,
		Queue:     deps.Queue,
		Store:     deps.Store,
		Cache:     deps.Cache,
		Inventory: deps.Inventory,
		Orders:    deps.Orders,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Post("/tables/{tableNumber}/session", h.PublicTableSession)
		r.Get("/menu", h.PublicMenu)
		r.Get("/orders/{orderNumber}", h.PublicOrderDetail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.TableSession(cfg.TableTokenSecret))
			r.Post("/orders", h.PublicOrderCreate)
		})
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(middleware.StaffAuth(deps.DB, cfg.JWTSecret))

		r.Get("/inventory", h.InventoryList)
		r.Post("/inventory", h.InventoryCreate)
		r.Get("/inventory/transactions", h.TransactionList)
		r.Post("/inventory/transactions", h.TransactionCreate)
		r.Get("/inventory/reorders", h.ReorderList)
		r.Get("/inventory/reorders/{id}", h.ReorderDetail)
		r.Put("/inventory/reorders/{id}", h.ReorderTransition)
		r.Get("/inventory/batches", h.BatchList)
		r.Post("/inventory/batches", h.BatchCreate)
		r.Get("/inventory/batches/{id}", h.BatchDetail)
		r.Put("/inventory/batches/{id}", h.BatchUpdateStatus)
		r.Get("/inventory/{id}", h.InventoryDetail)
		r.Put("/inventory/{id}", h.InventoryUpdate)
		r.Delete("/inventory/{id}", h.InventoryDelete)

		r.Get("/suppliers", h.SupplierList)
		r.Post("/suppliers", h.SupplierCreate)
		r.Get("/suppliers/{id}", h.SupplierDetail)
		r.Put("/suppliers/{id}", h.SupplierUpdate)
		r.Delete("/suppliers/{id}", h.SupplierDelete)

		r.Get("/menu", h.MenuList)
		r.Post("/menu", h.MenuCreate)
		r.Get("/menu/{id}", h.MenuDetail)
		r.Put("/menu/{id}", h.MenuUpdate)
		r.Delete("/menu/{id}", h.MenuDelete)
		r.Put("/menu/{id}/ingredients", h.MenuSetIngredients)
		r.Post("/menu/{id}/image", h.MenuUploadImage)

		r.Get("/orders", h.OrderList)
		r.Get("/orders/{id}", h.OrderDetail)
		r.Put("/orders/{id}/status", h.OrderUpdateStatus)

		r.Get("/tables", h.TableList)
		r.Post("/tables", h.TableCreate)
		r.Put("/tables/{id}", h.TableUpdate)
		r.Delete("/tables/{id}", h.TableDelete)
		r.Post("/tables/{id}/reissue", h.TableReissue)
	})

	if deps.WS != nil {
		r.Get("/ws/staff/stock", deps.WS.StaffStockWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("requestId", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
