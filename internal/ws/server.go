package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/auth"
	"brewtab-cafe-service/internal/config"
	"brewtab-cafe-service/internal/inventory"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config

	stockRealtime *stockRealtime
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, inv *inventory.Service) *Server {
	srv := &Server{DB: db, Logger: logger, Config: cfg}
	srv.stockRealtime = newStockRealtime(db, logger, inv, cfg.WSStockPollInterval)
	return srv
}

type wsRealtimeClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsRealtimeClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

// stockRealtime pushes the low-stock snapshot to every subscribed staff
// dashboard whenever any inventory row changes. A single poll loop
// serves all clients.
type stockRealtime struct {
	db        *pgxpool.Pool
	logger    *zap.Logger
	inventory *inventory.Service
	interval  time.Duration

	started sync.Once
	mu      sync.RWMutex
	subs    map[*wsRealtimeClient]struct{}
}

func newStockRealtime(db *pgxpool.Pool, logger *zap.Logger, inv *inventory.Service, interval time.Duration) *stockRealtime {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &stockRealtime{
		db:        db,
		logger:    logger,
		inventory: inv,
		interval:  interval,
		subs:      make(map[*wsRealtimeClient]struct{}),
	}
}

func (sr *stockRealtime) ensureStarted() {
	sr.started.Do(func() {
		go sr.pollLoop(context.Background())
	})
}

func (sr *stockRealtime) subscribe(client *wsRealtimeClient) (unsubscribe func()) {
	sr.mu.Lock()
	sr.subs[client] = struct{}{}
	sr.mu.Unlock()

	return func() {
		sr.mu.Lock()
		delete(sr.subs, client)
		sr.mu.Unlock()
	}
}

func (sr *stockRealtime) broadcast(message any) {
	sr.mu.RLock()
	clients := make([]*wsRealtimeClient, 0, len(sr.subs))
	for c := range sr.subs {
		clients = append(clients, c)
	}
	sr.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			sr.mu.Lock()
			delete(sr.subs, c)
			sr.mu.Unlock()
		}
	}
}

func (sr *stockRealtime) hasSubscribers() bool {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return len(sr.subs) > 0
}

func (sr *stockRealtime) fetchStockMark(ctx context.Context) (time.Time, int64) {
	var (
		updated time.Time
		count   int64
	)
	err := sr.db.QueryRow(ctx, `
		select coalesce(max(updated_at), 'epoch'::timestamptz), count(*)
		from inventory_items
		where deleted_at is null
	`).Scan(&updated, &count)
	if err != nil {
		return time.Time{}, 0
	}
	return updated, count
}

func (sr *stockRealtime) snapshot(ctx context.Context) (map[string]any, error) {
	items, err := sr.inventory.ListItems(ctx, "", false)
	if err != nil {
		return nil, err
	}
	low := make([]inventory.Item, 0)
	for _, item := range items {
		if item.LowStock {
			low = append(low, item)
		}
	}
	return map[string]any{
		"type":      "stock.state",
		"items":     items,
		"lowStock":  low,
		"updatedAt": time.Now(),
	}, nil
}

func (sr *stockRealtime) pollLoop(ctx context.Context) {
	var (
		lastMark  time.Time
		lastCount int64
	)
	ticker := time.NewTicker(sr.interval)
	defer ticker.Stop()

	for range ticker.C {
		if !sr.hasSubscribers() {
			continue
		}

		mark, count := sr.fetchStockMark(ctx)
		if mark.Equal(lastMark) && count == lastCount {
			continue
		}

		msg, err := sr.snapshot(ctx)
		if err != nil {
			if sr.logger != nil {
				sr.logger.Warn("stock snapshot failed", zap.Error(err))
			}
			continue
		}
		lastMark, lastCount = mark, count
		sr.broadcast(msg)
	}
}

// StaffStockWS authenticates via a query token because browser WebSocket
// clients can not set an Authorization header.
func (s *Server) StaffStockWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	token := r.URL.Query().Get("token")
	if parsed := auth.ParseBearerToken(token); parsed != "" {
		token = parsed
	}
	if _, err := auth.VerifyAccessToken(token, s.Config.JWTSecret); err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}

	s.stockRealtime.ensureStarted()
	ctx := r.Context()
	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.stockRealtime.subscribe(client)
	defer unsubscribe()

	// Initial snapshot so the dashboard renders without waiting a tick.
	if msg, snapErr := s.stockRealtime.snapshot(ctx); snapErr == nil {
		_ = client.writeJSON(msg)
	}

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	select {
	case <-clientClosed:
		return
	case <-ctx.Done():
		return
	}
}
