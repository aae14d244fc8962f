package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

// Manager 管理房间的生命周期并对外提供 HTTP 接口
type Manager struct {
	mu      deadlock.Mutex
	room    *Room
	cfg     Config
	log     *zap.SugaredLogger
	metrics *Metrics
	running bool
}

func NewManager(room *Room, cfg Config, metrics *Metrics, log *zap.SugaredLogger) *Manager {
	return &Manager{room: room, cfg: cfg, metrics: metrics, log: log}
}

func (m *Manager) Room() *Room { return m.room }

// Start 启动房间循环（只启动一次）
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	go m.room.Run()
}

// Stop 停止房间，等待循环退出或 ctx 结束
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	running := m.running
	m.running = false
	m.mu.Unlock()
	if !running {
		return nil
	}
	m.room.Stop()
	select {
	case <-m.room.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Routes 构建 HTTP 路由
func (m *Manager) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(m.log))

	health := HandleHealth(m.room)
	r.Get("/", health)
	r.Get("/healthz", health)
	r.Get("/metrics", HandleMetrics(m.metrics))
	r.HandleFunc("/admin/config", HandleAdminConfig(m.room, m.cfg.AdminSecret, m.log))
	r.Get("/ws", NewWSHandler(m.room, m.log))
	return r
}
