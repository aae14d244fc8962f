package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleHealth 处理 GET / 与 GET /healthz，返回房间概要
func HandleHealth(room *Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := room.Stats(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "stopped", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"players":       s.Players,
			"connections":   s.Connections,
			"powerups":      s.Powerups,
			"npcs":          s.NPCs,
			"bosses":        s.Bosses,
			"projectiles":   s.Projectiles,
			"tick":          s.Tick,
			"uptimeSeconds": int64(time.Since(s.Started).Seconds()),
		})
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func HandleMetrics(m *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, m.Snapshot())
	}
}

// HandleAdminConfig 读取或部分更新运行中的可调参数（热更新）
// 请求需携带与配置一致的 X-Admin-Token；未配置密钥时该接口不存在
//
//	GET  /admin/config
//	POST /admin/config {"powerupFloor": 80}
func HandleAdminConfig(room *Room, secret string, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret == "" {
			http.NotFound(w, r)
			return
		}
		token := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			log.Warnw("admin config: bad token", "remote", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		var update *TuningUpdate
		switch r.Method {
		case http.MethodGet:
		case http.MethodPost:
			update = &TuningUpdate{}
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(update); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
				return
			}
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		t, err := room.Tuning(r.Context(), update)
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		case err != nil:
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// RequestLogger 每个 HTTP 请求通过 zap 记一行日志
func RequestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Infow("http",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"dur", time.Since(start),
					"reqID", middleware.GetReqID(r.Context()),
					"remote", r.RemoteAddr)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
