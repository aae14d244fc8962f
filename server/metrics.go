package server

import (
	"sync/atomic"
)

// Metrics 记录运行期的关键指标（用于监控与调试）
// 所有方法可并发调用
type Metrics struct {
	TickCount          int64 // 统计的 Tick 次数
	TotalTickNs        int64 // Tick 累计耗时（纳秒）
	ConnectionsOpened  int64
	MessagesAccepted   int64
	InvalidInput       int64
	EntityNotFound     int64
	Unauthorized       int64
	DuplicateSessions  int64
	HandlerFaults      int64
	Broadcasts         int64
	SendQueueDropped   int64 // 因客户端发送队列满被丢弃的帧数
	PlayerDeaths       int64
	NPCKills           int64
	PowerupsSpawned    int64
	PowerupsTaken      int64
	StaleSessionsSwept int64
}

func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) IncConnections()          { atomic.AddInt64(&m.ConnectionsOpened, 1) }
func (m *Metrics) IncAccepted()             { atomic.AddInt64(&m.MessagesAccepted, 1) }
func (m *Metrics) IncInvalid()              { atomic.AddInt64(&m.InvalidInput, 1) }
func (m *Metrics) IncNotFound()             { atomic.AddInt64(&m.EntityNotFound, 1) }
func (m *Metrics) IncUnauthorized()         { atomic.AddInt64(&m.Unauthorized, 1) }
func (m *Metrics) IncDuplicateSession()     { atomic.AddInt64(&m.DuplicateSessions, 1) }
func (m *Metrics) IncFault()                { atomic.AddInt64(&m.HandlerFaults, 1) }
func (m *Metrics) IncBroadcast()            { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *Metrics) IncSendDropped()          { atomic.AddInt64(&m.SendQueueDropped, 1) }
func (m *Metrics) IncDeath()                { atomic.AddInt64(&m.PlayerDeaths, 1) }
func (m *Metrics) IncNPCKill()              { atomic.AddInt64(&m.NPCKills, 1) }
func (m *Metrics) IncPowerupSpawned()       { atomic.AddInt64(&m.PowerupsSpawned, 1) }
func (m *Metrics) IncPowerupTaken()         { atomic.AddInt64(&m.PowerupsTaken, 1) }
func (m *Metrics) AddStaleSessions(n int64) { atomic.AddInt64(&m.StaleSessionsSwept, n) }
func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":           tick,
		"avg_tick_ms":          avgMs,
		"connections_opened":   atomic.LoadInt64(&m.ConnectionsOpened),
		"messages_accepted":    atomic.LoadInt64(&m.MessagesAccepted),
		"invalid_input":        atomic.LoadInt64(&m.InvalidInput),
		"entity_not_found":     atomic.LoadInt64(&m.EntityNotFound),
		"unauthorized":         atomic.LoadInt64(&m.Unauthorized),
		"duplicate_sessions":   atomic.LoadInt64(&m.DuplicateSessions),
		"handler_faults":       atomic.LoadInt64(&m.HandlerFaults),
		"broadcasts":           atomic.LoadInt64(&m.Broadcasts),
		"send_queue_dropped":   atomic.LoadInt64(&m.SendQueueDropped),
		"player_deaths":        atomic.LoadInt64(&m.PlayerDeaths),
		"npc_kills":            atomic.LoadInt64(&m.NPCKills),
		"powerups_spawned":     atomic.LoadInt64(&m.PowerupsSpawned),
		"powerups_taken":       atomic.LoadInt64(&m.PowerupsTaken),
		"stale_sessions_swept": atomic.LoadInt64(&m.StaleSessionsSwept),
	}
}
