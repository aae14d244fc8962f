package server

import (
	"time"

	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// Run 房间主循环：逐条处理收件箱命令与 AI Tick，直到 Stop
// 只能在一个协程中运行
func (r *Room) Run() {
	defer close(r.done)
	ticker := time.NewTicker(r.cfg.tickInterval())
	defer ticker.Stop()

	r.log.Infow("room loop started", "tick", r.cfg.tickInterval())
	for {
		select {
		case <-r.quit:
			r.shutdown()
			return
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-ticker.C:
			r.step(r.now())
		}
	}
}

// step 推进一帧：到期任务、实体 AI、弹道、状态过期
func (r *Room) step(now time.Time) {
	start := time.Now()
	r.tickSeq++

	r.sched.RunDue(now, r.guard)
	r.guard("entities", func() { r.stepEntities(now) })
	r.guard("projectiles", r.stepProjectiles)
	r.guard("statuses", func() { r.expireStatuses(now) })

	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

func (r *Room) stepProjectiles() {
	for id, p := range r.projectiles {
		if !p.Advance(r.cfg.MapSize) {
			delete(r.projectiles, id)
		}
	}
}

func (r *Room) expireStatuses(now time.Time) {
	for _, p := range r.players {
		changed := p.ExpireStatuses(now)
		if !p.FrozenUntil.IsZero() && !p.Frozen(now) {
			p.FrozenUntil = time.Time{}
			changed = true
		}
		if changed {
			r.broadcast(protocol.MsgPlayerStatus, p.status(now))
		}
	}
}

// shutdown 取消待执行任务并关闭所有连接
func (r *Room) shutdown() {
	r.sched.Stop()
	for id, c := range r.conns {
		c.Close()
		delete(r.conns, id)
	}
	r.log.Infow("room stopped", "ticks", r.tickSeq, "players", len(r.players))
}
