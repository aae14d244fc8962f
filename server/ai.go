package server

import (
	"math"
	"time"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// stepEntities 为每个 NPC 与 Boss 执行一次 AI 更新
// 单个实体 panic 被隔离，其余实体照常移动
func (r *Room) stepEntities(now time.Time) {
	factor := r.cfg.stepFactor()
	for id, n := range r.npcs {
		r.stepEntity(id, n, now, factor)
	}
	for id, n := range r.bosses {
		r.stepEntity(id, n, now, factor)
	}
}

func (r *Room) stepEntity(id string, n *game.NPC, now time.Time, factor float64) {
	err := r.safely("ai:"+id, func() error {
		r.think(n, now, factor)
		return nil
	})
	if err != nil {
		r.account("", "ai", err)
	}
}

func (r *Room) think(n *game.NPC, now time.Time, factor float64) {
	if n.Phase != game.Alive {
		return
	}
	target, dist := r.nearestTarget(n.X, n.Y, now)
	if target == nil {
		return
	}
	n.Steer(target.X, target.Y, dist, n.Stats.Speed*factor, r.cfg.MapSize)
	if n.AttackReady() {
		r.contactDamage(n, now)
	}
	r.broadcast(updateMsg(n), entityUpdate(n))
}

// nearestTarget 返回最近的存活且可见的玩家
func (r *Room) nearestTarget(x, y float64, now time.Time) (*Player, float64) {
	var best *Player
	bestDist := math.Inf(1)
	for _, p := range r.players {
		if !p.Alive() || p.Has(game.StatusInvisible, now) {
			continue
		}
		if d := game.Distance(x, y, p.X, p.Y); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist
}

// contactDamage 对 n 范围内未受保护的玩家造成接触伤害
func (r *Room) contactDamage(n *game.NPC, now time.Time) {
	dmg := math.Max(0, n.Stats.Damage)
	for _, p := range r.players {
		if !p.Alive() || p.Has(game.StatusPhase, now) || p.Has(game.StatusShielded, now) {
			continue
		}
		if game.Distance(n.X, n.Y, p.X, p.Y) > n.Stats.Range {
			continue
		}
		health := p.ApplyDamage(dmg)
		r.sendTo(p.ID, protocol.MsgContactDamage, protocol.ContactDamage{SourceID: n.ID, Damage: dmg, Health: health})
		if health == 0 {
			r.killPlayer(p, n.ID, now)
		}
	}
}
