package server

import (
	"fmt"
	"math"
	"time"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// handlePlayerHit 结算攻击方客户端上报的伤害，攻击者总是发送者本身
func (r *Room) handlePlayerHit(connID string, m protocol.PlayerHit) error {
	attacker, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("playerHit from unjoined connection: %w", ErrInvalidInput)
	}
	if m.Damage == nil || !game.Finite(*m.Damage) || *m.Damage <= 0 {
		return fmt.Errorf("playerHit: bad damage: %w", ErrInvalidInput)
	}
	target, ok := r.players[m.TargetID]
	if !ok {
		return fmt.Errorf("playerHit: target %s: %w", m.TargetID, ErrEntityNotFound)
	}

	now := r.now()
	if target.Has(game.StatusShielded, now) {
		return nil
	}
	damage := *m.Damage
	if attacker.Has(game.StatusBerserker, now) {
		damage *= game.BerserkerDamageMul
	}
	health := target.ApplyDamage(damage)

	r.sendTo(target.ID, protocol.MsgGotHit, protocol.GotHit{AttackerID: attacker.ID, Damage: damage, Health: health})
	r.broadcast(protocol.MsgPlayerHit, protocol.PlayerHitEvent{
		TargetID:   target.ID,
		AttackerID: attacker.ID,
		Damage:     damage,
		Health:     health,
	}, attacker.ID, target.ID)

	if health == 0 {
		r.killPlayer(target, attacker.ID, now)
	}
	return nil
}

// killPlayer 处理死亡：受害者满血重生，存活且非本人的击杀者计分
func (r *Room) killPlayer(victim *Player, killerID string, now time.Time) {
	x, y := game.RandomPoint(r.rng, r.cfg.MapSize, game.SpawnMargin)
	victim.respawn(x, y)
	r.metrics.IncDeath()

	ev := protocol.PlayerDiedEvent{VictimID: victim.ID, KillerID: killerID}
	if killer, ok := r.players[killerID]; ok && killer.ID != victim.ID && killer.Alive() {
		killer.Kills++
		ev.KillerKills = killer.Kills
	}
	rec := victim.record(now)
	ev.Victim = &rec
	r.broadcast(protocol.MsgPlayerDied, ev)
	r.log.Debugw("player died", "victim", victim.ID, "killer", killerID)
}

// handlePlayerDied 仅当服务端记录的血量已为 0 时才接受客户端的死亡上报
func (r *Room) handlePlayerDied(connID string, m protocol.PlayerDied) error {
	p, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("playerDied from unjoined connection: %w", ErrInvalidInput)
	}
	if p.Health > 0 {
		return fmt.Errorf("playerDied with health %.1f: %w", p.Health, ErrInvalidInput)
	}
	r.killPlayer(p, m.KillerID, r.now())
	return nil
}

// dropOnDisconnect 将持有的道具留在玩家所在位置
func (r *Room) dropOnDisconnect(p *Player) {
	drops := []protocol.PowerupRecord{}
	if p.Power != game.PowerNone {
		pu := r.insertPowerup(p.Power, p.X, p.Y)
		drops = append(drops, powerupRecord(pu))
		p.Power = game.PowerNone
	}
	r.broadcast(protocol.MsgPlayerDied, protocol.PlayerDiedEvent{VictimID: p.ID, Drops: drops})
}

func (r *Room) handleUsePower(connID string) error {
	p, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("usePower from unjoined connection: %w", ErrInvalidInput)
	}
	if p.Power == game.PowerNone {
		return fmt.Errorf("usePower: no power held: %w", ErrInvalidInput)
	}

	now := r.now()
	until := now.Add(game.PowerDuration)
	power := p.Power
	p.Power = game.PowerNone

	switch power {
	case game.PowerHeal:
		p.Heal()
	case game.PowerFreeze:
		for _, o := range r.players {
			if o.ID == p.ID || game.Distance(p.X, p.Y, o.X, o.Y) > game.FreezeRadius {
				continue
			}
			o.FrozenUntil = now.Add(game.FreezeDuration)
			r.broadcast(protocol.MsgPlayerStatus, o.status(now))
		}
	case game.PowerOmega:
		p.Heal()
		p.Grant(game.StatusShielded, until)
		p.Grant(game.StatusBerserker, until)
	default:
		if s, ok := game.StatusFor(power); ok {
			p.Grant(s, until)
		}
	}
	r.broadcast(protocol.MsgPlayerStatus, p.status(now))
	r.log.Debugw("power used", "conn", connID, "power", power)
	return nil
}

// handleDropPower 把持有的道具放回地图，位置在拾取范围之外，避免下一次移动又捡回来
func (r *Room) handleDropPower(connID string) error {
	p, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("dropPower from unjoined connection: %w", ErrInvalidInput)
	}
	if p.Power == game.PowerNone {
		return fmt.Errorf("dropPower: no power held: %w", ErrInvalidInput)
	}
	x, y := r.dropSpot(p)
	r.placePowerup(p.Power, x, y)
	p.Power = game.PowerNone
	r.broadcast(protocol.MsgPlayerStatus, p.status(r.now()))
	return nil
}

// dropSpot 在距 p 两倍拾取半径处选点，优先身后
// 若地图边界把该点拉回拾取范围内，依次尝试前方与两侧
func (r *Room) dropSpot(p *Player) (float64, float64) {
	reach := 2 * r.tuning.PickupRadius
	var bestX, bestY, bestD float64
	bestD = -1
	for _, turn := range []float64{math.Pi, 0, math.Pi / 2, -math.Pi / 2} {
		a := p.Angle + turn
		x, y := game.ClampToMap(p.X+math.Cos(a)*reach, p.Y+math.Sin(a)*reach, r.cfg.MapSize)
		d := game.Distance(p.X, p.Y, x, y)
		if d > r.tuning.PickupRadius {
			return x, y
		}
		if d > bestD {
			bestX, bestY, bestD = x, y, d
		}
	}
	return bestX, bestY
}
