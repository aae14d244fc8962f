package server

import (
	"fmt"
	"math"
	"time"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// insertPowerup 添加道具，不广播
func (r *Room) insertPowerup(t game.PowerType, x, y float64) *game.Powerup {
	x, y = game.ClampToMap(x, y, r.cfg.MapSize)
	pu := &game.Powerup{ID: r.newID(), X: x, Y: y, Type: t}
	r.powerups[pu.ID] = pu
	r.metrics.IncPowerupSpawned()
	return pu
}

// placePowerup 添加道具并广播 powerupSpawned
func (r *Room) placePowerup(t game.PowerType, x, y float64) *game.Powerup {
	pu := r.insertPowerup(t, x, y)
	r.broadcast(protocol.MsgPowerupSpawned, powerupRecord(pu))
	return pu
}

func (r *Room) randomPowerup(omegaChance float64) *game.Powerup {
	x, y := game.RandomPoint(r.rng, r.cfg.MapSize, game.SpawnMargin)
	return r.insertPowerup(game.RandomPower(r.rng, omegaChance), x, y)
}

func (r *Room) spawnPowerup(omegaChance float64) *game.Powerup {
	pu := r.randomPowerup(omegaChance)
	r.broadcast(protocol.MsgPowerupSpawned, powerupRecord(pu))
	return pu
}

// spawnPowerups 随机添加 n 个道具，合并为一帧 powerupsSpawned 广播
func (r *Room) spawnPowerups(n int, omegaChance float64, reason string) {
	if n <= 0 {
		return
	}
	recs := make([]protocol.PowerupRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, powerupRecord(r.randomPowerup(omegaChance)))
	}
	r.broadcast(protocol.MsgPowerupsSpawned, protocol.PowerupsSpawned{Reason: reason, Powerups: recs})
}

// topUpPowerups 只补足到下限所缺的道具数
func (r *Room) topUpPowerups(time.Time) {
	missing := r.tuning.PowerupFloor - len(r.powerups)
	if missing <= 0 {
		return
	}
	r.spawnPowerups(missing, r.tuning.OmegaChance, "topUp")
	r.log.Debugw("powerups topped up", "spawned", missing, "live", len(r.powerups))
}

// pickupNearby 让 p 拾取拾取半径内最近的道具（如有）
func (r *Room) pickupNearby(p *Player, now time.Time) {
	var best *game.Powerup
	bestDist := math.Inf(1)
	for _, pu := range r.powerups {
		d := game.Distance(p.X, p.Y, pu.X, pu.Y)
		if d <= r.tuning.PickupRadius && d < bestDist {
			best, bestDist = pu, d
		}
	}
	if best != nil {
		r.takePowerup(best, p, now)
	}
}

// takePowerup 先移除 pu，重复拾取时已找不到
func (r *Room) takePowerup(pu *game.Powerup, p *Player, now time.Time) {
	delete(r.powerups, pu.ID)
	p.Power = pu.Type
	r.metrics.IncPowerupTaken()
	r.broadcast(protocol.MsgPowerupTaken, protocol.PowerupTakenEvent{ID: pu.ID, PlayerID: p.ID, Type: string(pu.Type)})

	r.sched.At(now.Add(r.cfg.PowerupRespawnDelay), "powerupReplace", func(time.Time) {
		if len(r.powerups) < r.tuning.PowerupFloor {
			r.spawnPowerup(r.tuning.OmegaChance)
		}
	})
}

// handlePowerupClaim 处理客户端上报的拾取，未知 id 直接忽略（可能已被他人拾取）
func (r *Room) handlePowerupClaim(connID string, m protocol.PowerupTaken) error {
	p, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("powerupTaken from unjoined connection: %w", ErrInvalidInput)
	}
	pu, ok := r.powerups[m.ID]
	if !ok {
		return nil
	}
	if d := game.Distance(p.X, p.Y, pu.X, pu.Y); d > game.PickupClaimRadius {
		return fmt.Errorf("powerupTaken %s at distance %.0f: %w", pu.ID, d, ErrInvalidInput)
	}
	r.takePowerup(pu, p, r.now())
	return nil
}

func (r *Room) registry(boss bool) map[string]*game.NPC {
	if boss {
		return r.bosses
	}
	return r.npcs
}

func (r *Room) insertNPC(slot game.Slot) *game.NPC {
	x, y := game.RandomPoint(r.rng, r.cfg.MapSize, game.SpawnMargin)
	n := game.NewNPC(r.newID(), slot, x, y)
	r.registry(n.IsBoss())[n.ID] = n
	return n
}

// spawnNPC 为槽位生成新实体并广播
func (r *Room) spawnNPC(slot game.Slot) *game.NPC {
	n := r.insertNPC(slot)
	msg := protocol.MsgNPCSpawned
	if n.IsBoss() {
		msg = protocol.MsgBossSpawned
	}
	r.broadcast(msg, npcRecord(n))
	return n
}

func (r *Room) slotOccupied(slot game.Slot) bool {
	for _, n := range r.registry(slot.Rarity == game.Boss) {
		if n != nil && n.Slot == slot {
			return true
		}
	}
	return false
}

func (r *Room) handleEntityHit(connID, id string, damage float64, boss bool) error {
	p, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("entity hit from unjoined connection: %w", ErrInvalidInput)
	}
	if !game.Finite(damage) || damage <= 0 {
		return fmt.Errorf("entity hit: bad damage: %w", ErrInvalidInput)
	}
	n, ok := r.registry(boss)[id]
	if !ok {
		return fmt.Errorf("entity %s: %w", id, ErrEntityNotFound)
	}

	now := r.now()
	if p.Has(game.StatusBerserker, now) {
		damage *= game.BerserkerDamageMul
	}
	if n.Damage(damage) {
		r.killNPC(n, p.ID, now, true)
		return nil
	}
	r.broadcast(updateMsg(n), entityUpdate(n))
	return nil
}

// killNPC 移除死亡实体，环形掉落战利品，给击杀者计分并安排槽位重生
func (r *Room) killNPC(n *game.NPC, killerID string, now time.Time, loot bool) {
	delete(r.registry(n.IsBoss()), n.ID)

	drops := []protocol.PowerupRecord{}
	if loot {
		types := game.RollLoot(r.rng, n.Slot.Rarity)
		ring := game.RingPoints(n.X, n.Y, n.Stats.Radius*1.5, len(types), r.cfg.MapSize)
		for i, t := range types {
			pu := r.insertPowerup(t, ring[i][0], ring[i][1])
			drops = append(drops, powerupRecord(pu))
		}
	}
	if killer, ok := r.players[killerID]; ok {
		killer.Kills++
	}
	r.metrics.IncNPCKill()

	msg := protocol.MsgNPCDied
	if n.IsBoss() {
		msg = protocol.MsgBossDied
	}
	r.broadcast(msg, protocol.EntityDied{
		ID:       n.ID,
		Rarity:   string(n.Slot.Rarity),
		KillerID: killerID,
		X:        n.X,
		Y:        n.Y,
		Drops:    drops,
	})
	r.log.Debugw("entity killed", "id", n.ID, "label", n.Slot.Label, "killer", killerID, "drops", len(drops))
	r.scheduleRespawn(n.Slot, now)
}

func (r *Room) scheduleRespawn(slot game.Slot, now time.Time) {
	if slot.Wave {
		return
	}
	at := now.Add(game.MustStats(slot.Rarity).RespawnDelay)
	r.sched.At(at, "respawn:"+slot.Label, func(time.Time) {
		if !r.slotOccupied(slot) {
			r.spawnNPC(slot)
		}
	})
}

func updateMsg(n *game.NPC) string {
	if n.IsBoss() {
		return protocol.MsgBossUpdate
	}
	return protocol.MsgNPCUpdate
}
