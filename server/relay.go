package server

import (
	"fmt"
	"strings"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// handleJoin 为连接创建 Player
// 已绑定同一身份的旧连接会被踢出，以最新加入为准
func (r *Room) handleJoin(connID string, m protocol.Join) error {
	if _, ok := r.conns[connID]; !ok {
		return fmt.Errorf("join from closed connection %s: %w", connID, ErrEntityNotFound)
	}
	if _, ok := r.players[connID]; ok {
		return fmt.Errorf("connection %s already joined: %w", connID, ErrInvalidInput)
	}

	name := sanitizeName(m.Name, r.cfg.NameMaxLen)
	identity := m.StableIdentity()

	var evict string
	if identity != "" {
		if prev, ok := r.sessions.Lookup(identity); ok && prev != connID {
			if _, live := r.conns[prev]; live {
				evict = prev
			} else {
				r.sessions.Release(prev)
			}
		}
	}

	if other := r.playerNamed(name, evict); other != nil {
		r.sendTo(connID, protocol.MsgJoinError, protocol.JoinError{
			Reason:  protocol.ReasonNameTaken,
			Message: fmt.Sprintf("name %q is already in use", name),
		})
		return fmt.Errorf("name %q taken by %s: %w", name, other.ID, ErrInvalidInput)
	}

	if evict != "" {
		r.evict(evict, identity)
	}

	x, y := game.RandomPoint(r.rng, r.cfg.MapSize, game.SpawnMargin)
	p := newPlayer(connID, identity, name, x, y)
	p.Email = strings.TrimSpace(m.Email)
	p.Admin = r.isAdmin(p.Email, m.AdminToken)
	r.players[connID] = p
	if identity != "" {
		r.sessions.Bind(identity, connID)
	}

	now := r.now()
	r.broadcast(protocol.MsgPlayerJoined, p.record(now), connID)
	r.sendTo(connID, protocol.MsgInit, protocol.Init{
		Version:     protocol.Version,
		Self:        p.record(now),
		MapSize:     r.cfg.MapSize,
		Players:     r.playerRecords(now),
		Powerups:    r.powerupRecords(),
		NPCs:        npcRecords(r.npcs),
		Bosses:      npcRecords(r.bosses),
		Projectiles: r.projectileRecords(),
	})
	r.log.Infow("player joined", "conn", connID, "name", name, "identity", identity, "admin", p.Admin, "players", len(r.players))
	return nil
}

// evict 关闭当前持有该身份的连接
func (r *Room) evict(connID, identity string) {
	r.sendTo(connID, protocol.MsgForcedDisconnect, protocol.ForcedDisconnect{Reason: protocol.ReasonDuplicateSession})
	r.metrics.IncDuplicateSession()
	r.log.Infow("duplicate session, evicting older connection", "identity", identity, "conn", connID, "err", ErrDuplicateSession)
	_ = r.dropConnection(connID, false)
}

// dropConnection 移除连接及其 Player
// dropHeld 为 true 时，存活玩家会留下持有的道具
func (r *Room) dropConnection(connID string, dropHeld bool) error {
	c, ok := r.conns[connID]
	if !ok {
		return nil
	}
	delete(r.conns, connID)

	if p, ok := r.players[connID]; ok {
		if dropHeld && p.Alive() {
			r.dropOnDisconnect(p)
		}
		delete(r.players, connID)
		for id, pr := range r.projectiles {
			if pr.OwnerID == connID {
				delete(r.projectiles, id)
			}
		}
		r.broadcast(protocol.MsgPlayerLeft, protocol.PlayerLeft{ID: connID})
		r.log.Infow("player left", "conn", connID, "name", p.Name, "players", len(r.players))
	}
	r.sessions.Release(connID)
	c.Close()
	return nil
}

func (r *Room) handleMove(connID string, m protocol.Move) error {
	p, ok := r.players[connID]
	if !ok {
		return nil
	}
	now := r.now()
	if p.Frozen(now) {
		return nil
	}
	if m.X == nil || m.Y == nil || !game.Finite(*m.X, *m.Y, m.Angle) {
		return fmt.Errorf("move: non-finite position: %w", ErrInvalidInput)
	}
	p.X, p.Y = game.ClampToMap(*m.X, *m.Y, r.cfg.MapSize)
	p.Angle = game.NormalizeAngle(m.Angle)
	r.broadcast(protocol.MsgPlayerMoved, protocol.PlayerMoved{ID: p.ID, X: p.X, Y: p.Y, Angle: p.Angle}, connID)
	r.pickupNearby(p, now)
	return nil
}

func (r *Room) handlePlayerUpdate(connID string, m protocol.PlayerUpdate) error {
	p, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("playerUpdate from unjoined connection: %w", ErrInvalidInput)
	}
	p.Color = m.Color
	p.AnimalType = m.AnimalType
	p.AnimalIndex = int(game.Clamp(float64(m.AnimalIndex), 0, 255))
	p.Size = game.Clamp(m.Size, 0, 500)
	p.Tier = int(game.Clamp(float64(m.Tier), 0, 100))
	p.XP = game.Clamp(m.XP, 0, 1e9)
	r.broadcast(protocol.MsgPlayerUpdated, protocol.PlayerUpdated{
		ID:          p.ID,
		Color:       p.Color,
		AnimalType:  p.AnimalType,
		AnimalIndex: p.AnimalIndex,
		Size:        p.Size,
		Tier:        p.Tier,
		XP:          p.XP,
	}, connID)
	return nil
}

func (r *Room) handleShoot(connID string, m protocol.Shoot) error {
	if _, ok := r.players[connID]; !ok {
		return fmt.Errorf("shoot from unjoined connection: %w", ErrInvalidInput)
	}
	if !game.Finite(m.X, m.Y, m.VX, m.VY) {
		return fmt.Errorf("shoot: non-finite value: %w", ErrInvalidInput)
	}
	x, y := game.ClampToMap(m.X, m.Y, r.cfg.MapSize)
	vx, vy := game.LimitSpeed(m.VX, m.VY, game.MaxProjectileSpeed)
	pr := &game.Projectile{
		ID:      r.newID(),
		OwnerID: connID,
		Kind:    m.Kind,
		X:       x,
		Y:       y,
		VX:      vx,
		VY:      vy,
		TTL:     game.ProjectileTTLTicks,
	}
	r.projectiles[pr.ID] = pr
	r.broadcast(protocol.MsgPlayerShot, protocol.PlayerShot{Projectile: projectileRecord(pr), OwnerID: connID}, connID)
	return nil
}

func (r *Room) handleChat(connID string, m protocol.ChatMessage) error {
	p, ok := r.players[connID]
	if !ok {
		return fmt.Errorf("chat from unjoined connection: %w", ErrInvalidInput)
	}
	text := strings.TrimSpace(truncateRunes(strings.TrimSpace(m.Text), r.tuning.ChatMaxLen))
	if text == "" {
		return fmt.Errorf("chat: empty text: %w", ErrInvalidInput)
	}
	r.broadcast(protocol.MsgChatMessage, protocol.ChatBroadcast{ID: p.ID, PlayerName: p.Name, Text: text})
	return nil
}

// playerNamed 按名字查找在线玩家（忽略大小写，跳过 skip）
func (r *Room) playerNamed(name, skip string) *Player {
	for id, p := range r.players {
		if id != skip && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func sanitizeName(raw string, max int) string {
	name := strings.TrimSpace(truncateRunes(strings.TrimSpace(raw), max))
	if name == "" {
		return game.DefaultName
	}
	return name
}

func truncateRunes(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}
