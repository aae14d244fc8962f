package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// adminCommand.command 可接受的管理指令
const (
	CmdSpawnPowerups = "spawnPowerups"
	CmdClearPowerups = "clearPowerups"
	CmdHealAll       = "healAll"
	CmdSpawnNPCs     = "spawnNpcs"
	CmdKillNPCs      = "killNpcs"
	CmdRespawnBosses = "respawnBosses"
	CmdPowerupRain   = "powerupRain"
)

const (
	defaultSpawnPowerups = 20
	maxSpawnPowerups     = 200
	defaultSpawnNPCs     = 5
	maxSpawnNPCs         = 50
	rainCount            = 40
	rainOmegaChance      = 0.25
)

// SignAdminToken 返回 hex(HMAC-SHA256(secret, email))
// 设置 ADMIN_SECRET 时，白名单管理员在 join 时需携带该令牌
func SignAdminToken(secret, email string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(email))
	return hex.EncodeToString(mac.Sum(nil))
}

func (r *Room) isAdmin(email, token string) bool {
	if email == "" {
		return false
	}
	listed := false
	for _, e := range r.cfg.AdminEmails {
		if e == email {
			listed = true
			break
		}
	}
	if !listed {
		return false
	}
	if r.cfg.AdminSecret == "" {
		return true
	}
	return hmac.Equal([]byte(token), []byte(SignAdminToken(r.cfg.AdminSecret, email)))
}

// authorize 发送者须为已加入的管理员
func (r *Room) authorize(connID, what string) (*Player, error) {
	p, ok := r.players[connID]
	if !ok || !p.Admin {
		return nil, fmt.Errorf("%s from %s: %w", what, connID, ErrUnauthorizedCommand)
	}
	return p, nil
}

func (r *Room) handleAdminCommand(connID string, m protocol.AdminCommand) error {
	admin, err := r.authorize(connID, m.Command)
	if err != nil {
		return err
	}
	now := r.now()

	switch m.Command {
	case CmdSpawnPowerups:
		r.spawnPowerups(countOr(m.Count, defaultSpawnPowerups, maxSpawnPowerups), r.tuning.OmegaChance, CmdSpawnPowerups)
	case CmdClearPowerups:
		count := len(r.powerups)
		for id := range r.powerups {
			delete(r.powerups, id)
		}
		r.broadcast(protocol.MsgPowerupsCleared, protocol.PowerupsCleared{Count: count})
	case CmdHealAll:
		for _, p := range r.players {
			p.Heal()
		}
		r.broadcast(protocol.MsgPlayersHealed, protocol.PlayersHealed{Count: len(r.players)})
	case CmdSpawnNPCs:
		rarity := game.Common
		if m.Rarity != "" {
			rarity = game.Rarity(m.Rarity)
		}
		if _, err := game.StatsFor(rarity); err != nil || rarity == game.Boss {
			return fmt.Errorf("spawnNpcs: rarity %q: %w", m.Rarity, ErrInvalidInput)
		}
		n := countOr(m.Count, defaultSpawnNPCs, maxSpawnNPCs)
		recs := make([]protocol.NPCRecord, 0, n)
		for i := 0; i < n; i++ {
			r.waveSlot++
			npc := r.insertNPC(game.Slot{
				Rarity: rarity,
				Index:  r.waveSlot,
				Label:  fmt.Sprintf("wave-%d", r.waveSlot),
				Wave:   true,
			})
			recs = append(recs, npcRecord(npc))
		}
		r.broadcast(protocol.MsgNPCsSpawned, protocol.NPCsSpawned{NPCs: recs})
	case CmdKillNPCs:
		victims := make([]*game.NPC, 0, len(r.npcs))
		for _, n := range r.npcs {
			victims = append(victims, n)
		}
		for _, n := range victims {
			n.Health = 0
			n.Phase = game.Dead
			r.killNPC(n, "", now, false)
		}
	case CmdRespawnBosses:
		for _, slot := range r.cfg.Population {
			if slot.Rarity == game.Boss && !r.slotOccupied(slot) {
				r.spawnNPC(slot)
			}
		}
	case CmdPowerupRain:
		r.spawnPowerups(rainCount, rainOmegaChance, CmdPowerupRain)
		r.broadcast(protocol.MsgEventStarted, protocol.EventStarted{Event: CmdPowerupRain, Count: rainCount})
	default:
		return fmt.Errorf("unknown admin command %q: %w", m.Command, ErrInvalidInput)
	}
	r.log.Infow("admin command", "admin", admin.Name, "command", m.Command, "count", m.Count, "rarity", m.Rarity)
	return nil
}

func (r *Room) handleAnnouncement(connID string, m protocol.AdminAnnouncement) error {
	admin, err := r.authorize(connID, protocol.MsgAdminAnnouncement)
	if err != nil {
		return err
	}
	msg := strings.TrimSpace(truncateRunes(strings.TrimSpace(m.Message), r.tuning.ChatMaxLen))
	if msg == "" {
		return fmt.Errorf("announcement: empty message: %w", ErrInvalidInput)
	}
	r.broadcast(protocol.MsgAnnouncement, protocol.Announcement{Message: msg, From: admin.Name})
	r.log.Infow("announcement", "admin", admin.Name)
	return nil
}

func countOr(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}
