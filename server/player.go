package server

import (
	"sort"
	"time"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// Player 已加入连接在服务端的权威状态
type Player struct {
	ID       string // 连接 id
	Identity string
	Email    string
	Name     string
	Admin    bool

	X, Y      float64
	Angle     float64
	Health    float64
	MaxHealth float64
	Kills     int
	Power     game.PowerType

	statuses    map[game.Status]time.Time // 状态 -> 到期时间
	FrozenUntil time.Time

	Color       string
	AnimalType  string
	AnimalIndex int
	Size        float64
	Tier        int
	XP          float64
}

func newPlayer(id, identity, name string, x, y float64) *Player {
	return &Player{
		ID:        id,
		Identity:  identity,
		Name:      name,
		X:         x,
		Y:         y,
		Health:    game.PlayerMaxHealth,
		MaxHealth: game.PlayerMaxHealth,
		statuses:  make(map[game.Status]time.Time),
	}
}

func (p *Player) Alive() bool { return p.Health > 0 }

// ApplyDamage 扣血并限制在 [0, MaxHealth]，返回结果血量
func (p *Player) ApplyDamage(d float64) float64 {
	p.Health = game.Clamp(p.Health-d, 0, p.MaxHealth)
	return p.Health
}

func (p *Player) Heal() { p.Health = p.MaxHealth }

func (p *Player) Grant(s game.Status, until time.Time) { p.statuses[s] = until }

func (p *Player) Has(s game.Status, now time.Time) bool {
	until, ok := p.statuses[s]
	return ok && now.Before(until)
}

func (p *Player) Frozen(now time.Time) bool { return now.Before(p.FrozenUntil) }

// ExpireStatuses 移除已到期的状态，返回是否有变化
func (p *Player) ExpireStatuses(now time.Time) bool {
	changed := false
	for s, until := range p.statuses {
		if !now.Before(until) {
			delete(p.statuses, s)
			changed = true
		}
	}
	return changed
}

// respawn 死亡后重置玩家
func (p *Player) respawn(x, y float64) {
	p.Health = p.MaxHealth
	p.Kills = 0
	p.X, p.Y = x, y
	p.Power = game.PowerNone
	p.statuses = make(map[game.Status]time.Time)
	p.FrozenUntil = time.Time{}
}

func (p *Player) statusList(now time.Time) []string {
	out := make([]string, 0, len(p.statuses))
	for s := range p.statuses {
		if p.Has(s, now) {
			out = append(out, string(s))
		}
	}
	sort.Strings(out)
	return out
}

func (p *Player) frozenMillis(now time.Time) int64 {
	if !p.Frozen(now) {
		return 0
	}
	return p.FrozenUntil.UnixMilli()
}

func (p *Player) record(now time.Time) protocol.PlayerRecord {
	return protocol.PlayerRecord{
		ID:          p.ID,
		Name:        p.Name,
		X:           p.X,
		Y:           p.Y,
		Angle:       p.Angle,
		Health:      p.Health,
		MaxHealth:   p.MaxHealth,
		Kills:       p.Kills,
		Power:       string(p.Power),
		Statuses:    p.statusList(now),
		FrozenUntil: p.frozenMillis(now),
		Color:       p.Color,
		AnimalType:  p.AnimalType,
		AnimalIndex: p.AnimalIndex,
		Size:        p.Size,
		Tier:        p.Tier,
		XP:          p.XP,
		Admin:       p.Admin,
	}
}

func (p *Player) status(now time.Time) protocol.PlayerStatus {
	return protocol.PlayerStatus{
		ID:          p.ID,
		Power:       string(p.Power),
		Statuses:    p.statusList(now),
		FrozenUntil: p.frozenMillis(now),
		Health:      p.Health,
	}
}
