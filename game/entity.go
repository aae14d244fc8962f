package game

import "math"

type Powerup struct {
	ID   string
	X, Y float64
	Type PowerType
}

// Phase NPC 生命周期状态
type Phase uint8

const (
	Alive Phase = iota
	Dead
)

func (p Phase) String() string {
	if p == Dead {
		return "dead"
	}
	return "alive"
}

// NPC 服务端拥有的游荡实体，Boss 复用同一结构（Rarity 为 Boss）
type NPC struct {
	ID          string
	Slot        Slot
	X, Y        float64
	Angle       float64
	Health      float64
	MaxHealth   float64
	Phase       Phase
	AttackTimer int
	Stats       Stats
}

// NewNPC 在 (x, y) 为槽位创建满血 NPC
func NewNPC(id string, slot Slot, x, y float64) *NPC {
	s := MustStats(slot.Rarity)
	return &NPC{
		ID:        id,
		Slot:      slot,
		X:         x,
		Y:         y,
		Health:    s.MaxHealth,
		MaxHealth: s.MaxHealth,
		Phase:     Alive,
		Stats:     s,
	}
}

func (n *NPC) IsBoss() bool { return n.Slot.Rarity == Boss }

// Damage 扣血（不低于 0），返回本次是否击杀了存活的 NPC
// 对已死亡 NPC 的攻击不会再报告击杀
func (n *NPC) Damage(d float64) (killed bool) {
	if n.Phase != Alive {
		return false
	}
	n.Health = math.Max(0, n.Health-d)
	if n.Health == 0 {
		n.Phase = Dead
		return true
	}
	return false
}

// Steer 朝向目标并靠近（逃跑型则远离）
// step 本帧移动距离，dist 当前与目标的距离
func (n *NPC) Steer(tx, ty, dist, step, mapSize float64) {
	dx, dy := tx-n.X, ty-n.Y
	if n.Stats.Flees {
		n.Angle = math.Atan2(-dy, -dx)
		if dist < FleeRadius {
			n.X += math.Cos(n.Angle) * step
			n.Y += math.Sin(n.Angle) * step
		}
	} else {
		n.Angle = math.Atan2(dy, dx)
		if dist > n.Stats.Range/2 {
			step = math.Min(step, dist)
			n.X += math.Cos(n.Angle) * step
			n.Y += math.Sin(n.Angle) * step
		}
	}
	n.X, n.Y = ClampToMap(n.X, n.Y, mapSize)
}

// AttackReady 推进攻击计时，返回本帧是否触发接触伤害
func (n *NPC) AttackReady() bool {
	n.AttackTimer++
	if n.AttackTimer >= n.Stats.AttackEvery {
		n.AttackTimer = 0
		return true
	}
	return false
}

type Projectile struct {
	ID      string
	OwnerID string
	Kind    string
	X, Y    float64
	VX, VY  float64
	TTL     int
}

// Advance 弹道前进一帧，返回是否仍然有效
func (p *Projectile) Advance(mapSize float64) bool {
	p.X += p.VX
	p.Y += p.VY
	p.TTL--
	return p.TTL > 0 && InBounds(p.X, p.Y, mapSize)
}

// LimitSpeed 将 (vx, vy) 缩放到不超过 max
func LimitSpeed(vx, vy, max float64) (float64, float64) {
	s := math.Hypot(vx, vy)
	if s <= max || s == 0 {
		return vx, vy
	}
	k := max / s
	return vx * k, vy * k
}
