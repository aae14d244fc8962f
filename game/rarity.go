package game

import (
	"fmt"
	"time"
)

// Rarity NPC 或 Boss 的稀有度
type Rarity string

const (
	Common    Rarity = "common"
	Uncommon  Rarity = "uncommon"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
	Boss      Rarity = "boss"
)

// NPCRarities 非 Boss 稀有度，由弱到强
var NPCRarities = []Rarity{Common, Uncommon, Rare, Epic, Legendary}

// Stats 由稀有度派生的全部属性
type Stats struct {
	Speed        float64 // ReferenceTickHz 下每帧移动的地图单位
	Damage       float64
	Range        float64
	Radius       float64
	AttackEvery  int // 两次接触伤害间隔的帧数
	MaxHealth    float64
	RespawnDelay time.Duration
	LootCount    int
	GuaranteeTop bool // 第一个掉落必为 omega
	Flees        bool
}

var rarityStats = map[Rarity]Stats{
	Common:    {Speed: 4, Damage: 5, Range: 60, Radius: 20, AttackEvery: 10, MaxHealth: 50, RespawnDelay: 10 * time.Second, LootCount: 1},
	Uncommon:  {Speed: 5, Damage: 8, Range: 70, Radius: 24, AttackEvery: 10, MaxHealth: 100, RespawnDelay: 20 * time.Second, LootCount: 1},
	Rare:      {Speed: 6, Damage: 12, Range: 80, Radius: 28, AttackEvery: 8, MaxHealth: 200, RespawnDelay: 45 * time.Second, LootCount: 2},
	Epic:      {Speed: 6.5, Damage: 18, Range: 90, Radius: 34, AttackEvery: 8, MaxHealth: 400, RespawnDelay: 90 * time.Second, LootCount: 3},
	Legendary: {Speed: 7.5, Damage: 20, Range: 90, Radius: 30, AttackEvery: 8, MaxHealth: 600, RespawnDelay: 180 * time.Second, LootCount: 4, GuaranteeTop: true, Flees: true},
	Boss:      {Speed: 3, Damage: 30, Range: 150, Radius: 80, AttackEvery: 15, MaxHealth: 1000, RespawnDelay: 300 * time.Second, LootCount: 8, GuaranteeTop: true},
}

// StatsFor 返回 r 的属性
func StatsFor(r Rarity) (Stats, error) {
	s, ok := rarityStats[r]
	if !ok {
		return Stats{}, fmt.Errorf("unknown rarity %q", r)
	}
	return s, nil
}

// MustStats 用于编译期已知的稀有度
func MustStats(r Rarity) Stats {
	s, err := StatsFor(r)
	if err != nil {
		panic(err)
	}
	return s
}

// Slot NPC/Boss 种群中的逻辑生成槽位
type Slot struct {
	Rarity Rarity
	Index  int
	Label  string
	Wave   bool // 按需生成，不会重生
}

// DefaultPopulation 世界初始的槽位表
func DefaultPopulation() []Slot {
	counts := []struct {
		r Rarity
		n int
	}{
		{Common, 12},
		{Uncommon, 8},
		{Rare, 5},
		{Epic, 3},
		{Legendary, 1},
	}
	var slots []Slot
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			slots = append(slots, Slot{Rarity: c.r, Index: i, Label: fmt.Sprintf("%s-%d", c.r, i)})
		}
	}
	slots = append(slots,
		Slot{Rarity: Boss, Index: 0, Label: "Titan"},
		Slot{Rarity: Boss, Index: 1, Label: "Wraith"},
	)
	return slots
}
