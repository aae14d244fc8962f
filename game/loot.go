package game

import "math/rand"

type weighted struct {
	power  PowerType
	weight int
}

// 各稀有度的掉落池，稀有度越高越偏向强力道具
var lootPools = map[Rarity][]weighted{
	Common: {
		{PowerSpeed, 30}, {PowerHeal, 30}, {PowerShield, 20}, {PowerRapidFire, 20},
	},
	Uncommon: {
		{PowerSpeed, 20}, {PowerHeal, 25}, {PowerShield, 20}, {PowerRapidFire, 20}, {PowerBerserker, 15},
	},
	Rare: {
		{PowerShield, 20}, {PowerBerserker, 25}, {PowerPhase, 20}, {PowerInvisibility, 20}, {PowerHeal, 15},
	},
	Epic: {
		{PowerBerserker, 25}, {PowerPhase, 20}, {PowerInvisibility, 20}, {PowerFreeze, 25}, {PowerOmega, 10},
	},
	Legendary: {
		{PowerFreeze, 30}, {PowerInvisibility, 20}, {PowerBerserker, 20}, {PowerOmega, 30},
	},
	Boss: {
		{PowerFreeze, 25}, {PowerBerserker, 20}, {PowerPhase, 15}, {PowerInvisibility, 15}, {PowerOmega, 25},
	},
}

// RollLoot 返回稀有度 r 的实体被击败后的掉落，数量恒为该稀有度的 LootCount
func RollLoot(rng *rand.Rand, r Rarity) []PowerType {
	stats, err := StatsFor(r)
	if err != nil {
		return nil
	}
	pool := lootPools[r]
	drops := make([]PowerType, 0, stats.LootCount)
	for i := 0; i < stats.LootCount; i++ {
		if i == 0 && stats.GuaranteeTop {
			drops = append(drops, PowerOmega)
			continue
		}
		drops = append(drops, pick(rng, pool))
	}
	return drops
}

func pick(rng *rand.Rand, pool []weighted) PowerType {
	total := 0
	for _, w := range pool {
		total += w.weight
	}
	if total == 0 {
		return PowerHeal
	}
	n := rng.Intn(total)
	for _, w := range pool {
		if n < w.weight {
			return w.power
		}
		n -= w.weight
	}
	return pool[len(pool)-1].power
}
