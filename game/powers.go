package game

import "math/rand"

// PowerType 固定道具目录中的一项，空值表示未持有
type PowerType string

const (
	PowerNone         PowerType = ""
	PowerSpeed        PowerType = "speed"
	PowerShield       PowerType = "shield"
	PowerRapidFire    PowerType = "rapidFire"
	PowerBerserker    PowerType = "berserker"
	PowerPhase        PowerType = "phase"
	PowerInvisibility PowerType = "invisibility"
	PowerFreeze       PowerType = "freeze"
	PowerHeal         PowerType = "heal"
	PowerOmega        PowerType = "omega"
)

// RegularPowers 均匀生成池，omega 单独抽取
var RegularPowers = []PowerType{
	PowerSpeed,
	PowerShield,
	PowerRapidFire,
	PowerBerserker,
	PowerPhase,
	PowerInvisibility,
	PowerFreeze,
	PowerHeal,
}

func (p PowerType) Valid() bool {
	if p == PowerOmega {
		return true
	}
	for _, r := range RegularPowers {
		if r == p {
			return true
		}
	}
	return false
}

// RandomPower 以 omegaChance 的概率抽到 omega，否则从常规道具中均匀抽取
func RandomPower(rng *rand.Rand, omegaChance float64) PowerType {
	if omegaChance > 0 && rng.Float64() < omegaChance {
		return PowerOmega
	}
	return RegularPowers[rng.Intn(len(RegularPowers))]
}

// Status 使用道具获得的限时玩家状态
type Status string

const (
	StatusSpeedBoost Status = "speedBoost"
	StatusRapidFire  Status = "rapidFire"
	StatusBerserker  Status = "berserker"
	StatusPhase      Status = "phase"
	StatusInvisible  Status = "invisible"
	StatusShielded   Status = "shielded"
)

// StatusFor 返回道具对应的状态（如有）
func StatusFor(p PowerType) (Status, bool) {
	switch p {
	case PowerSpeed:
		return StatusSpeedBoost, true
	case PowerRapidFire:
		return StatusRapidFire, true
	case PowerBerserker:
		return StatusBerserker, true
	case PowerPhase:
		return StatusPhase, true
	case PowerInvisibility:
		return StatusInvisible, true
	case PowerShield:
		return StatusShielded, true
	}
	return "", false
}
