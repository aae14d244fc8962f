package game

import "time"

const (
	DefaultMapSize     = 8000.0
	SpawnMargin        = 200.0
	PlayerMaxHealth    = 100.0
	DefaultName        = "Player"
	DefaultNameMaxLen  = 20
	DefaultChatMaxLen  = 200
	PickupRadius       = 50.0
	PickupClaimRadius  = 150.0
	FreezeRadius       = 400.0
	FleeRadius         = 800.0
	BerserkerDamageMul = 1.5

	MaxProjectileSpeed = 40.0
	ProjectileTTLTicks = 60

	DefaultPowerupFloor = 50
	DefaultOmegaChance  = 0.02

	// ReferenceTickHz 稀有度表中 NPC 速度对应的基准 Tick 频率
	ReferenceTickHz = 10
)

const (
	PowerDuration        = 8 * time.Second
	FreezeDuration       = 3 * time.Second
	PowerupRespawnDelay  = 5 * time.Second
	PowerupTopUpInterval = 10 * time.Second
	SessionSweepInterval = 30 * time.Second
)
