package protocol

// PlayerRecord 同步给客户端的玩家视图
type PlayerRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Angle       float64  `json:"angle"`
	Health      float64  `json:"health"`
	MaxHealth   float64  `json:"maxHealth"`
	Kills       int      `json:"kills"`
	Power       string   `json:"power,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	FrozenUntil int64    `json:"frozenUntil,omitempty"`
	Color       string   `json:"color,omitempty"`
	AnimalType  string   `json:"animalType,omitempty"`
	AnimalIndex int      `json:"animalIndex,omitempty"`
	Size        float64  `json:"size,omitempty"`
	Tier        int      `json:"tier,omitempty"`
	XP          float64  `json:"xp,omitempty"`
	Admin       bool     `json:"admin,omitempty"`
}

type PowerupRecord struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type"`
}

// NPCRecord NPC 与 Boss 共用
type NPCRecord struct {
	ID        string  `json:"id"`
	Rarity    string  `json:"rarity"`
	Label     string  `json:"label"`
	Slot      int     `json:"slot"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"angle"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Radius    float64 `json:"radius"`
}

type ProjectileRecord struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	Kind    string  `json:"kind,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
}

// Init 玩家加入后发送一次的快照
type Init struct {
	Version     int                `json:"version"`
	Self        PlayerRecord       `json:"self"`
	MapSize     float64            `json:"mapSize"`
	Players     []PlayerRecord     `json:"players"`
	Powerups    []PowerupRecord    `json:"powerups"`
	NPCs        []NPCRecord        `json:"npcs"`
	Bosses      []NPCRecord        `json:"bosses"`
	Projectiles []ProjectileRecord `json:"projectiles"`
}

type JoinError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type ForcedDisconnect struct {
	Reason string `json:"reason"`
}

type PlayerMoved struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

type PlayerUpdated struct {
	ID          string  `json:"id"`
	Color       string  `json:"color,omitempty"`
	AnimalType  string  `json:"animalType,omitempty"`
	AnimalIndex int     `json:"animalIndex,omitempty"`
	Size        float64 `json:"size,omitempty"`
	Tier        int     `json:"tier,omitempty"`
	XP          float64 `json:"xp,omitempty"`
}

type PlayerShot struct {
	Projectile ProjectileRecord `json:"projectile"`
	OwnerID    string           `json:"ownerId"`
}

type GotHit struct {
	AttackerID string  `json:"attackerId"`
	Damage     float64 `json:"damage"`
	Health     float64 `json:"health"`
}

type PlayerHitEvent struct {
	TargetID   string  `json:"targetId"`
	AttackerID string  `json:"attackerId"`
	Damage     float64 `json:"damage"`
	Health     float64 `json:"health"`
}

type PlayerDiedEvent struct {
	VictimID    string          `json:"victimId"`
	KillerID    string          `json:"killerId,omitempty"`
	KillerKills int             `json:"killerKills,omitempty"`
	Victim      *PlayerRecord   `json:"victim,omitempty"`
	Drops       []PowerupRecord `json:"drops,omitempty"`
}

type PlayerStatus struct {
	ID          string   `json:"id"`
	Power       string   `json:"power,omitempty"`
	Statuses    []string `json:"statuses"`
	FrozenUntil int64    `json:"frozenUntil,omitempty"`
	Health      float64  `json:"health"`
}

type ContactDamage struct {
	SourceID string  `json:"sourceId"`
	Damage   float64 `json:"damage"`
	Health   float64 `json:"health"`
}

type PowerupTakenEvent struct {
	ID       string `json:"id"`
	PlayerID string `json:"playerId"`
	Type     string `json:"type"`
}

// PowerupsSpawned 一帧内公布一批新道具
type PowerupsSpawned struct {
	Reason   string          `json:"reason"`
	Powerups []PowerupRecord `json:"powerups"`
}

type NPCsSpawned struct {
	NPCs []NPCRecord `json:"npcs"`
}

type PowerupsCleared struct {
	Count int `json:"count"`
}

type EntityUpdate struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Health float64 `json:"health"`
}

type EntityDied struct {
	ID       string          `json:"id"`
	Rarity   string          `json:"rarity"`
	KillerID string          `json:"killerId,omitempty"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Drops    []PowerupRecord `json:"drops"`
}

type ChatBroadcast struct {
	ID         string `json:"id"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
}

type Announcement struct {
	Message string `json:"message"`
	From    string `json:"from"`
}

type PlayersHealed struct {
	Count int `json:"count"`
}

type EventStarted struct {
	Event string `json:"event"`
	Count int    `json:"count"`
}

type PlayerLeft struct {
	ID string `json:"id"`
}
