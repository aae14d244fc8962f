// Package protocol 定义与客户端交换的线上格式：消息名、消息结构与信封编解码
package protocol

// Version 消息结构不兼容变更时递增
const Version = 1

// 入站消息名
const (
	MsgJoin              = "join"
	MsgMove              = "move"
	MsgShoot             = "shoot"
	MsgPlayerHit         = "playerHit"
	MsgPlayerDied        = "playerDied"
	MsgPowerupTaken      = "powerupTaken"
	MsgChatMessage       = "chatMessage"
	MsgAdminCommand      = "adminCommand"
	MsgAdminAnnouncement = "adminAnnouncement"
	MsgNPCHit            = "npcHit"
	MsgBossHit           = "bossHit"
	MsgUsePower          = "usePower"
	MsgDropPower         = "dropPower"
	MsgPlayerUpdate      = "playerUpdate"
)

// 出站消息名，playerHit、playerDied、powerupTaken、chatMessage 与入站共用
const (
	MsgInit             = "init"
	MsgJoinError        = "joinError"
	MsgForcedDisconnect = "forcedDisconnect"
	MsgPlayerJoined     = "playerJoined"
	MsgPlayerMoved      = "playerMoved"
	MsgPlayerUpdated    = "playerUpdated"
	MsgPlayerShot       = "playerShot"
	MsgGotHit           = "gotHit"
	MsgPlayerStatus     = "playerStatus"
	MsgContactDamage    = "contactDamage"
	MsgPowerupSpawned   = "powerupSpawned"
	MsgPowerupsSpawned  = "powerupsSpawned"
	MsgPowerupsCleared  = "powerupsCleared"
	MsgNPCSpawned       = "npcSpawned"
	MsgNPCsSpawned      = "npcsSpawned"
	MsgNPCUpdate        = "npcUpdate"
	MsgNPCDied          = "npcDied"
	MsgBossSpawned      = "bossSpawned"
	MsgBossUpdate       = "bossUpdate"
	MsgBossDied         = "bossDied"
	MsgAnnouncement     = "announcement"
	MsgPlayersHealed    = "playersHealed"
	MsgEventStarted     = "eventStarted"
	MsgPlayerLeft       = "playerLeft"
)

// 拒绝加入的原因
const (
	ReasonInvalidJoinData  = "invalidJoinData"
	ReasonNameTaken        = "nameTaken"
	ReasonDuplicateSession = "duplicateSession"
)
