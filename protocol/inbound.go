package protocol

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidPayload 帧可解码但未通过结构校验
var ErrInvalidPayload = errors.New("invalid payload")

// Inbound 客户端发往服务端的消息集合
type Inbound interface {
	MsgType() string
	Validate() error
}

type Join struct {
	Identity   string `json:"identity,omitempty"`
	UserID     string `json:"userId,omitempty"` // Identity 的旧别名
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	AdminToken string `json:"adminToken,omitempty"`
}

func (Join) MsgType() string { return MsgJoin }

func (j Join) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return fmt.Errorf("join: name required: %w", ErrInvalidPayload)
	}
	return nil
}

// StableIdentity 返回身份，缺省时回退到旧的 userId 字段
func (j Join) StableIdentity() string {
	if id := strings.TrimSpace(j.Identity); id != "" {
		return id
	}
	return strings.TrimSpace(j.UserID)
}

type Move struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Angle float64  `json:"angle,omitempty"`
}

func (Move) MsgType() string { return MsgMove }

func (m Move) Validate() error {
	if m.X == nil || m.Y == nil {
		return fmt.Errorf("move: x and y required: %w", ErrInvalidPayload)
	}
	if !finite(*m.X, *m.Y, m.Angle) {
		return fmt.Errorf("move: non-finite value: %w", ErrInvalidPayload)
	}
	return nil
}

type Shoot struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	VX   float64 `json:"vx"`
	VY   float64 `json:"vy"`
	Kind string  `json:"kind,omitempty"`
}

func (Shoot) MsgType() string { return MsgShoot }

func (s Shoot) Validate() error {
	if !finite(s.X, s.Y, s.VX, s.VY) {
		return fmt.Errorf("shoot: non-finite value: %w", ErrInvalidPayload)
	}
	if s.VX == 0 && s.VY == 0 {
		return fmt.Errorf("shoot: zero velocity: %w", ErrInvalidPayload)
	}
	if len(s.Kind) > 32 {
		return fmt.Errorf("shoot: kind too long: %w", ErrInvalidPayload)
	}
	return nil
}

type PlayerHit struct {
	TargetID   string   `json:"targetId"`
	Damage     *float64 `json:"damage"`
	AttackerID string   `json:"attackerId,omitempty"` // 忽略，发送者即攻击者
}

func (PlayerHit) MsgType() string { return MsgPlayerHit }

func (h PlayerHit) Validate() error {
	if h.TargetID == "" {
		return fmt.Errorf("playerHit: targetId required: %w", ErrInvalidPayload)
	}
	return validDamage("playerHit", h.Damage)
}

type PlayerDied struct {
	VictimID string `json:"victimId,omitempty"`
	KillerID string `json:"killerId,omitempty"`
}

func (PlayerDied) MsgType() string { return MsgPlayerDied }
func (PlayerDied) Validate() error { return nil }

type PowerupTaken struct {
	ID string `json:"id"`
}

func (PowerupTaken) MsgType() string { return MsgPowerupTaken }

func (p PowerupTaken) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("powerupTaken: id required: %w", ErrInvalidPayload)
	}
	return nil
}

type ChatMessage struct {
	Text       string `json:"text"`
	PlayerName string `json:"playerName,omitempty"` // 忽略，使用服务端记录的名字
}

func (ChatMessage) MsgType() string { return MsgChatMessage }

func (c ChatMessage) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("chatMessage: empty text: %w", ErrInvalidPayload)
	}
	return nil
}

type AdminCommand struct {
	Command string `json:"command"`
	Count   int    `json:"count,omitempty"`
	Rarity  string `json:"rarity,omitempty"`
}

func (AdminCommand) MsgType() string { return MsgAdminCommand }

func (a AdminCommand) Validate() error {
	if a.Command == "" {
		return fmt.Errorf("adminCommand: command required: %w", ErrInvalidPayload)
	}
	if a.Count < 0 {
		return fmt.Errorf("adminCommand: negative count: %w", ErrInvalidPayload)
	}
	return nil
}

type AdminAnnouncement struct {
	Message string `json:"message"`
}

func (AdminAnnouncement) MsgType() string { return MsgAdminAnnouncement }

func (a AdminAnnouncement) Validate() error {
	if strings.TrimSpace(a.Message) == "" {
		return fmt.Errorf("adminAnnouncement: empty message: %w", ErrInvalidPayload)
	}
	return nil
}

type NPCHit struct {
	NPCID  string   `json:"npcId"`
	Damage *float64 `json:"damage"`
}

func (NPCHit) MsgType() string { return MsgNPCHit }

func (h NPCHit) Validate() error {
	if h.NPCID == "" {
		return fmt.Errorf("npcHit: npcId required: %w", ErrInvalidPayload)
	}
	return validDamage("npcHit", h.Damage)
}

type BossHit struct {
	BossID string   `json:"bossId"`
	Damage *float64 `json:"damage"`
}

func (BossHit) MsgType() string { return MsgBossHit }

func (h BossHit) Validate() error {
	if h.BossID == "" {
		return fmt.Errorf("bossHit: bossId required: %w", ErrInvalidPayload)
	}
	return validDamage("bossHit", h.Damage)
}

type UsePower struct{}

func (UsePower) MsgType() string { return MsgUsePower }
func (UsePower) Validate() error { return nil }

type DropPower struct{}

func (DropPower) MsgType() string { return MsgDropPower }
func (DropPower) Validate() error { return nil }

// PlayerUpdate 仅包含外观字段，从不读取客户端的血量
type PlayerUpdate struct {
	Color       string  `json:"color,omitempty"`
	AnimalType  string  `json:"animalType,omitempty"`
	AnimalIndex int     `json:"animalIndex,omitempty"`
	Size        float64 `json:"size,omitempty"`
	Tier        int     `json:"tier,omitempty"`
	XP          float64 `json:"xp,omitempty"`
}

func (PlayerUpdate) MsgType() string { return MsgPlayerUpdate }

func (u PlayerUpdate) Validate() error {
	if !finite(u.Size, u.XP) {
		return fmt.Errorf("playerUpdate: non-finite value: %w", ErrInvalidPayload)
	}
	if len(u.Color) > 32 || len(u.AnimalType) > 32 {
		return fmt.Errorf("playerUpdate: field too long: %w", ErrInvalidPayload)
	}
	return nil
}

// DecodeError 无法转为合法消息的帧
// 信封本身可读时 Type 为其类型
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return e.Err.Error()
	}
	return e.Type + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return ErrInvalidPayload }

// DecodeInbound 将帧解码为具体消息并校验，失败时均返回 *DecodeError
func DecodeInbound(c Codec, b []byte) (Inbound, error) {
	env, err := c.DecodeEnvelope(b)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("decode envelope: %w", err)}
	}
	var msg Inbound
	switch env.T {
	case MsgJoin:
		msg, err = decode[Join](c, env)
	case MsgMove:
		msg, err = decode[Move](c, env)
	case MsgShoot:
		msg, err = decode[Shoot](c, env)
	case MsgPlayerHit:
		msg, err = decode[PlayerHit](c, env)
	case MsgPlayerDied:
		msg, err = decodeOptional[PlayerDied](c, env)
	case MsgPowerupTaken:
		msg, err = decode[PowerupTaken](c, env)
	case MsgChatMessage:
		msg, err = decode[ChatMessage](c, env)
	case MsgAdminCommand:
		msg, err = decode[AdminCommand](c, env)
	case MsgAdminAnnouncement:
		msg, err = decode[AdminAnnouncement](c, env)
	case MsgNPCHit:
		msg, err = decode[NPCHit](c, env)
	case MsgBossHit:
		msg, err = decode[BossHit](c, env)
	case MsgUsePower:
		msg, err = decodeOptional[UsePower](c, env)
	case MsgDropPower:
		msg, err = decodeOptional[DropPower](c, env)
	case MsgPlayerUpdate:
		msg, err = decode[PlayerUpdate](c, env)
	default:
		return nil, &DecodeError{Type: env.T, Err: errors.New("unknown message type")}
	}
	if err == nil {
		err = msg.Validate()
	}
	if err != nil {
		return nil, &DecodeError{Type: env.T, Err: err}
	}
	return msg, nil
}

func decode[T Inbound](c Codec, env Envelope) (Inbound, error) {
	v, err := DecodePayload[T](c, env)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// decodeOptional 无必填字段的消息允许缺省 payload
func decodeOptional[T Inbound](c Codec, env Envelope) (Inbound, error) {
	if emptyPayload(env.P) {
		var zero T
		return zero, nil
	}
	return decode[T](c, env)
}

func validDamage(msg string, d *float64) error {
	if d == nil || !finite(*d) || *d <= 0 {
		return fmt.Errorf("%s: damage must be a positive number: %w", msg, ErrInvalidPayload)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
