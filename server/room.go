package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

// Conn 房间视角下的客户端连接，Enqueue 不得阻塞
type Conn interface {
	ID() string
	Codec() protocol.Codec
	Enqueue(b []byte) bool
	Close()
}

// Options 房间依赖，零值字段使用默认实现
type Options struct {
	Config  Config
	Logger  *zap.SugaredLogger
	Metrics *Metrics
	Now     func() time.Time
	Rand    *rand.Rand
	NewID   func() string
}

// Tuning 房间运行中可热更新的参数
type Tuning struct {
	PowerupFloor int     `json:"powerupFloor"`
	PickupRadius float64 `json:"pickupRadius"`
	ChatMaxLen   int     `json:"chatMaxLen"`
	OmegaChance  float64 `json:"omegaChance"`
}

// TuningUpdate 部分更新，nil 字段保持不变
type TuningUpdate struct {
	PowerupFloor *int     `json:"powerupFloor,omitempty"`
	PickupRadius *float64 `json:"pickupRadius,omitempty"`
	ChatMaxLen   *int     `json:"chatMaxLen,omitempty"`
	OmegaChance  *float64 `json:"omegaChance,omitempty"`
}

func (u TuningUpdate) apply(t Tuning) (Tuning, error) {
	var errs error
	if u.PowerupFloor != nil {
		if *u.PowerupFloor < 0 || *u.PowerupFloor > 1000 {
			errs = multierr.Append(errs, fmt.Errorf("powerupFloor %d outside [0, 1000]", *u.PowerupFloor))
		} else {
			t.PowerupFloor = *u.PowerupFloor
		}
	}
	if u.PickupRadius != nil {
		if !game.Finite(*u.PickupRadius) || *u.PickupRadius <= 0 {
			errs = multierr.Append(errs, errors.New("pickupRadius must be positive"))
		} else {
			t.PickupRadius = *u.PickupRadius
		}
	}
	if u.ChatMaxLen != nil {
		if *u.ChatMaxLen < 1 {
			errs = multierr.Append(errs, errors.New("chatMaxLen must be positive"))
		} else {
			t.ChatMaxLen = *u.ChatMaxLen
		}
	}
	if u.OmegaChance != nil {
		if !game.Finite(*u.OmegaChance) || *u.OmegaChance < 0 || *u.OmegaChance > 1 {
			errs = multierr.Append(errs, errors.New("omegaChance outside [0, 1]"))
		} else {
			t.OmegaChance = *u.OmegaChance
		}
	}
	if errs != nil {
		return Tuning{}, fmt.Errorf("%w: %v", ErrInvalidInput, errs)
	}
	return t, nil
}

// Stats 通过 HTTP 输出的存活概要
type Stats struct {
	Players     int       `json:"players"`
	Connections int       `json:"connections"`
	Powerups    int       `json:"powerups"`
	NPCs        int       `json:"npcs"`
	Bosses      int       `json:"bosses"`
	Projectiles int       `json:"projectiles"`
	Tick        uint64    `json:"tick"`
	Started     time.Time `json:"-"`
}

// Room 权威世界状态
// 以下状态只归 Run 协程所有，其他协程通过收件箱与其通信
type Room struct {
	cfg     Config
	tuning  Tuning
	log     *zap.SugaredLogger
	metrics *Metrics
	now     func() time.Time
	rng     *rand.Rand
	newID   func() string

	inbox    chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	conns       map[string]Conn
	players     map[string]*Player
	sessions    *SessionRegistry
	powerups    map[string]*game.Powerup
	npcs        map[string]*game.NPC
	bosses      map[string]*game.NPC
	projectiles map[string]*game.Projectile
	sched       *Scheduler

	tickSeq  uint64
	started  time.Time
	waveSlot int
}

// NewRoom 创建房间，初始化数据结构
// 补足道具、生成 NPC/Boss，并注册定时补充与会话清理任务
func NewRoom(opts Options) *Room {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	cfg := opts.Config
	r := &Room{
		cfg: cfg,
		tuning: Tuning{
			PowerupFloor: cfg.PowerupFloor,
			PickupRadius: cfg.PickupRadius,
			ChatMaxLen:   cfg.ChatMaxLen,
			OmegaChance:  cfg.OmegaChance,
		},
		log:         opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Now,
		rng:         opts.Rand,
		newID:       opts.NewID,
		inbox:       make(chan any, 1024),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		conns:       make(map[string]Conn),
		players:     make(map[string]*Player),
		sessions:    NewSessionRegistry(),
		powerups:    make(map[string]*game.Powerup),
		npcs:        make(map[string]*game.NPC),
		bosses:      make(map[string]*game.NPC),
		projectiles: make(map[string]*game.Projectile),
		sched:       NewScheduler(),
	}

	now := r.now()
	r.started = now
	r.topUpPowerups(now)
	for _, slot := range cfg.Population {
		r.spawnNPC(slot)
	}
	r.sched.Every(now.Add(cfg.PowerupTopUpInterval), cfg.PowerupTopUpInterval, "powerupTopUp", r.topUpPowerups)
	r.sched.Every(now.Add(cfg.SessionSweepInterval), cfg.SessionSweepInterval, "sessionSweep", r.sweepSessions)
	r.log.Infow("room ready",
		"mapSize", cfg.MapSize,
		"powerups", len(r.powerups),
		"npcs", len(r.npcs),
		"bosses", len(r.bosses),
		"aiTickHz", cfg.AITickHz)
	return r
}

// Stop 通知 Run 退出，可重复调用
func (r *Room) Stop() { r.stopOnce.Do(func() { close(r.quit) }) }

// Done 在 Run 返回后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) submit(ctx context.Context, cmd any) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.quit:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect 登记连接，使其接收广播
func (r *Room) Connect(ctx context.Context, c Conn) error {
	return r.submit(ctx, connectCmd{conn: c})
}

// Deliver 把解码后的客户端消息交给房间
func (r *Room) Deliver(ctx context.Context, connID string, msg protocol.Inbound) error {
	return r.submit(ctx, inboundCmd{connID: connID, msg: msg})
}

// Reject 上报解码失败的帧，按顺序记日志与计数
func (r *Room) Reject(ctx context.Context, connID, msgType string, err error) error {
	return r.submit(ctx, rejectCmd{connID: connID, msgType: msgType, err: err})
}

// Disconnect 安排清理已关闭的连接
func (r *Room) Disconnect(connID string) {
	_ = r.submit(context.Background(), leaveCmd{connID: connID})
}

// Stats 向房间查询存活概要
func (r *Room) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := r.submit(ctx, statsCmd{reply: reply}); err != nil {
		return Stats{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.quit:
		return Stats{}, ErrRoomClosed
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Tuning 读取当前参数，update 非 nil 时先应用更新
func (r *Room) Tuning(ctx context.Context, update *TuningUpdate) (Tuning, error) {
	reply := make(chan tuningResult, 1)
	if err := r.submit(ctx, tuningCmd{update: update, reply: reply}); err != nil {
		return Tuning{}, err
	}
	select {
	case res := <-reply:
		return res.tuning, res.err
	case <-r.quit:
		return Tuning{}, ErrRoomClosed
	case <-ctx.Done():
		return Tuning{}, ctx.Err()
	}
}

// handle 执行一条收件箱命令
func (r *Room) handle(cmd any) {
	if c, ok := cmd.(inboundCmd); ok {
		err := r.safely(c.msg.MsgType(), func() error { return r.dispatch(c.connID, c.msg) })
		r.account(c.connID, c.msg.MsgType(), err)
		return
	}
	name := fmt.Sprintf("%T", cmd)
	if err := r.safely(name, func() error { return r.control(cmd) }); err != nil {
		r.account("", name, err)
	}
}

func (r *Room) control(cmd any) error {
	switch c := cmd.(type) {
	case connectCmd:
		r.conns[c.conn.ID()] = c.conn
		r.metrics.IncConnections()
		r.log.Debugw("connection opened", "conn", c.conn.ID(), "codec", c.conn.Codec().Name())
	case rejectCmd:
		r.reject(c.connID, c.msgType, c.err)
	case leaveCmd:
		return r.dropConnection(c.connID, true)
	case statsCmd:
		c.reply <- r.stats()
	case tuningCmd:
		res := tuningResult{tuning: r.tuning}
		if c.update != nil {
			t, err := c.update.apply(r.tuning)
			if err != nil {
				res.err = err
			} else {
				r.tuning = t
				res.tuning = t
				r.log.Infow("tuning updated", "tuning", t)
			}
		}
		c.reply <- res
	default:
		r.log.Errorw("unknown room command", "type", fmt.Sprintf("%T", cmd))
	}
	return nil
}

func (r *Room) dispatch(connID string, msg protocol.Inbound) error {
	switch m := msg.(type) {
	case protocol.Join:
		return r.handleJoin(connID, m)
	case protocol.Move:
		return r.handleMove(connID, m)
	case protocol.PlayerUpdate:
		return r.handlePlayerUpdate(connID, m)
	case protocol.Shoot:
		return r.handleShoot(connID, m)
	case protocol.ChatMessage:
		return r.handleChat(connID, m)
	case protocol.PlayerHit:
		return r.handlePlayerHit(connID, m)
	case protocol.PlayerDied:
		return r.handlePlayerDied(connID, m)
	case protocol.PowerupTaken:
		return r.handlePowerupClaim(connID, m)
	case protocol.UsePower:
		return r.handleUsePower(connID)
	case protocol.DropPower:
		return r.handleDropPower(connID)
	case protocol.NPCHit:
		return r.handleEntityHit(connID, m.NPCID, *m.Damage, false)
	case protocol.BossHit:
		return r.handleEntityHit(connID, m.BossID, *m.Damage, true)
	case protocol.AdminCommand:
		return r.handleAdminCommand(connID, m)
	case protocol.AdminAnnouncement:
		return r.handleAnnouncement(connID, m)
	}
	return fmt.Errorf("unhandled message %s: %w", msg.MsgType(), ErrInvalidInput)
}

// reject 记录未能成为消息的帧，只有损坏的 join 会回复客户端
func (r *Room) reject(connID, msgType string, err error) {
	if msgType == protocol.MsgJoin {
		r.sendTo(connID, protocol.MsgJoinError, protocol.JoinError{
			Reason:  protocol.ReasonInvalidJoinData,
			Message: "invalid join data",
		})
	}
	r.account(connID, msgType, fmt.Errorf("%v: %w", err, ErrInvalidInput))
}

// guard 执行一个 Tick 阶段，panic 只记日志与计数，不向外传播
func (r *Room) guard(name string, fn func()) {
	if err := r.safely(name, func() error { fn(); return nil }); err != nil {
		r.account("", name, err)
	}
}

// safely 执行 fn，将 panic 转为 ErrInternalHandlerFault
func (r *Room) safely(where string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: panic: %v: %w", where, rec, ErrInternalHandlerFault)
		}
	}()
	return fn()
}

// account 按处理结果分类记日志与指标
func (r *Room) account(connID, msgType string, err error) {
	switch {
	case err == nil:
		r.metrics.IncAccepted()
	case errors.Is(err, ErrInternalHandlerFault):
		r.metrics.IncFault()
		r.log.Errorw("handler fault", "conn", connID, "type", msgType, "err", err)
	case errors.Is(err, ErrUnauthorizedCommand):
		r.metrics.IncUnauthorized()
		r.log.Warnw("unauthorized command", "conn", connID, "type", msgType, "err", err)
	case errors.Is(err, ErrEntityNotFound):
		r.metrics.IncNotFound()
		r.log.Debugw("entity not found", "conn", connID, "type", msgType, "err", err)
	case errors.Is(err, ErrInvalidInput):
		r.metrics.IncInvalid()
		r.log.Infow("invalid input", "conn", connID, "type", msgType, "err", err)
	default:
		r.log.Warnw("handler error", "conn", connID, "type", msgType, "err", err)
	}
}

func (r *Room) encode(c protocol.Codec, t string, payload any) ([]byte, bool) {
	b, err := c.Encode(t, payload)
	if err != nil {
		r.log.Errorw("encode failed", "type", t, "codec", c.Name(), "err", err)
		return nil, false
	}
	return b, true
}

func (r *Room) deliver(c Conn, b []byte) {
	if !c.Enqueue(b) {
		r.metrics.IncSendDropped()
	}
}

// sendTo 发给单个连接
func (r *Room) sendTo(connID, t string, payload any) {
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	if b, ok := r.encode(c.Codec(), t, payload); ok {
		r.deliver(c, b)
	}
}

// broadcast 发给除 except 外的所有连接，每种编码只编码一次
func (r *Room) broadcast(t string, payload any, except ...string) {
	frames := make(map[string][]byte, 2)
	for id, c := range r.conns {
		if excluded(id, except) {
			continue
		}
		codec := c.Codec()
		b, ok := frames[codec.Name()]
		if !ok {
			if b, ok = r.encode(codec, t, payload); !ok {
				return
			}
			frames[codec.Name()] = b
		}
		r.deliver(c, b)
	}
	r.metrics.IncBroadcast()
}

func excluded(id string, except []string) bool {
	for _, e := range except {
		if e == id {
			return true
		}
	}
	return false
}

func (r *Room) stats() Stats {
	return Stats{
		Players:     len(r.players),
		Connections: len(r.conns),
		Powerups:    len(r.powerups),
		NPCs:        len(r.npcs),
		Bosses:      len(r.bosses),
		Projectiles: len(r.projectiles),
		Tick:        r.tickSeq,
		Started:     r.started,
	}
}

// sweepSessions 回收连接已不存在的身份绑定
func (r *Room) sweepSessions(time.Time) {
	stale := r.sessions.Sweep(func(connID string) bool {
		_, ok := r.conns[connID]
		return ok
	})
	if len(stale) > 0 {
		r.metrics.AddStaleSessions(int64(len(stale)))
		r.log.Infow("stale sessions reclaimed", "count", len(stale))
	}
}

func (r *Room) playerRecords(now time.Time) []protocol.PlayerRecord {
	out := make([]protocol.PlayerRecord, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.record(now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Room) powerupRecords() []protocol.PowerupRecord {
	out := make([]protocol.PowerupRecord, 0, len(r.powerups))
	for _, pu := range r.powerups {
		out = append(out, powerupRecord(pu))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func npcRecords(m map[string]*game.NPC) []protocol.NPCRecord {
	out := make([]protocol.NPCRecord, 0, len(m))
	for _, n := range m {
		out = append(out, npcRecord(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Room) projectileRecords() []protocol.ProjectileRecord {
	out := make([]protocol.ProjectileRecord, 0, len(r.projectiles))
	for _, p := range r.projectiles {
		out = append(out, projectileRecord(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func powerupRecord(pu *game.Powerup) protocol.PowerupRecord {
	return protocol.PowerupRecord{ID: pu.ID, X: pu.X, Y: pu.Y, Type: string(pu.Type)}
}

func npcRecord(n *game.NPC) protocol.NPCRecord {
	return protocol.NPCRecord{
		ID:        n.ID,
		Rarity:    string(n.Slot.Rarity),
		Label:     n.Slot.Label,
		Slot:      n.Slot.Index,
		X:         n.X,
		Y:         n.Y,
		Angle:     n.Angle,
		Health:    n.Health,
		MaxHealth: n.MaxHealth,
		Radius:    n.Stats.Radius,
	}
}

func projectileRecord(p *game.Projectile) protocol.ProjectileRecord {
	return protocol.ProjectileRecord{ID: p.ID, OwnerID: p.OwnerID, Kind: p.Kind, X: p.X, Y: p.Y, VX: p.VX, VY: p.VY}
}

func entityUpdate(n *game.NPC) protocol.EntityUpdate {
	return protocol.EntityUpdate{ID: n.ID, X: n.X, Y: n.Y, Angle: n.Angle, Health: n.Health}
}
