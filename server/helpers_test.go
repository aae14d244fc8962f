package server

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/RedaDarwiche/skyfight-server/game"
	"github.com/RedaDarwiche/skyfight-server/protocol"
)

type fakeConn struct {
	id    string
	codec protocol.Codec

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, codec: protocol.JSON}
}

func (f *fakeConn) ID() string            { return f.id }
func (f *fakeConn) Codec() protocol.Codec { return f.codec }

func (f *fakeConn) Enqueue(b []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	f.frames = append(f.frames, cp)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// received 按顺序返回类型为 msgType 的消息
func (f *fakeConn) received(t *testing.T, msgType string) []protocol.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Envelope
	for _, b := range f.frames {
		env, err := f.codec.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("conn %s: bad frame %q: %v", f.id, b, err)
		}
		if env.T == msgType {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeConn) types(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, b := range f.frames {
		env, err := f.codec.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("conn %s: bad frame: %v", f.id, err)
		}
		out = append(out, env.T)
	}
	return out
}

func payload[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	v, err := protocol.DecodePayload[T](protocol.JSON, env)
	if err != nil {
		t.Fatalf("decode %s: %v", env.T, err)
	}
	return v
}

// only 断言恰好收到一条 msgType 消息并解码
func only[T any](t *testing.T, c *fakeConn, msgType string) T {
	t.Helper()
	envs := c.received(t, msgType)
	if len(envs) != 1 {
		t.Fatalf("conn %s got %d %s messages, want 1", c.id, len(envs), msgType)
	}
	return payload[T](t, envs[0])
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	room    *Room
	clock   *fakeClock
	logs    *observer.ObservedLogs
	metrics *Metrics
}

// newHarness 创建房间，默认无 NPC 与道具，可由 mutate 调整
func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Population = nil
	cfg.PowerupFloor = 0
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	seq := 0
	metrics := NewMetrics()
	r := NewRoom(Options{
		Config:  cfg,
		Logger:  zap.New(core).Sugar(),
		Metrics: metrics,
		Now:     clock.Now,
		Rand:    rand.New(rand.NewSource(1)),
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	})
	return &harness{room: r, clock: clock, logs: logs, metrics: metrics}
}

func (h *harness) connect(id string) *fakeConn {
	c := newFakeConn(id)
	h.room.handle(connectCmd{conn: c})
	return c
}

func (h *harness) send(connID string, msg protocol.Inbound) {
	h.room.handle(inboundCmd{connID: connID, msg: msg})
}

// join 连接并加入玩家，放置在 (x, y)
func (h *harness) join(t *testing.T, id, name string, x, y float64) (*fakeConn, *Player) {
	t.Helper()
	c := h.connect(id)
	h.send(id, protocol.Join{Identity: "identity-" + id, Name: name})
	p, ok := h.room.players[id]
	if !ok {
		t.Fatalf("player %s did not join", id)
	}
	p.X, p.Y = x, y
	return c, p
}

func (h *harness) step(d time.Duration) {
	h.clock.Advance(d)
	h.room.step(h.clock.Now())
}

func (h *harness) firstNPC(t *testing.T, boss bool) *game.NPC {
	t.Helper()
	for _, n := range h.room.registry(boss) {
		return n
	}
	t.Fatalf("no entity in registry (boss=%v)", boss)
	return nil
}

func fptr(v float64) *float64 { return &v }
