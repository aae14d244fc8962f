package protocol

import (
	"errors"
	"math"
	"testing"
)

func codecs() []Codec { return []Codec{JSON, MsgPack} }

func TestCodecRoundTrip(t *testing.T) {
	for _, c := range codecs() {
		t.Run(c.Name(), func(t *testing.T) {
			in := PlayerMoved{ID: "p1", X: 10.5, Y: 7999, Angle: 1.25}
			b, err := c.Encode(MsgPlayerMoved, in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			env, err := c.DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T != MsgPlayerMoved {
				t.Fatalf("type = %q", env.T)
			}
			out, err := DecodePayload[PlayerMoved](c, env)
			if err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if out != in {
				t.Fatalf("got %+v, want %+v", out, in)
			}
		})
	}
}

func TestDecodeInboundJoin(t *testing.T) {
	for _, c := range codecs() {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := c.Encode(MsgJoin, Join{UserID: "u1", Name: "alice", Email: "a@x.io"})
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			msg, err := DecodeInbound(c, b)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			j, ok := msg.(Join)
			if !ok {
				t.Fatalf("got %T, want Join", msg)
			}
			if j.StableIdentity() != "u1" || j.Name != "alice" || j.Email != "a@x.io" {
				t.Fatalf("unexpected join %+v", j)
			}
		})
	}
}

func TestDecodeInboundOptionalPayload(t *testing.T) {
	for _, c := range codecs() {
		b, err := c.Encode(MsgUsePower, nil)
		if err != nil {
			t.Fatalf("%s encode: %v", c.Name(), err)
		}
		msg, err := DecodeInbound(c, b)
		if err != nil {
			t.Fatalf("%s decode: %v", c.Name(), err)
		}
		if _, ok := msg.(UsePower); !ok {
			t.Fatalf("%s: got %T", c.Name(), msg)
		}
	}
}

func TestDecodeInboundRejects(t *testing.T) {
	neg := -3.0
	cases := []struct {
		name    string
		t       string
		payload any
		raw     []byte
	}{
		{name: "blank name", t: MsgJoin, payload: Join{Name: "   "}},
		{name: "join without payload", t: MsgJoin},
		{name: "move missing y", t: MsgMove, payload: map[string]any{"x": 1}},
		{name: "negative damage", t: MsgPlayerHit, payload: PlayerHit{TargetID: "p2", Damage: &neg}},
		{name: "missing damage", t: MsgNPCHit, payload: map[string]any{"npcId": "n1"}},
		{name: "empty chat", t: MsgChatMessage, payload: ChatMessage{Text: " "}},
		{name: "unknown type", t: "teleport", payload: map[string]any{}},
		{name: "garbage", raw: []byte("{not json")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.raw
			if b == nil {
				var err error
				if b, err = JSON.Encode(tc.t, tc.payload); err != nil {
					t.Fatalf("encode: %v", err)
				}
			}
			_, err := DecodeInbound(JSON, b)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("error %v is not ErrInvalidPayload", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not *DecodeError", err)
			}
			if de.Type != tc.t {
				t.Fatalf("DecodeError.Type = %q, want %q", de.Type, tc.t)
			}
		})
	}
}

func TestMoveValidateNonFinite(t *testing.T) {
	x, y := math.NaN(), 5.0
	if err := (Move{X: &x, Y: &y}).Validate(); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("NaN move accepted: %v", err)
	}
	inf := math.Inf(1)
	if err := (Shoot{X: 1, Y: 1, VX: inf, VY: 0}).Validate(); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("infinite shot accepted: %v", err)
	}
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]string{"": "json", "json": "json", "msgpack": "msgpack", "MP": "msgpack"} {
		c, err := CodecByName(name)
		if err != nil || c.Name() != want {
			t.Fatalf("CodecByName(%q) = %v, %v", name, c, err)
		}
	}
	if _, err := CodecByName("xml"); err == nil {
		t.Fatalf("xml codec accepted")
	}
}

func TestMsgPackUsesJSONFieldNames(t *testing.T) {
	b, err := MsgPack.Encode(MsgGotHit, GotHit{AttackerID: "a", Damage: 5, Health: 95})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := MsgPack.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	m, err := DecodePayload[map[string]any](MsgPack, env)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if m["attackerId"] != "a" {
		t.Fatalf("payload keys %v, want attackerId", m)
	}
}
