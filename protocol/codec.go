package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Envelope 已解码的帧，payload 仍为编码形式
type Envelope struct {
	T string
	P []byte
}

// Codec 负责消息与帧之间的编解码
type Codec interface {
	Name() string
	// Binary 是否须以二进制 websocket 消息发送
	Binary() bool
	Encode(t string, payload any) ([]byte, error)
	DecodeEnvelope(b []byte) (Envelope, error)
	Unmarshal(b []byte, v any) error
}

var (
	JSON    Codec = jsonCodec{}
	MsgPack Codec = msgpackCodec{}
)

// CodecByName 按查询参数选择编码，为空时使用 JSON
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "msgpack", "mp":
		return MsgPack, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// DecodePayload 将 payload 解码为 T
func DecodePayload[T any](c Codec, env Envelope) (T, error) {
	var out T
	if emptyPayload(env.P) {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := c.Unmarshal(env.P, &out)
	return out, err
}

func emptyPayload(p []byte) bool {
	if len(p) == 0 {
		return true
	}
	// JSON null 与 msgpack nil (0xc0)
	return bytes.Equal(p, []byte("null")) || (len(p) == 1 && p[0] == 0xc0)
}

type jsonEnvelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errors.New("trying to encode envelope with empty type")
	}
	var pb []byte
	if payload != nil {
		var err error
		if pb, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}
	return json.Marshal(jsonEnvelope{T: t, P: pb})
}

func (jsonCodec) DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, errors.New("empty frame")
	}
	var e jsonEnvelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.T == "" {
		return Envelope{}, errors.New("missing message type")
	}
	return Envelope{T: e.T, P: e.P}, nil
}

func (jsonCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

type msgpackEnvelope struct {
	T string             `msgpack:"t"`
	P msgpack.RawMessage `msgpack:"p,omitempty"`
}

// msgpackCodec 复用 json 结构体标签，消息类型只需一套标签
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }
func (msgpackCodec) Binary() bool { return true }

func (c msgpackCodec) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errors.New("trying to encode envelope with empty type")
	}
	env := msgpackEnvelope{T: t}
	if payload != nil {
		pb, err := c.marshal(payload)
		if err != nil {
			return nil, err
		}
		env.P = pb
	}
	return c.marshal(env)
}

func (msgpackCodec) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c msgpackCodec) DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, errors.New("empty frame")
	}
	var e msgpackEnvelope
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.T == "" {
		return Envelope{}, errors.New("missing message type")
	}
	return Envelope{T: e.T, P: e.P}, nil
}

func (msgpackCodec) Unmarshal(b []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
