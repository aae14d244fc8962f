package server

import "github.com/RedaDarwiche/skyfight-server/protocol"

// 投递到 Room 收件箱的命令
// 仅 Room 协程读取，每条命令执行完毕后才处理下一条或下一次 Tick

// connectCmd 登记一个存活的连接
type connectCmd struct {
	conn Conn
}

// inboundCmd 已解码并校验的客户端消息
type inboundCmd struct {
	connID string
	msg    protocol.Inbound
}

// rejectCmd 解码或校验失败的帧
type rejectCmd struct {
	connID  string
	msgType string
	err     error
}

// leaveCmd 连接关闭时发出
type leaveCmd struct {
	connID string
}

type statsCmd struct {
	reply chan Stats
}

type tuningCmd struct {
	update *TuningUpdate
	reply  chan tuningResult
}

type tuningResult struct {
	tuning Tuning
	err    error
}
