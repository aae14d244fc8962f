package server

import "errors"

// 处理结果分类：处理函数用 %w 包装其一，分发方用 errors.Is 归类后记日志与指标
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateSession     = errors.New("duplicate session")
	ErrUnauthorizedCommand  = errors.New("unauthorized command")
	ErrEntityNotFound       = errors.New("entity not found")
	ErrInternalHandlerFault = errors.New("internal handler fault")

	ErrRoomClosed = errors.New("room closed")
)
