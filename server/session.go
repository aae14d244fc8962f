package server

// SessionRegistry 将外部身份绑定到当前唯一使用该身份的连接
type SessionRegistry struct {
	byIdentity map[string]string // 身份 -> 连接 id
	byConn     map[string]string // 连接 id -> 身份
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byIdentity: make(map[string]string),
		byConn:     make(map[string]string),
	}
}

func (s *SessionRegistry) Lookup(identity string) (string, bool) {
	id, ok := s.byIdentity[identity]
	return id, ok
}

// Bind 绑定 identity 与 connID，并解除两侧已有的旧绑定
func (s *SessionRegistry) Bind(identity, connID string) {
	if prev, ok := s.byIdentity[identity]; ok {
		delete(s.byConn, prev)
	}
	if prevIdentity, ok := s.byConn[connID]; ok {
		delete(s.byIdentity, prevIdentity)
	}
	s.byIdentity[identity] = connID
	s.byConn[connID] = identity
}

// Release 解除 connID 持有的绑定（如有）
func (s *SessionRegistry) Release(connID string) {
	identity, ok := s.byConn[connID]
	if !ok {
		return
	}
	delete(s.byConn, connID)
	if s.byIdentity[identity] == connID {
		delete(s.byIdentity, identity)
	}
}

// Sweep 回收连接已失效的绑定，返回被回收的身份
func (s *SessionRegistry) Sweep(live func(connID string) bool) []string {
	var stale []string
	for identity, connID := range s.byIdentity {
		if !live(connID) {
			stale = append(stale, identity)
		}
	}
	for _, identity := range stale {
		connID := s.byIdentity[identity]
		delete(s.byIdentity, identity)
		delete(s.byConn, connID)
	}
	return stale
}

func (s *SessionRegistry) Len() int { return len(s.byIdentity) }
