package socketio

import "sync"

// PresenceTracker is the ephemeral user -> connection map. It is rebuilt
// from zero on restart; losing it loses nothing durable. Sockets register and
// drop from concurrent connection handlers, so every access goes through the
// mutex.
type PresenceTracker struct {
	mu      sync.RWMutex
	sockets map[string]map[string]struct{}
	owner   map[string]string
}

var Presence = NewPresenceTracker()

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		sockets: make(map[string]map[string]struct{}),
		owner:   make(map[string]string),
	}
}

// Register binds a socket to a user. A user may hold several sockets at once.
func (p *PresenceTracker) Register(userId string, socketId string) {
	if userId == "" || socketId == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if previous, ok := p.owner[socketId]; ok && previous != userId {
		p.dropLocked(previous, socketId)
	}

	if p.sockets[userId] == nil {
		p.sockets[userId] = make(map[string]struct{})
	}
	p.sockets[userId][socketId] = struct{}{}
	p.owner[socketId] = userId
}

// Drop removes a socket on disconnect. It reports which user owned the
// socket and whether that user went offline with it.
func (p *PresenceTracker) Drop(socketId string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userId, ok := p.owner[socketId]
	if !ok {
		return "", false
	}

	p.dropLocked(userId, socketId)
	_, stillOnline := p.sockets[userId]
	return userId, !stillOnline
}

func (p *PresenceTracker) dropLocked(userId string, socketId string) {
	delete(p.owner, socketId)
	if sockets, ok := p.sockets[userId]; ok {
		delete(sockets, socketId)
		if len(sockets) == 0 {
			delete(p.sockets, userId)
		}
	}
}

func (p *PresenceTracker) IsOnline(userId string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.sockets[userId]
	return ok
}

// Online returns the ids of every user with at least one active socket.
func (p *PresenceTracker) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	online := make([]string, 0, len(p.sockets))
	for userId := range p.sockets {
		online = append(online, userId)
	}
	return online
}
