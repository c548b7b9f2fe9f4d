package event

import (
	"go.uber.org/zap"
	"sync"
)

const listenerBuffer = 256

type Listener struct {
	eventType Type
	channel   chan interface{}
}

// Manager fans events out to listeners. Each listener consumes its own channel
// on its own goroutine, so a listener sees events in emission order.
type Manager struct {
	mu        sync.RWMutex
	listeners []*Listener
}

func NewManager() *Manager {
	return &Manager{listeners: make([]*Listener, 0)}
}

func (m *Manager) AddEventListener(eventType Type, callback func(msg interface{})) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	listener := Listener{
		eventType: eventType,
		channel:   make(chan interface{}, listenerBuffer),
	}

	m.mu.Lock()
	m.listeners = append(m.listeners, &listener)
	m.mu.Unlock()

	go func() {
		for msg := range listener.channel {
			callback(msg)
		}
	}()
}

func (m *Manager) EmitEvent(eventType Type, msg interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}
	for _, listener := range m.listeners {
		if listener.eventType == eventType {
			zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: Emitting event")
			listener.channel <- msg
		}
	}
}

// Close stops every listener goroutine. Emitting after Close is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, listener := range m.listeners {
		close(listener.channel)
	}
	m.listeners = nil
}
