package connection

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/life-stream-dev/battleships-server/internal/logger"
)

// Manager tracks live connections by id.
type Manager struct {
	connections sync.Map
	count       atomic.Int64
}

func NewManager() *Manager {
	return &Manager{}
}

func (cm *Manager) Add(id string, conn *Connection) {
	if _, loaded := cm.connections.LoadOrStore(id, conn); !loaded {
		cm.count.Add(1)
	}
	logger.DebugF("[%s] Client %s connected", conn.ConnID, id)
}

func (cm *Manager) Remove(id string) {
	if _, loaded := cm.connections.LoadAndDelete(id); loaded {
		cm.count.Add(-1)
		logger.DebugF("Client %s disconnected", id)
	}
}

func (cm *Manager) Get(id string) (*Connection, bool) {
	if value, ok := cm.connections.Load(id); ok {
		return value.(*Connection), true
	}
	return nil, false
}

func (cm *Manager) Count() int {
	return int(cm.count.Load())
}

// SendTo queues a line for one client.
func (cm *Manager) SendTo(id, line string) error {
	conn, ok := cm.Get(id)
	if !ok {
		return ErrClosed
	}
	return conn.Send(line)
}

// CloseAll sends line to every client (when non-empty) and closes them.
func (cm *Manager) CloseAll(line string) {
	var wg sync.WaitGroup
	cm.connections.Range(func(key, value any) bool {
		conn := value.(*Connection)
		if line != "" {
			_ = conn.Send(line)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn.Close()
		}()
		return true
	})
	wg.Wait()
}

func IsNetClosedError(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	ok := errors.As(err, &opErr)
	return ok && opErr.Timeout()
}

func HandleReadError(connID string, err error) {
	switch {
	case errors.Is(err, io.EOF):
		logger.InfoF("[%s] Client close connection", connID)
	case os.IsTimeout(err):
		logger.WarnF("[%s] Reading timeout", connID)
	case IsNetClosedError(err):
		logger.DebugF("[%s] Connection closed locally", connID)
	default:
		logger.ErrorF("[%s] Error occured while reading line, details: %v", connID, err)
	}
}
