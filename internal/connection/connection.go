// Package connection wraps client sockets with a bounded outbound queue
// drained by one writer goroutine per connection.
package connection

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/life-stream-dev/battleships-server/internal/logger"
)

var (
	ErrClosed    = errors.New("connection is closed")
	ErrQueueFull = errors.New("outbound queue is full")
)

const DefaultWriteTimeout = 10 * time.Second

// Connection is one client socket. Send never blocks; lines are written in
// order by the writer goroutine.
type Connection struct {
	Conn   net.Conn
	ConnID string

	out          chan string
	closing      chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
}

func NewConnection(conn net.Conn, queueSize int) *Connection {
	return newConnection(conn, queueSize, DefaultWriteTimeout)
}

func newConnection(conn net.Conn, queueSize int, writeTimeout time.Duration) *Connection {
	if queueSize < 1 {
		queueSize = 1
	}
	c := &Connection{
		Conn:         conn,
		ConnID:       conn.RemoteAddr().String(),
		out:          make(chan string, queueSize),
		closing:      make(chan struct{}),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	go c.writeLoop()
	return c
}

// Send queues one line; the newline is appended by the writer.
func (c *Connection) Send(line string) error {
	select {
	case <-c.closing:
		return ErrClosed
	default:
	}
	select {
	case c.out <- line:
		return nil
	case <-c.closing:
		return ErrClosed
	default:
		logger.WarnF("[%s] Outbound queue full, dropping %q", c.ConnID, line)
		return ErrQueueFull
	}
}

// Close flushes queued lines and closes the socket. Safe to call many times
// and from any goroutine.
func (c *Connection) Close() {
	c.signalClose()
	<-c.done
}

// Done is closed once the socket is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) signalClose() {
	c.closeOnce.Do(func() {
		close(c.closing)
	})
}

func (c *Connection) writeLoop() {
	defer close(c.done)
	defer func() {
		logger.DebugF("[%s] Connection closed", c.ConnID)
		if err := c.Conn.Close(); err != nil && !IsNetClosedError(err) {
			logger.WarnF("[%s] Error occured while closing connection, details: %v", c.ConnID, err)
		}
	}()

	for {
		select {
		case line := <-c.out:
			if err := c.write(line); err != nil {
				c.signalClose()
				return
			}
		case <-c.closing:
			for {
				select {
				case line := <-c.out:
					if err := c.write(line); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (c *Connection) write(line string) error {
	data := []byte(line + "\n")
	_ = c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	total := 0
	for total < len(data) {
		n, err := c.Conn.Write(data[total:])
		if err != nil {
			if !IsNetClosedError(err) {
				logger.ErrorF("[%s] Fail to send data, details: %v", c.ConnID, err)
			}
			return err
		}
		total += n
	}
	logger.DebugF("[%s] Send %d bytes to client, data %q", c.ConnID, total, line)
	return nil
}
