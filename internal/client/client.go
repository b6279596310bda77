// Package client is the terminal side of the battleships protocol.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/life-stream-dev/battleships-server/internal/connection"
	"github.com/life-stream-dev/battleships-server/internal/logger"
	"github.com/life-stream-dev/battleships-server/internal/protocol"
	"github.com/life-stream-dev/battleships-server/internal/render"
)

var ErrNotConnected = errors.New("client is not connected")

type Client struct {
	Name string
	Host string
	Port int

	conn    net.Conn
	display io.Writer
	writeMu sync.Mutex
}

func New(host string, port int, display io.Writer) *Client {
	return &Client{
		Name:    "Client-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Host:    host,
		Port:    port,
		display: display,
	}
}

func (c *Client) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConnectWithRetries dials the server up to retries times, sleeping delay
// between attempts.
func (c *Client) ConnectWithRetries(ctx context.Context, retries int, delay time.Duration) error {
	if retries < 1 {
		retries = 1
	}
	var dialer net.Dialer
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", c.Addr())
		if err == nil {
			c.conn = conn
			logger.InfoF("%s connected to %s", c.Name, c.Addr())
			return nil
		}
		lastErr = err
		logger.WarnF("%s: connection attempt %d/%d to %s failed: %v", c.Name, attempt, retries, c.Addr(), err)
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("unable to connect after %d attempts: %w", retries, lastErr)
}

// Run forwards lines from in to the server and prints server events until
// the server closes the connection, the user quits or ctx is cancelled.
func (c *Client) Run(ctx context.Context, in io.Reader) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	received := make(chan error, 1)
	go func() { received <- c.receive() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case err := <-received:
			return err
		case <-ctx.Done():
			_ = c.Send(protocol.CommandQuitKeyword)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				line = protocol.CommandQuitKeyword
			}
			line = strings.TrimSpace(line)
			if err := c.Send(line); err != nil {
				return err
			}
			if protocol.ParseCommand(line).Kind == protocol.CommandQuit {
				select {
				case err := <-received:
					return err
				case <-time.After(2 * time.Second):
					return nil
				}
			}
		}
	}
}

func (c *Client) Send(line string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write([]byte(line + "\n"))
	return err
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) receive() error {
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		c.show(protocol.ParseEvent(scanner.Text()))
	}
	if err := scanner.Err(); err != nil && !connection.IsNetClosedError(err) {
		return fmt.Errorf("read from server: %w", err)
	}
	fmt.Fprintln(c.display, "Połączenie zakończone.")
	return nil
}

func (c *Client) show(e protocol.Event) {
	var text string
	switch e.Name {
	case protocol.EventWait:
		text = "Oczekiwanie na przeciwnika..."
	case protocol.EventStart:
		text = fmt.Sprintf("Gra rozpoczęta (sesja %s)", e.Field(0))
	case protocol.EventOwnBoard, protocol.EventOpponentBoard, protocol.EventTurn:
		return
	case protocol.EventUI:
		text = render.Colorize(e.Payload())
	case protocol.EventStatus:
		if e.Field(0) == protocol.StatusYourTurn {
			text = color.GreenString("Twoja tura, podaj współrzędne (np. A1):")
		} else {
			text = "Ruch przeciwnika..."
		}
	case protocol.EventInfo:
		text = color.YellowString("Info: %s", e.Payload())
	case protocol.EventHit:
		text = color.RedString("Trafiony: %s", e.Field(0))
	case protocol.EventMiss:
		text = color.BlueString("Pudło: %s", e.Field(0))
	case protocol.EventLastSunk:
		text = color.RedString("Ostatni statek zatopiony!")
	case protocol.EventResult:
		if e.Field(0) == protocol.ResultWin {
			text = color.GreenString("Wygrana!")
		} else {
			text = color.RedString("Przegrana.")
		}
	default:
		text = strings.Join(append([]string{e.Name}, e.Fields...), protocol.Separator)
	}
	fmt.Fprintln(c.display, text)
}
