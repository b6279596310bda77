package connection

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"
)

func TestSendWritesLinesInOrder(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := NewConnection(server, 8)

	for _, line := range []string{"czekaj;p1", "start;s1;p1", "tura;p1"} {
		if err := conn.Send(line); err != nil {
			t.Fatalf("Send(%q): %v", line, err)
		}
	}

	reader := bufio.NewReader(client)
	for _, want := range []string{"czekaj;p1\n", "start;s1;p1\n", "tura;p1\n"} {
		got, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	go func() {
		_ = conn.Send("wynik;wygrana")
		conn.Close()
	}()
	got, err := reader.ReadString('\n')
	if err != nil || got != "wynik;wygrana\n" {
		t.Fatalf("expected queued line to be flushed before close, got %q err=%v", got, err)
	}
	<-conn.Done()
	if err := conn.Send("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
	conn.Close()
}

func TestSendReportsFullQueue(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := newConnection(server, 1, 50*time.Millisecond)

	var full bool
	for i := 0; i < 10 && !full; i++ {
		if err := conn.Send("pudło;A1"); errors.Is(err, ErrQueueFull) {
			full = true
		}
	}
	if !full {
		t.Fatal("expected ErrQueueFull while nobody reads")
	}
	conn.Close()
}

func TestManager(t *testing.T) {
	m := NewManager()
	var clients []net.Conn
	for _, id := range []string{"a", "b"} {
		server, client := net.Pipe()
		clients = append(clients, client)
		m.Add(id, NewConnection(server, 4))
	}
	if m.Count() != 2 {
		t.Fatalf("expected 2 connections, got %d", m.Count())
	}
	if _, ok := m.Get("a"); !ok {
		t.Fatal("expected a to be registered")
	}
	if err := m.SendTo("missing", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed for unknown client, got %v", err)
	}

	for _, c := range clients {
		go func(c net.Conn) {
			reader := bufio.NewReader(c)
			for {
				if _, err := reader.ReadString('\n'); err != nil {
					return
				}
			}
		}(c)
	}
	m.CloseAll("info;bye")
	for _, id := range []string{"a", "b"} {
		conn, _ := m.Get(id)
		select {
		case <-conn.Done():
		default:
			t.Errorf("%s still open after CloseAll", id)
		}
		m.Remove(id)
	}
	if m.Count() != 0 {
		t.Errorf("expected no connections, got %d", m.Count())
	}
}
