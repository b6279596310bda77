package server

import (
	"bufio"
	"time"

	"github.com/google/uuid"
	"github.com/life-stream-dev/battleships-server/internal/connection"
	"github.com/life-stream-dev/battleships-server/internal/database"
	"github.com/life-stream-dev/battleships-server/internal/game"
	"github.com/life-stream-dev/battleships-server/internal/logger"
	"github.com/life-stream-dev/battleships-server/internal/protocol"
	"github.com/life-stream-dev/battleships-server/internal/render"
)

const archiveTimeout = 5 * time.Second

// ConnectionHandler is the protocol endpoint of one client. It owns the
// read side of the socket; everything it sends goes through the
// connection's outbound queue.
type ConnectionHandler struct {
	server   *Server
	conn     *connection.Connection
	connId   string
	player   *game.Player
	failures int
}

func (c *ConnectionHandler) handleConnection() {
	s := c.server
	c.player = game.NewPlayer(uuid.NewString(), c.conn)
	s.connections.Add(c.player.ID, c.conn)

	defer func() {
		c.leave()
		s.registry.Forget(c.player.ID)
		s.connections.Remove(c.player.ID)
		c.conn.Close()
	}()

	if s.closing.Load() {
		_ = c.conn.Send(protocol.Info(protocol.InfoServerShutdown))
		return
	}

	pairing, err := s.registry.Connect(c.player)
	if err != nil {
		logger.ErrorF("[%s] Fail to register player %s, details: %v", c.connId, c.player.ID, err)
		_ = c.conn.Send(protocol.Info(err.Error()))
		return
	}
	if pairing.Queued {
		logger.InfoF("[%s] Player %s waiting for an opponent", c.connId, c.player.ID)
		_ = c.player.Send(protocol.Wait(c.player.ID))
	} else {
		logger.InfoF("[%s] Player %s paired with %s in session %s", c.connId, c.player.ID, pairing.Peer.ID, pairing.Session.ID())
		c.announceSession(pairing.Session)
	}

	c.handleLines()
}

func (c *ConnectionHandler) handleLines() {
	s := c.server
	scanner := bufio.NewScanner(c.conn.Conn)
	for scanner.Scan() {
		if s.registry.Terminated(c.player.ID) {
			logger.DebugF("[%s] Session of %s already terminated, dropping input", c.connId, c.player.ID)
			return
		}

		line := scanner.Text()
		cmd := protocol.ParseCommand(line)
		logger.DebugF("[%s] Receive %s command, data %q", c.connId, cmd.Kind, line)

		switch cmd.Kind {
		case protocol.CommandPing:
			continue
		case protocol.CommandQuit:
			logger.InfoF("[%s] Client disconnect", c.connId)
			return
		case protocol.CommandStart:
			if !c.acknowledge() {
				return
			}
			if cmd.HasMove() && !c.handleMove(cmd.Coordinate) {
				return
			}
		default:
			if !c.handleMove(cmd.Coordinate) {
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		connection.HandleReadError(c.connId, err)
	} else {
		logger.InfoF("[%s] Client close connection", c.connId)
	}
}

// announceSession sends the start notification, both boards and the UI
// lines to each player. A player whose start line was queued counts as
// having acknowledged.
func (c *ConnectionHandler) announceSession(session *game.Session) {
	for _, p := range session.Players() {
		if err := p.Send(protocol.Start(session.ID(), p.ID)); err != nil {
			logger.WarnF("[%s] Fail to notify %s of session %s, details: %v", c.connId, p.ID, session.ID(), err)
			continue
		}
		c.sendBoards(session, p)
		if justStarted, _ := c.server.registry.MarkReady(p.ID); justStarted {
			announceTurn(session)
		}
	}
}

// acknowledge handles the explicit start command.
func (c *ConnectionHandler) acknowledge() bool {
	justStarted, ok := c.server.registry.MarkReady(c.player.ID)
	if !ok {
		return c.reject(game.ReasonInvalidSession)
	}
	if justStarted {
		if session, found := c.server.registry.Resolve(c.player.ID); found {
			announceTurn(session)
		}
	}
	return true
}

// handleMove runs one shot through the session. It returns false when the
// connection must stop reading.
func (c *ConnectionHandler) handleMove(raw string) bool {
	s := c.server
	session, ok := s.registry.Resolve(c.player.ID)
	if !ok || !s.registry.Started(session.ID()) {
		return c.reject(game.ReasonInvalidSession)
	}

	move, err := session.ApplyMove(c.player.ID, raw)
	if err != nil {
		if reason, isReject := game.IsReject(err); isReject {
			return c.reject(reason)
		}
		logger.ErrorF("[%s] Unexpected move failure in session %s, details: %v", c.connId, session.ID(), err)
		return c.reject(err.Error())
	}
	c.failures = 0
	logger.DebugF("[%s] Session %s: %s fired at %s, %s", c.connId, session.ID(), move.Attacker, move.Coordinate, move.Result)

	attacker, _ := session.Player(move.Attacker)
	defender, _ := session.Player(move.Defender)
	shot := protocol.Shot(move.Result, move.Coordinate)
	_ = attacker.Send(shot)
	_ = defender.Send(shot)

	if move.Finished() {
		_ = attacker.Send(protocol.Result(true))
		_ = defender.Send(protocol.Result(false))
		logger.InfoF("[%s] Session %s finished after %d moves, winner %s", c.connId, session.ID(), session.Moves(), move.Attacker)
		c.endSession(session, database.ReasonFinished, "")
		return false
	}

	if own, ok := session.OwnBoard(defender.ID); ok {
		_ = defender.Send(protocol.OwnBoard(own))
	}
	if masked, ok := session.OpponentBoard(attacker.ID); ok {
		_ = attacker.Send(protocol.OpponentBoard(masked))
	}
	sendUI(session, attacker)
	sendUI(session, defender)
	announceTurn(session)
	return true
}

// reject reports a refused action to this client only and counts it
// against the failure limit.
func (c *ConnectionHandler) reject(reason string) bool {
	_ = c.player.Send(protocol.Info(reason))
	c.failures++
	logger.DebugF("[%s] Rejected (%d/%d): %s", c.connId, c.failures, c.server.opts.FailureLimit, reason)
	if c.failures < c.server.opts.FailureLimit {
		return true
	}

	logger.ErrorF("[%s] Player %s reached %d consecutive failures, terminating its session", c.connId, c.player.ID, c.failures)
	if session, ok := c.server.registry.Resolve(c.player.ID); ok {
		c.endSession(session, database.ReasonProtocolError, protocol.Info(protocol.InfoProtocolFailed))
	} else {
		_ = c.player.Send(protocol.Info(protocol.InfoProtocolFailed))
	}
	return false
}

// endSession tears the session down once, optionally notifies both players,
// archives it and closes the other player's connection. This connection is
// closed by handleConnection.
func (c *ConnectionHandler) endSession(session *game.Session, reason, notice string) {
	s := c.server
	if !s.registry.Teardown(session) {
		return
	}
	for _, p := range session.Players() {
		if notice != "" {
			_ = p.Send(notice)
		}
	}
	s.archiveSession(database.NewGameRecord(session, reason))
	if peer, ok := session.Opponent(c.player.ID); ok {
		c.closePeer(peer.ID)
	}
}

// leave runs when the connection goes away for any reason.
func (c *ConnectionHandler) leave() {
	s := c.server
	session, toreDown := s.registry.Leave(c.player.ID)
	if !toreDown {
		return
	}
	reason := database.ReasonDisconnect
	if s.closing.Load() {
		reason = database.ReasonShutdown
	}
	logger.InfoF("[%s] Player %s left session %s", c.connId, c.player.ID, session.ID())
	peer, ok := session.Opponent(c.player.ID)
	if ok {
		_ = peer.Send(protocol.Info(protocol.InfoOpponentLeft))
	}
	s.archiveSession(database.NewGameRecord(session, reason))
	if ok {
		c.closePeer(peer.ID)
	}
}

func (c *ConnectionHandler) closePeer(peerID string) {
	if peerConn, ok := c.server.connections.Get(peerID); ok {
		peerConn.Close()
	}
}

func (c *ConnectionHandler) sendBoards(session *game.Session, p *game.Player) {
	if own, ok := session.OwnBoard(p.ID); ok {
		_ = p.Send(protocol.OwnBoard(own))
	}
	if masked, ok := session.OpponentBoard(p.ID); ok {
		_ = p.Send(protocol.OpponentBoard(masked))
	}
	sendUI(session, p)
}

func sendUI(session *game.Session, p *game.Player) {
	own, ok := session.OwnBoard(p.ID)
	if !ok {
		return
	}
	masked, _ := session.OpponentBoard(p.ID)
	for _, line := range render.SideBySide(own, masked, session.Rows(), session.Cols()) {
		_ = p.Send(protocol.UI(line))
	}
}

func announceTurn(session *game.Session) {
	owner := session.TurnOwner()
	for _, p := range session.Players() {
		_ = p.Send(protocol.Turn(owner))
		_ = p.Send(protocol.Status(p.ID == owner))
	}
}
