// Package game implements the two-player session and its turn engine.
package game

// Outbox delivers protocol lines to a player's connection.
type Outbox interface {
	Send(line string) error
}

// Player is a connected participant: an opaque identity plus the channel
// used to reach it.
type Player struct {
	ID     string
	outbox Outbox
}

func NewPlayer(id string, outbox Outbox) *Player {
	return &Player{ID: id, outbox: outbox}
}

// Send queues a line for the player. Players without an outbox silently
// drop everything.
func (p *Player) Send(line string) error {
	if p == nil || p.outbox == nil {
		return nil
	}
	return p.outbox.Send(line)
}

func (p *Player) String() string {
	return "Player{" + p.ID + "}"
}
