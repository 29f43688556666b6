package crew

import (
	"time"

	"github.com/OCAP2/navalsim/pkg/core"
)

// Scope is the visibility scope of a channel.
type Scope string

const (
	ScopeBridge   Scope = "bridge"
	ScopeDivision Scope = "division"
	ScopeGlobal   Scope = "global"
)

// SystemSender marks messages appended by the simulation itself.
const SystemSender = "system"

// Message is an immutable channel entry.
type Message struct {
	Seq      uint64        `json:"seq"`
	Tick     uint64        `json:"tick"`
	GameTime time.Duration `json:"game_time"`
	From     string        `json:"from"`
	Role     core.Role     `json:"role,omitempty"`
	Text     string        `json:"text"`
}

// window is a half-open membership interval [from, to) over sequence
// numbers. to == 0 means still a member.
type window struct {
	from uint64
	to   uint64
}

func (w window) contains(seq uint64) bool {
	return seq >= w.from && (w.to == 0 || seq < w.to)
}

// Channel is an append-only message log with dynamic membership. A message
// is visible to a member only if it was appended while they were a member.
type Channel struct {
	name     string
	scope    Scope
	messages []Message
	windows  map[string][]window
}

// NewChannel creates an empty channel.
func NewChannel(name string, scope Scope) *Channel {
	return &Channel{
		name:    name,
		scope:   scope,
		windows: make(map[string][]window),
	}
}

func (c *Channel) Name() string { return c.name }
func (c *Channel) Scope() Scope { return c.scope }
func (c *Channel) Len() int     { return len(c.messages) }

func (c *Channel) nextSeq() uint64 { return uint64(len(c.messages)) + 1 }

// Append adds a message, assigning its sequence number.
func (c *Channel) Append(m Message) Message {
	m.Seq = c.nextSeq()
	c.messages = append(c.messages, m)
	return m
}

// Join opens a membership window starting at the next message. Joining
// twice is a no-op.
func (c *Channel) Join(id string) {
	if c.IsMember(id) {
		return
	}
	c.windows[id] = append(c.windows[id], window{from: c.nextSeq()})
}

// Leave closes the open membership window, if any.
func (c *Channel) Leave(id string) {
	ws := c.windows[id]
	if len(ws) == 0 || ws[len(ws)-1].to != 0 {
		return
	}
	ws[len(ws)-1].to = c.nextSeq()
}

// IsMember reports whether id currently has an open window.
func (c *Channel) IsMember(id string) bool {
	ws := c.windows[id]
	return len(ws) > 0 && ws[len(ws)-1].to == 0
}

// JoinedAt returns the first sequence number of the open window.
func (c *Channel) JoinedAt(id string) (uint64, bool) {
	if !c.IsMember(id) {
		return 0, false
	}
	ws := c.windows[id]
	return ws[len(ws)-1].from, true
}

// VisibleTo returns the messages appended while id was a member.
func (c *Channel) VisibleTo(id string) []Message {
	return c.VisibleSince(id, 0)
}

// VisibleSince is VisibleTo restricted to sequence numbers >= from.
func (c *Channel) VisibleSince(id string, from uint64) []Message {
	ws := c.windows[id]
	if len(ws) == 0 {
		return nil
	}
	var out []Message
	for _, m := range c.messages {
		if m.Seq < from {
			continue
		}
		for _, w := range ws {
			if w.contains(m.Seq) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Messages returns a copy of the full log.
func (c *Channel) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}
