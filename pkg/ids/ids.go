// Package ids provides the statically-distinguishable 128-bit identifiers
// used throughout the memory graph: one named type per entity kind so a
// NodeID can never be passed where an EdgeID is expected, even though both
// are backed by the same 16-byte representation.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionID identifies a Session.
type SessionID uuid.UUID

// NodeID identifies any node (Prompt, Response, ToolInvocation, Template,
// Agent). Node kind is carried separately by the node's Type tag, not by
// the ID itself.
type NodeID uuid.UUID

// EdgeID identifies an Edge.
type EdgeID uuid.UUID

// TemplateID identifies a Template node specifically, for APIs that only
// make sense against templates (e.g. instantiation).
type TemplateID uuid.UUID

// AgentID identifies an Agent node specifically, for APIs that only make
// sense against agents (e.g. assignment).
type AgentID uuid.UUID

// Zero values used to detect an unset identifier.
var (
	ZeroSessionID  SessionID
	ZeroNodeID     NodeID
	ZeroEdgeID     EdgeID
	ZeroTemplateID TemplateID
	ZeroAgentID    AgentID
)

// NewSessionID generates a fresh random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewNodeID generates a fresh random NodeID.
func NewNodeID() NodeID { return NodeID(uuid.New()) }

// NewEdgeID generates a fresh random EdgeID.
func NewEdgeID() EdgeID { return EdgeID(uuid.New()) }

// NewTemplateID generates a fresh random TemplateID.
func NewTemplateID() TemplateID { return TemplateID(uuid.New()) }

// NewAgentID generates a fresh random AgentID.
func NewAgentID() AgentID { return AgentID(uuid.New()) }

func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id NodeID) String() string     { return uuid.UUID(id).String() }
func (id EdgeID) String() string     { return uuid.UUID(id).String() }
func (id TemplateID) String() string { return uuid.UUID(id).String() }
func (id AgentID) String() string    { return uuid.UUID(id).String() }

// IsZero reports whether the identifier was never assigned.
func (id SessionID) IsZero() bool { return id == ZeroSessionID }
func (id NodeID) IsZero() bool    { return id == ZeroNodeID }
func (id EdgeID) IsZero() bool    { return id == ZeroEdgeID }

// Bytes returns the 16-byte big-endian representation used as the key (or
// key component) in the storage layer's trees.
func (id SessionID) Bytes() []byte  { b := uuid.UUID(id); return b[:] }
func (id NodeID) Bytes() []byte     { b := uuid.UUID(id); return b[:] }
func (id EdgeID) Bytes() []byte     { b := uuid.UUID(id); return b[:] }
func (id TemplateID) Bytes() []byte { b := uuid.UUID(id); return b[:] }
func (id AgentID) Bytes() []byte    { b := uuid.UUID(id); return b[:] }

// NodeID promotes a TemplateID/AgentID to the generic NodeID used by the
// storage and engine layers, since Template and Agent are both Node
// variants in the tagged-union sense.
func (id TemplateID) NodeID() NodeID { return NodeID(id) }
func (id AgentID) NodeID() NodeID    { return NodeID(id) }

// SessionAsNode reinterprets a SessionID as a NodeID so a PartOf edge,
// whose From/To fields are both NodeID, can target a session. Sessions
// are not addressable through the node-keyed trees (they have their own
// tree), so this conversion only ever appears on the "to" side of a
// PartOf edge, never as a lookup key into the nodes tree.
func SessionAsNode(s SessionID) NodeID { return NodeID(s) }

// ParseNodeID parses a canonical UUID string into a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroNodeID, fmt.Errorf("ids: parse node id %q: %w", s, err)
	}
	return NodeID(u), nil
}

// ParseSessionID parses a canonical UUID string into a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroSessionID, fmt.Errorf("ids: parse session id %q: %w", s, err)
	}
	return SessionID(u), nil
}

// ParseEdgeID parses a canonical UUID string into an EdgeID.
func ParseEdgeID(s string) (EdgeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroEdgeID, fmt.Errorf("ids: parse edge id %q: %w", s, err)
	}
	return EdgeID(u), nil
}

// NodeIDFromBytes reconstructs a NodeID from a 16-byte slice, as read back
// out of a storage key.
func NodeIDFromBytes(b []byte) (NodeID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return ZeroNodeID, err
	}
	return NodeID(u), nil
}

// EdgeIDFromBytes reconstructs an EdgeID from a 16-byte slice.
func EdgeIDFromBytes(b []byte) (EdgeID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return ZeroEdgeID, err
	}
	return EdgeID(u), nil
}

// SessionIDFromBytes reconstructs a SessionID from a 16-byte slice.
func SessionIDFromBytes(b []byte) (SessionID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return ZeroSessionID, err
	}
	return SessionID(u), nil
}

// MarshalText/UnmarshalText make every ID type serialize as its canonical
// UUID string in JSON.

func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id NodeID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id EdgeID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id TemplateID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AgentID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *SessionID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = SessionID(u)
	return nil
}

func (id *NodeID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = NodeID(u)
	return nil
}

func (id *EdgeID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = EdgeID(u)
	return nil
}

func (id *TemplateID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = TemplateID(u)
	return nil
}

func (id *AgentID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = AgentID(u)
	return nil
}
