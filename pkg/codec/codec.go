// Package codec implements two serialization forms: a compact,
// version-tagged binary form for durable storage, with an explicit
// version prefix and unknown-field preservation so a read-modify-write
// by an older binary never silently drops fields a newer one wrote; and
// a deterministic textual (JSON) form for export/import.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
)

// SchemaVersion is written into every binary-encoded record. Readers that
// see a version they don't understand refuse to decode it.
const SchemaVersion uint16 = 1

// ExportMagic prefixes a binary export stream.
var ExportMagic = [16]byte{'M', 'E', 'M', 'G', 'R', 'A', 'P', 'H', 0, 0, 0, 0, 0, 0, 0, 0}

// ErrUnknownVersion is returned when decoding a record whose version byte
// is newer than SchemaVersion.
type ErrUnknownVersion struct {
	Got, Want uint16
}

func (e *ErrUnknownVersion) Error() string {
	return fmt.Sprintf("codec: unknown schema version %d (reader understands up to %d)", e.Got, e.Want)
}

// envelope is the on-wire shape for every node/edge/session record: a
// version, a type tag (0 for edges/sessions, the NodeType for nodes), the
// JSON-encoded known fields, and any top-level JSON keys the current
// reader's struct doesn't recognize, preserved verbatim so a
// read-modify-write by an older binary doesn't silently drop newer
// fields.
type envelope struct {
	Version uint16                     `json:"v"`
	Type    graph.NodeType             `json:"t,omitempty"`
	Payload json.RawMessage            `json:"p"`
	Extra   map[string]json.RawMessage `json:"x,omitempty"`
}

func encodeEnvelope(tag graph.NodeType, v any, extra map[string]json.RawMessage) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal payload: %w", err)
	}
	env := envelope{Version: SchemaVersion, Type: tag, Payload: payload, Extra: extra}
	return json.Marshal(env)
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("codec: unmarshal envelope: %w", err)
	}
	if env.Version > SchemaVersion {
		return envelope{}, &ErrUnknownVersion{Got: env.Version, Want: SchemaVersion}
	}
	return env, nil
}

// extraFields computes the set of top-level JSON keys present in raw but
// not produced by marshaling known, so they can be round-tripped on the
// next write even though the current struct doesn't model them.
func extraFields(known any, raw json.RawMessage) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	knownBytes, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	var knownKeys map[string]json.RawMessage
	if err := json.Unmarshal(knownBytes, &knownKeys); err != nil {
		return nil, err
	}
	for k := range knownKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// EncodeNode serializes a node variant into its durable binary form.
// extra carries forward any fields a newer schema wrote that this
// binary's struct doesn't know about (nil for a brand-new record).
func EncodeNode(node graph.Node, extra map[string]json.RawMessage) ([]byte, error) {
	return encodeEnvelope(node.Kind(), node, extra)
}

// DecodeNode reconstructs a node variant and any unknown trailing fields
// from its binary form.
func DecodeNode(data []byte) (graph.Node, map[string]json.RawMessage, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, nil, err
	}
	switch env.Type {
	case graph.NodeTypePrompt:
		var p graph.Prompt
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, nil, fmt.Errorf("codec: decode prompt: %w", err)
		}
		extra, err := mergedExtra(&p, env)
		return &p, extra, err
	case graph.NodeTypeResponse:
		var r graph.Response
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return nil, nil, fmt.Errorf("codec: decode response: %w", err)
		}
		extra, err := mergedExtra(&r, env)
		return &r, extra, err
	case graph.NodeTypeToolInvocation:
		var t graph.ToolInvocation
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return nil, nil, fmt.Errorf("codec: decode tool invocation: %w", err)
		}
		extra, err := mergedExtra(&t, env)
		return &t, extra, err
	case graph.NodeTypeTemplate:
		var t graph.Template
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return nil, nil, fmt.Errorf("codec: decode template: %w", err)
		}
		extra, err := mergedExtra(&t, env)
		return &t, extra, err
	case graph.NodeTypeAgent:
		var a graph.Agent
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, nil, fmt.Errorf("codec: decode agent: %w", err)
		}
		extra, err := mergedExtra(&a, env)
		return &a, extra, err
	default:
		return nil, nil, fmt.Errorf("codec: unknown node type tag %d", env.Type)
	}
}

func mergedExtra(known any, env envelope) (map[string]json.RawMessage, error) {
	fromPayload, err := extraFields(known, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("codec: compute extra fields: %w", err)
	}
	if len(env.Extra) == 0 {
		return fromPayload, nil
	}
	merged := make(map[string]json.RawMessage, len(env.Extra)+len(fromPayload))
	for k, v := range env.Extra {
		merged[k] = v
	}
	for k, v := range fromPayload {
		merged[k] = v
	}
	return merged, nil
}

// EncodeEdge serializes an Edge into its durable binary form.
func EncodeEdge(edge *graph.Edge, extra map[string]json.RawMessage) ([]byte, error) {
	return encodeEnvelope(graph.NodeTypeUnknown, edge, extra)
}

// DecodeEdge reconstructs an Edge and any unknown trailing fields.
func DecodeEdge(data []byte) (*graph.Edge, map[string]json.RawMessage, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, nil, err
	}
	var e graph.Edge
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return nil, nil, fmt.Errorf("codec: decode edge: %w", err)
	}
	extra, err := mergedExtra(&e, env)
	return &e, extra, err
}

// EncodeSession serializes a Session into its durable binary form.
func EncodeSession(s *graph.Session, extra map[string]json.RawMessage) ([]byte, error) {
	return encodeEnvelope(graph.NodeTypeUnknown, s, extra)
}

// DecodeSession reconstructs a Session and any unknown trailing fields.
func DecodeSession(data []byte) (*graph.Session, map[string]json.RawMessage, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, nil, err
	}
	var s graph.Session
	if err := json.Unmarshal(env.Payload, &s); err != nil {
		return nil, nil, fmt.Errorf("codec: decode session: %w", err)
	}
	extra, err := mergedExtra(&s, env)
	return &s, extra, err
}

// PutUint64BigEndian encodes a millisecond UTC timestamp as 8
// big-endian bytes, so a time-range scan over an index tree is a
// contiguous byte-lexicographic prefix.
func PutUint64BigEndian(buf []byte, v uint64) {
	binary.BigEndian.PutUint64(buf, v)
}

// Uint64BigEndian decodes 8 big-endian bytes back into a uint64.
func Uint64BigEndian(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}
