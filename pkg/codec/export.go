package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
)

// NodeExport is the flat, tagged JSON shape one node takes inside the
// textual export format: exactly one of the typed fields is
// populated, selected by Type.
type NodeExport struct {
	Type     graph.NodeType         `json:"type"`
	Prompt   *graph.Prompt          `json:"prompt,omitempty"`
	Response *graph.Response        `json:"response,omitempty"`
	Tool     *graph.ToolInvocation  `json:"tool_invocation,omitempty"`
	Template *graph.Template        `json:"template,omitempty"`
	Agent    *graph.Agent           `json:"agent,omitempty"`
}

// ToNodeExport wraps a concrete node variant for textual export.
func ToNodeExport(n graph.Node) NodeExport {
	ne := NodeExport{Type: n.Kind()}
	switch v := n.(type) {
	case *graph.Prompt:
		ne.Prompt = v
	case *graph.Response:
		ne.Response = v
	case *graph.ToolInvocation:
		ne.Tool = v
	case *graph.Template:
		ne.Template = v
	case *graph.Agent:
		ne.Agent = v
	}
	return ne
}

// Node unwraps the tagged export shape back into the concrete node
// variant.
func (ne NodeExport) Node() (graph.Node, error) {
	switch ne.Type {
	case graph.NodeTypePrompt:
		if ne.Prompt == nil {
			return nil, fmt.Errorf("codec: export entry tagged Prompt has no prompt payload")
		}
		return ne.Prompt, nil
	case graph.NodeTypeResponse:
		if ne.Response == nil {
			return nil, fmt.Errorf("codec: export entry tagged Response has no response payload")
		}
		return ne.Response, nil
	case graph.NodeTypeToolInvocation:
		if ne.Tool == nil {
			return nil, fmt.Errorf("codec: export entry tagged ToolInvocation has no tool payload")
		}
		return ne.Tool, nil
	case graph.NodeTypeTemplate:
		if ne.Template == nil {
			return nil, fmt.Errorf("codec: export entry tagged Template has no template payload")
		}
		return ne.Template, nil
	case graph.NodeTypeAgent:
		if ne.Agent == nil {
			return nil, fmt.Errorf("codec: export entry tagged Agent has no agent payload")
		}
		return ne.Agent, nil
	default:
		return nil, fmt.Errorf("codec: export entry has unknown node type %d", ne.Type)
	}
}

// Export is the deterministic textual interchange format from the design:
// a JSON object with top-level sessions/nodes/edges keys. time.Time
// fields marshal as RFC 3339 via encoding/json's default behavior.
type Export struct {
	Sessions []*graph.Session `json:"sessions"`
	Nodes    []NodeExport     `json:"nodes"`
	Edges    []*graph.Edge    `json:"edges"`
}

// EncodeExportJSON renders an Export as indented JSON.
func EncodeExportJSON(e Export) ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// DecodeExportJSON parses the textual interchange format.
func DecodeExportJSON(data []byte) (Export, error) {
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return Export{}, fmt.Errorf("codec: decode export json: %w", err)
	}
	return e, nil
}

// EncodeExportBinary renders an Export in the binary interchange format:
// a 16-byte magic, a 2-byte version, then length-prefixed envelope
// records (sessions, then nodes, then edges), matching the on-disk
// record layout.
func EncodeExportBinary(e Export) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(ExportMagic[:])
	if err := binary.Write(&buf, binary.BigEndian, SchemaVersion); err != nil {
		return nil, err
	}
	counts := [3]uint32{uint32(len(e.Sessions)), uint32(len(e.Nodes)), uint32(len(e.Edges))}
	for _, c := range counts {
		if err := binary.Write(&buf, binary.BigEndian, c); err != nil {
			return nil, err
		}
	}
	for _, s := range e.Sessions {
		rec, err := EncodeSession(s, nil)
		if err != nil {
			return nil, err
		}
		if err := writeLengthPrefixed(&buf, rec); err != nil {
			return nil, err
		}
	}
	for _, ne := range e.Nodes {
		n, err := ne.Node()
		if err != nil {
			return nil, err
		}
		rec, err := EncodeNode(n, nil)
		if err != nil {
			return nil, err
		}
		if err := writeLengthPrefixed(&buf, rec); err != nil {
			return nil, err
		}
	}
	for _, edge := range e.Edges {
		rec, err := EncodeEdge(edge, nil)
		if err != nil {
			return nil, err
		}
		if err := writeLengthPrefixed(&buf, rec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeExportBinary parses the binary interchange format produced by
// EncodeExportBinary.
func DecodeExportBinary(data []byte) (Export, error) {
	r := bytes.NewReader(data)
	var magic [16]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Export{}, fmt.Errorf("codec: read magic: %w", err)
	}
	if magic != ExportMagic {
		return Export{}, fmt.Errorf("codec: bad export magic %q", magic[:])
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return Export{}, fmt.Errorf("codec: read version: %w", err)
	}
	if version > SchemaVersion {
		return Export{}, &ErrUnknownVersion{Got: version, Want: SchemaVersion}
	}
	var counts [3]uint32
	for i := range counts {
		if err := binary.Read(r, binary.BigEndian, &counts[i]); err != nil {
			return Export{}, fmt.Errorf("codec: read counts: %w", err)
		}
	}
	var out Export
	for i := uint32(0); i < counts[0]; i++ {
		rec, err := readLengthPrefixed(r)
		if err != nil {
			return Export{}, err
		}
		s, _, err := DecodeSession(rec)
		if err != nil {
			return Export{}, err
		}
		out.Sessions = append(out.Sessions, s)
	}
	for i := uint32(0); i < counts[1]; i++ {
		rec, err := readLengthPrefixed(r)
		if err != nil {
			return Export{}, err
		}
		n, _, err := DecodeNode(rec)
		if err != nil {
			return Export{}, err
		}
		out.Nodes = append(out.Nodes, ToNodeExport(n))
	}
	for i := uint32(0); i < counts[2]; i++ {
		rec, err := readLengthPrefixed(r)
		if err != nil {
			return Export{}, err
		}
		e, _, err := DecodeEdge(rec)
		if err != nil {
			return Export{}, err
		}
		out.Edges = append(out.Edges, e)
	}
	return out, nil
}

func writeLengthPrefixed(w io.Writer, rec []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(rec))); err != nil {
		return err
	}
	_, err := w.Write(rec)
	return err
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("codec: read record length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("codec: read record: %w", err)
	}
	return buf, nil
}
