// Package graph defines the closed set of entities and edges that make up
// a recorded LLM conversation: sessions, prompts, responses, tool
// invocations, templates, agents, and the typed edges between them.
//
// The entity set is closed by design. Adding a
// new node kind means adding a new NodeType constant, a new concrete
// struct, and a schema-version bump in pkg/codec — never an open-ended
// plugin mechanism.
package graph

import (
	"time"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// NodeType tags which concrete node variant a stored record holds.
type NodeType uint8

const (
	NodeTypeUnknown NodeType = iota
	NodeTypePrompt
	NodeTypeResponse
	NodeTypeToolInvocation
	NodeTypeTemplate
	NodeTypeAgent
)

func (t NodeType) String() string {
	switch t {
	case NodeTypePrompt:
		return "Prompt"
	case NodeTypeResponse:
		return "Response"
	case NodeTypeToolInvocation:
		return "ToolInvocation"
	case NodeTypeTemplate:
		return "Template"
	case NodeTypeAgent:
		return "Agent"
	default:
		return "Unknown"
	}
}

// EdgeType enumerates the finite set of typed relationships between
// nodes
type EdgeType uint8

const (
	EdgeTypeUnknown EdgeType = iota
	EdgeTypeFollows
	EdgeTypeRespondsTo
	EdgeTypePartOf
	EdgeTypeInvokes
	EdgeTypeInstantiates
	EdgeTypeAssignedTo
	EdgeTypeCustom
)

func (t EdgeType) String() string {
	switch t {
	case EdgeTypeFollows:
		return "Follows"
	case EdgeTypeRespondsTo:
		return "RespondsTo"
	case EdgeTypePartOf:
		return "PartOf"
	case EdgeTypeInvokes:
		return "Invokes"
	case EdgeTypeInstantiates:
		return "Instantiates"
	case EdgeTypeAssignedTo:
		return "AssignedTo"
	case EdgeTypeCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// ToolStatus is the lifecycle state of a ToolInvocation.
type ToolStatus uint8

const (
	ToolStatusPending ToolStatus = iota
	ToolStatusSuccess
	ToolStatusFailure
)

func (s ToolStatus) String() string {
	switch s {
	case ToolStatusSuccess:
		return "Success"
	case ToolStatusFailure:
		return "Failure"
	default:
		return "Pending"
	}
}

// IsTerminal reports whether the status can no longer transition.
func (s ToolStatus) IsTerminal() bool {
	return s == ToolStatusSuccess || s == ToolStatusFailure
}

// Session is the root container for one conversation. It is created
// explicitly and never mutated structurally, aside from the Active flag
// (soft archival) and metadata.
type Session struct {
	ID        ids.SessionID     `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Active    bool              `json:"active"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PromptMetadata carries the model-call parameters a Prompt was created
// under.
type PromptMetadata struct {
	Model          string         `json:"model,omitempty"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      *int           `json:"max_tokens,omitempty"`
	ToolsAvailable []string       `json:"tools_available,omitempty"`
	Custom         map[string]any `json:"custom,omitempty"`
}

// Prompt is a user/system input recorded against a session.
type Prompt struct {
	ID        ids.NodeID     `json:"id"`
	SessionID ids.SessionID  `json:"session_id"`
	Content   string         `json:"content"`
	Metadata  PromptMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (p *Prompt) NodeID() ids.NodeID     { return p.ID }
func (p *Prompt) Kind() NodeType         { return NodeTypePrompt }
func (p *Prompt) Session() ids.SessionID { return p.SessionID }
func (p *Prompt) Created() time.Time     { return p.CreatedAt }

// TokenUsage records prompt/completion/total token counts for a Response.
// Invariant: Total == Prompt + Completion.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Valid reports whether Total is consistent with Prompt + Completion.
func (u TokenUsage) Valid() bool {
	return u.Total == u.Prompt+u.Completion
}

// ResponseMetadata carries details about how a Response was produced.
type ResponseMetadata struct {
	Model      string         `json:"model,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
	LatencyMS  int64          `json:"latency_ms"`
	Custom     map[string]any `json:"custom,omitempty"`
}

// Response is a model output that answers exactly one Prompt.
type Response struct {
	ID         ids.NodeID       `json:"id"`
	PromptID   ids.NodeID       `json:"prompt_id"`
	SessionID  ids.SessionID    `json:"session_id"`
	Content    string           `json:"content"`
	TokenUsage TokenUsage       `json:"token_usage"`
	Metadata   ResponseMetadata `json:"metadata"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (r *Response) NodeID() ids.NodeID     { return r.ID }
func (r *Response) Kind() NodeType         { return NodeTypeResponse }
func (r *Response) Session() ids.SessionID { return r.SessionID }
func (r *Response) Created() time.Time     { return r.CreatedAt }

// ToolInvocation is a recorded external-tool call with a status lifecycle,
// invoked from a Prompt or a Response.
type ToolInvocation struct {
	ID         ids.NodeID    `json:"id"`
	SessionID  ids.SessionID `json:"session_id"`
	ParentID   ids.NodeID    `json:"parent_id"`
	ParentKind NodeType      `json:"parent_kind"`
	Name       string        `json:"name"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	Status     ToolStatus    `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (t *ToolInvocation) NodeID() ids.NodeID     { return t.ID }
func (t *ToolInvocation) Kind() NodeType         { return NodeTypeToolInvocation }
func (t *ToolInvocation) Session() ids.SessionID { return t.SessionID }
func (t *ToolInvocation) Created() time.Time     { return t.CreatedAt }

// TemplateVariable declares one `{{var}}` placeholder's expected type and
// optional default.
type TemplateVariable struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

// Template is a parameterized prompt body, instantiated into concrete
// Prompts. The body is versioned; past instantiations are preserved even
// as the template's current body changes.
type Template struct {
	ID        ids.NodeID         `json:"id"`
	SessionID ids.SessionID      `json:"session_id"`
	Name      string             `json:"name"`
	Body      string             `json:"body"`
	Variables []TemplateVariable `json:"variables,omitempty"`
	Version   int                `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (t *Template) NodeID() ids.NodeID     { return t.ID }
func (t *Template) Kind() NodeType         { return NodeTypeTemplate }
func (t *Template) Session() ids.SessionID { return t.SessionID }
func (t *Template) Created() time.Time     { return t.CreatedAt }

// Agent is a named configuration of model + temperature + optional
// default template, assignable to prompts.
type Agent struct {
	ID                 ids.NodeID    `json:"id"`
	SessionID          ids.SessionID `json:"session_id"`
	Name               string        `json:"name"`
	Model              string        `json:"model"`
	Temperature        float64       `json:"temperature"`
	Description        string        `json:"description,omitempty"`
	DefaultTemplateID  *ids.NodeID   `json:"default_template_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (a *Agent) NodeID() ids.NodeID     { return a.ID }
func (a *Agent) Kind() NodeType         { return NodeTypeAgent }
func (a *Agent) Session() ids.SessionID { return a.SessionID }
func (a *Agent) Created() time.Time     { return a.CreatedAt }

// Node is the narrow, closed interface every node variant satisfies. The
// engine and query layers dispatch on Kind() rather than type-switching
// an open set
type Node interface {
	NodeID() ids.NodeID
	Kind() NodeType
	Session() ids.SessionID
	Created() time.Time
}

var (
	_ Node = (*Prompt)(nil)
	_ Node = (*Response)(nil)
	_ Node = (*ToolInvocation)(nil)
	_ Node = (*Template)(nil)
	_ Node = (*Agent)(nil)
)

// Edge is a typed, directional relation between two nodes, optionally
// carrying string properties.
type Edge struct {
	ID         ids.EdgeID        `json:"id"`
	SessionID  ids.SessionID     `json:"session_id"`
	From       ids.NodeID        `json:"from"`
	To         ids.NodeID        `json:"to"`
	Type       EdgeType          `json:"type"`
	Label      string            `json:"label,omitempty"` // only meaningful for EdgeTypeCustom
	Properties map[string]string `json:"properties,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
