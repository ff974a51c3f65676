package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/query"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "run a filtered node query through the planner's driving-index selection",
		RunE:  runE(runQuery),
	}
	cmd.Flags().String("session", "", "restrict to one session")
	cmd.Flags().String("type", "", "restrict to one node type (Prompt|Response|ToolInvocation|Template|Agent)")
	cmd.Flags().String("after", "", "only nodes created at or after this RFC3339 timestamp")
	cmd.Flags().String("before", "", "only nodes created strictly before this RFC3339 timestamp")
	cmd.Flags().Int("limit", 0, "cap the number of results (0 = unbounded)")
	cmd.Flags().Int("offset", 0, "skip this many matching results before collecting")
	cmd.Flags().StringToString("filter", nil, "key=value metadata equality filters")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	b := &queryArgs{}
	if s, _ := cmd.Flags().GetString("session"); s != "" {
		id, err := ids.ParseSessionID(s)
		if err != nil {
			return errs.Validation("cli.query", err)
		}
		b.session = &id
	}
	if s, _ := cmd.Flags().GetString("type"); s != "" {
		t, err := parseNodeType(s)
		if err != nil {
			return err
		}
		b.nodeType = &t
	}
	if s, _ := cmd.Flags().GetString("after"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errs.Validation("cli.query", fmt.Errorf("parsing --after: %w", err))
		}
		b.after = &ts
	}
	if s, _ := cmd.Flags().GetString("before"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errs.Validation("cli.query", fmt.Errorf("parsing --before: %w", err))
		}
		b.before = &ts
	}
	b.limit, _ = cmd.Flags().GetInt("limit")
	b.offset, _ = cmd.Flags().GetInt("offset")
	b.filters, _ = cmd.Flags().GetStringToString("filter")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	builder := query.New(e)
	if b.session != nil {
		builder = builder.Session(*b.session)
	}
	if b.nodeType != nil {
		builder = builder.NodeType(*b.nodeType)
	}
	if b.after != nil {
		builder = builder.After(*b.after)
	}
	if b.before != nil {
		builder = builder.Before(*b.before)
	}
	if b.limit > 0 {
		builder = builder.Limit(b.limit)
	}
	if b.offset > 0 {
		builder = builder.Offset(b.offset)
	}
	if len(b.filters) > 0 {
		builder = builder.Filters(b.filters)
	}

	nodes, err := builder.Execute(context.Background())
	if err != nil {
		return err
	}
	return render(nodes, func() {
		for _, n := range nodes {
			printNode(n)
		}
	})
}

type queryArgs struct {
	session  *ids.SessionID
	nodeType *graph.NodeType
	after    *time.Time
	before   *time.Time
	limit    int
	offset   int
	filters  map[string]string
}

func parseNodeType(s string) (graph.NodeType, error) {
	switch s {
	case "Prompt", "prompt":
		return graph.NodeTypePrompt, nil
	case "Response", "response":
		return graph.NodeTypeResponse, nil
	case "ToolInvocation", "tool-invocation", "toolinvocation":
		return graph.NodeTypeToolInvocation, nil
	case "Template", "template":
		return graph.NodeTypeTemplate, nil
	case "Agent", "agent":
		return graph.NodeTypeAgent, nil
	default:
		return graph.NodeTypeUnknown, errs.Validation("cli.parse_node_type", fmt.Errorf("unknown node type %q", s))
	}
}
