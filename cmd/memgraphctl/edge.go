package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

func newEdgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "create and inspect edges between nodes",
	}

	addCmd := &cobra.Command{
		Use:   "add <type> <from-id> <to-id>",
		Short: "create an edge (type is one of Follows|RespondsTo|PartOf|Invokes|Instantiates|AssignedTo|Custom)",
		Args:  cobra.ExactArgs(3),
		RunE:  runE(runEdgeAdd),
	}
	addCmd.Flags().String("label", "", "label, only meaningful for a Custom edge")
	cmd.AddCommand(addCmd)

	outCmd := &cobra.Command{
		Use:   "outgoing <node-id>",
		Short: "list a node's outgoing edges",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runEdgeOutgoing),
	}
	outCmd.Flags().String("type", "", "restrict to one edge type")
	cmd.AddCommand(outCmd)

	inCmd := &cobra.Command{
		Use:   "incoming <node-id>",
		Short: "list a node's incoming edges",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runEdgeIncoming),
	}
	inCmd.Flags().String("type", "", "restrict to one edge type")
	cmd.AddCommand(inCmd)

	return cmd
}

func runEdgeAdd(cmd *cobra.Command, args []string) error {
	edgeType, err := parseEdgeType(args[0])
	if err != nil {
		return err
	}
	from, err := ids.ParseNodeID(args[1])
	if err != nil {
		return errs.Validation("cli.edge_add", err)
	}
	to, err := ids.ParseNodeID(args[2])
	if err != nil {
		return errs.Validation("cli.edge_add", err)
	}
	label, _ := cmd.Flags().GetString("label")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	edge, err := e.AddEdge(context.Background(), edgeType, from, to, label, nil)
	if err != nil {
		return err
	}
	return render(edge, func() { printEdge(edge) })
}

func runEdgeOutgoing(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.edge_outgoing", err)
	}
	filter, err := optionalEdgeType(cmd)
	if err != nil {
		return err
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	edges, err := e.GetOutgoingEdges(context.Background(), id, filter)
	if err != nil {
		return err
	}
	return render(edges, func() {
		for _, edge := range edges {
			printEdge(edge)
		}
	})
}

func runEdgeIncoming(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.edge_incoming", err)
	}
	filter, err := optionalEdgeType(cmd)
	if err != nil {
		return err
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	edges, err := e.GetIncomingEdges(context.Background(), id, filter)
	if err != nil {
		return err
	}
	return render(edges, func() {
		for _, edge := range edges {
			printEdge(edge)
		}
	})
}

func optionalEdgeType(cmd *cobra.Command) (*graph.EdgeType, error) {
	s, _ := cmd.Flags().GetString("type")
	if s == "" {
		return nil, nil
	}
	t, err := parseEdgeType(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseEdgeType(s string) (graph.EdgeType, error) {
	switch s {
	case "Follows", "follows":
		return graph.EdgeTypeFollows, nil
	case "RespondsTo", "responds-to", "respondsto":
		return graph.EdgeTypeRespondsTo, nil
	case "PartOf", "part-of", "partof":
		return graph.EdgeTypePartOf, nil
	case "Invokes", "invokes":
		return graph.EdgeTypeInvokes, nil
	case "Instantiates", "instantiates":
		return graph.EdgeTypeInstantiates, nil
	case "AssignedTo", "assigned-to", "assignedto":
		return graph.EdgeTypeAssignedTo, nil
	case "Custom", "custom":
		return graph.EdgeTypeCustom, nil
	default:
		return graph.EdgeTypeUnknown, errs.Validation("cli.parse_edge_type", fmt.Errorf("unknown edge type %q", s))
	}
}

func printEdge(edge *graph.Edge) {
	w := newTableWriter()
	defer w.Flush()
	fmt.Fprintf(w, "id:\t%s\n", edge.ID)
	fmt.Fprintf(w, "type:\t%s\n", edge.Type)
	fmt.Fprintf(w, "from:\t%s\n", edge.From)
	fmt.Fprintf(w, "to:\t%s\n", edge.To)
	if edge.Label != "" {
		fmt.Fprintf(w, "label:\t%s\n", edge.Label)
	}
	fmt.Fprintf(w, "created_at:\t%s\n", edge.CreatedAt)
}
