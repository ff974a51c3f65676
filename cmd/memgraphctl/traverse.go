package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/query"
)

func newTraverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traverse",
		Short: "bounded graph walks: bfs, dfs, conversation-thread, find-responses",
	}

	bfsCmd := &cobra.Command{
		Use:   "bfs <node-id>",
		Short: "breadth-first walk over every outgoing edge type",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runTraverseBFS),
	}
	cmd.AddCommand(bfsCmd)

	dfsCmd := &cobra.Command{
		Use:   "dfs <node-id>",
		Short: "depth-first walk over every outgoing edge type",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runTraverseDFS),
	}
	cmd.AddCommand(dfsCmd)

	threadCmd := &cobra.Command{
		Use:   "conversation-thread <node-id>",
		Short: "the full Prompt/Response chain a node belongs to, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runConversationThread),
	}
	cmd.AddCommand(threadCmd)

	findResponsesCmd := &cobra.Command{
		Use:   "find-responses <prompt-id>",
		Short: "every response recorded against a prompt",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runFindResponses),
	}
	cmd.AddCommand(findResponsesCmd)

	return cmd
}

// truncatedOrErr reports whether err is the partial-result truncation
// sentinel: if so it's printed as a warning rather than failing the
// command, since the caller asked for a best-effort bounded walk.
func truncatedOrErr(err error) error {
	if err == nil {
		return nil
	}
	if errs.Is(err, errs.KindTraversalTruncated) {
		fmt.Fprintf(os.Stderr, "warning: %v (partial results)\n", err)
		return nil
	}
	return err
}

func runTraverseBFS(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.traverse_bfs", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	order, walkErr := query.BFS(context.Background(), e, id)
	if err := truncatedOrErr(walkErr); err != nil {
		return err
	}
	return render(order, func() {
		for _, n := range order {
			fmt.Println(n)
		}
	})
}

func runTraverseDFS(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.traverse_dfs", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	order, walkErr := query.DFS(context.Background(), e, id)
	if err := truncatedOrErr(walkErr); err != nil {
		return err
	}
	return render(order, func() {
		for _, n := range order {
			fmt.Println(n)
		}
	})
}

func runConversationThread(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.conversation_thread", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	thread, walkErr := query.ConversationThread(context.Background(), e, id)
	if err := truncatedOrErr(walkErr); err != nil {
		return err
	}
	return render(thread, func() {
		for _, n := range thread {
			printNode(n)
		}
	})
}

func runFindResponses(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.find_responses", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	responses, err := query.FindResponses(context.Background(), e, id)
	if err != nil {
		return err
	}
	return render(responses, func() {
		for _, r := range responses {
			printNode(r)
		}
	})
}
