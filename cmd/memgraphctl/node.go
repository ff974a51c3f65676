package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "create and inspect prompts, responses, tool invocations, templates, and agents",
	}

	addPromptCmd := &cobra.Command{
		Use:   "add-prompt <session-id> <content>",
		Short: "append a prompt to a session's conversation chain",
		Args:  cobra.ExactArgs(2),
		RunE:  runE(runAddPrompt),
	}
	addPromptCmd.Flags().String("model", "", "model the prompt was issued under")
	addPromptCmd.Flags().Float64("temperature", 0, "sampling temperature")
	cmd.AddCommand(addPromptCmd)

	addResponseCmd := &cobra.Command{
		Use:   "add-response <prompt-id> <content>",
		Short: "attach a response to a prompt",
		Args:  cobra.ExactArgs(2),
		RunE:  runE(runAddResponse),
	}
	addResponseCmd.Flags().String("model", "", "model that produced the response")
	addResponseCmd.Flags().Int("prompt-tokens", 0, "prompt token count")
	addResponseCmd.Flags().Int("completion-tokens", 0, "completion token count")
	cmd.AddCommand(addResponseCmd)

	addToolCmd := &cobra.Command{
		Use:   "add-tool-invocation <parent-id> <name>",
		Short: "record a tool invocation under a prompt or response",
		Args:  cobra.ExactArgs(2),
		RunE:  runE(runAddToolInvocation),
	}
	cmd.AddCommand(addToolCmd)

	updateToolCmd := &cobra.Command{
		Use:   "update-tool-status <tool-id> <success|failure>",
		Short: "transition a tool invocation out of Pending",
		Args:  cobra.ExactArgs(2),
		RunE:  runE(runUpdateToolStatus),
	}
	cmd.AddCommand(updateToolCmd)

	createTemplateCmd := &cobra.Command{
		Use:   "create-template <session-id> <name> <body>",
		Short: "create a reusable prompt template",
		Args:  cobra.ExactArgs(3),
		RunE:  runE(runCreateTemplate),
	}
	cmd.AddCommand(createTemplateCmd)

	updateTemplateCmd := &cobra.Command{
		Use:   "update-template <template-id> <body>",
		Short: "rewrite a template's body, bumping its version",
		Args:  cobra.ExactArgs(2),
		RunE:  runE(runUpdateTemplate),
	}
	cmd.AddCommand(updateTemplateCmd)

	createAgentCmd := &cobra.Command{
		Use:   "create-agent <session-id> <name> <model>",
		Short: "create an agent definition",
		Args:  cobra.ExactArgs(3),
		RunE:  runE(runCreateAgent),
	}
	createAgentCmd.Flags().Float64("temperature", 0, "sampling temperature")
	createAgentCmd.Flags().String("description", "", "agent description")
	cmd.AddCommand(createAgentCmd)

	getCmd := &cobra.Command{
		Use:   "get <node-id>",
		Short: "look up a node by id",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runNodeGet),
	}
	cmd.AddCommand(getCmd)

	listCmd := &cobra.Command{
		Use:   "list <session-id>",
		Short: "stream every node a session owns, in creation order",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runNodeList),
	}
	listCmd.Flags().Bool("reverse", false, "stream newest-first")
	cmd.AddCommand(listCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <node-id>",
		Short: "delete a node (refused if it still has incident edges)",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runNodeDelete),
	}
	cmd.AddCommand(deleteCmd)

	return cmd
}

func runAddPrompt(cmd *cobra.Command, args []string) error {
	session, err := ids.ParseSessionID(args[0])
	if err != nil {
		return errs.Validation("cli.add_prompt", err)
	}
	model, _ := cmd.Flags().GetString("model")
	temperature, _ := cmd.Flags().GetFloat64("temperature")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := e.AddPrompt(context.Background(), session, args[1], graph.PromptMetadata{Model: model, Temperature: temperature})
	if err != nil {
		return err
	}
	return render(p, func() { printNode(p) })
}

func runAddResponse(cmd *cobra.Command, args []string) error {
	promptID, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.add_response", err)
	}
	model, _ := cmd.Flags().GetString("model")
	promptTokens, _ := cmd.Flags().GetInt("prompt-tokens")
	completionTokens, _ := cmd.Flags().GetInt("completion-tokens")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	usage := graph.TokenUsage{Prompt: promptTokens, Completion: completionTokens, Total: promptTokens + completionTokens}
	r, err := e.AddResponse(context.Background(), promptID, args[1], usage, graph.ResponseMetadata{Model: model})
	if err != nil {
		return err
	}
	return render(r, func() { printNode(r) })
}

func runAddToolInvocation(cmd *cobra.Command, args []string) error {
	parentID, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.add_tool_invocation", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.AddToolInvocation(context.Background(), parentID, args[1], nil)
	if err != nil {
		return err
	}
	return render(t, func() { printNode(t) })
}

func runUpdateToolStatus(cmd *cobra.Command, args []string) error {
	toolID, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.update_tool_status", err)
	}
	status, err := parseToolStatus(args[1])
	if err != nil {
		return err
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.UpdateToolStatus(context.Background(), toolID, status, nil)
	if err != nil {
		return err
	}
	return render(t, func() { printNode(t) })
}

func runCreateTemplate(cmd *cobra.Command, args []string) error {
	session, err := ids.ParseSessionID(args[0])
	if err != nil {
		return errs.Validation("cli.create_template", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	tmpl, err := e.CreateTemplate(context.Background(), session, args[1], args[2], nil)
	if err != nil {
		return err
	}
	return render(tmpl, func() { printNode(tmpl) })
}

func runUpdateTemplate(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.update_template", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	tmpl, err := e.UpdateTemplate(context.Background(), id, args[1], nil)
	if err != nil {
		return err
	}
	return render(tmpl, func() { printNode(tmpl) })
}

func runCreateAgent(cmd *cobra.Command, args []string) error {
	session, err := ids.ParseSessionID(args[0])
	if err != nil {
		return errs.Validation("cli.create_agent", err)
	}
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	description, _ := cmd.Flags().GetString("description")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	agent, err := e.CreateAgent(context.Background(), session, args[1], args[2], temperature, description)
	if err != nil {
		return err
	}
	return render(agent, func() { printNode(agent) })
}

func runNodeGet(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.node_get", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	n, err := e.GetNode(context.Background(), id)
	if err != nil {
		return err
	}
	return render(n, func() { printNode(n) })
}

func runNodeList(cmd *cobra.Command, args []string) error {
	session, err := ids.ParseSessionID(args[0])
	if err != nil {
		return errs.Validation("cli.node_list", err)
	}
	reverse, _ := cmd.Flags().GetBool("reverse")
	dir := storage.Forward
	if reverse {
		dir = storage.Reverse
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := context.Background()
	var nodes []graph.Node
	for chunk := range e.GetSessionNodes(ctx, session, dir) {
		if chunk.Err != nil {
			return chunk.Err
		}
		nodes = append(nodes, chunk.Nodes...)
	}
	return render(nodes, func() {
		for _, n := range nodes {
			printNode(n)
		}
	})
}

func runNodeDelete(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseNodeID(args[0])
	if err != nil {
		return errs.Validation("cli.node_delete", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.DeleteNode(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("node %s deleted\n", id)
	return nil
}

func parseToolStatus(s string) (graph.ToolStatus, error) {
	switch s {
	case "success", "Success":
		return graph.ToolStatusSuccess, nil
	case "failure", "Failure":
		return graph.ToolStatusFailure, nil
	default:
		return graph.ToolStatusPending, errs.Validation("cli.parse_tool_status", fmt.Errorf("unknown tool status %q (want success|failure)", s))
	}
}

// printNode renders one node's fields as a flat key/value table,
// identical in shape across text and table output.
func printNode(n graph.Node) {
	w := newTableWriter()
	defer w.Flush()
	fmt.Fprintf(w, "id:\t%s\n", n.NodeID())
	fmt.Fprintf(w, "kind:\t%s\n", n.Kind())
	fmt.Fprintf(w, "session:\t%s\n", n.Session())
	fmt.Fprintf(w, "created_at:\t%s\n", n.Created())

	switch v := n.(type) {
	case *graph.Prompt:
		fmt.Fprintf(w, "content:\t%s\n", v.Content)
		fmt.Fprintf(w, "model:\t%s\n", v.Metadata.Model)
	case *graph.Response:
		fmt.Fprintf(w, "prompt_id:\t%s\n", v.PromptID)
		fmt.Fprintf(w, "content:\t%s\n", v.Content)
		fmt.Fprintf(w, "tokens:\t%d\n", v.TokenUsage.Total)
	case *graph.ToolInvocation:
		fmt.Fprintf(w, "name:\t%s\n", v.Name)
		fmt.Fprintf(w, "status:\t%s\n", v.Status)
	case *graph.Template:
		fmt.Fprintf(w, "name:\t%s\n", v.Name)
		fmt.Fprintf(w, "version:\t%d\n", v.Version)
	case *graph.Agent:
		fmt.Fprintf(w, "name:\t%s\n", v.Name)
		fmt.Fprintf(w, "model:\t%s\n", v.Model)
	}
}
