package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "create, inspect, and archive sessions",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "create a new session",
		RunE:  runE(runSessionCreate),
	}
	createCmd.Flags().StringToString("metadata", nil, "key=value metadata pairs")
	cmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get <session-id>",
		Short: "look up a session by id",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runSessionGet),
	}
	cmd.AddCommand(getCmd)

	archiveCmd := &cobra.Command{
		Use:   "archive <session-id>",
		Short: "mark a session archived (soft, non-destructive)",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runSessionArchive),
	}
	cmd.AddCommand(archiveCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "cascade-delete a session and every node/edge it owns",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runSessionDelete),
	}
	cmd.AddCommand(deleteCmd)

	return cmd
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	metadata, _ := cmd.Flags().GetStringToString("metadata")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	sess, err := e.CreateSession(context.Background(), ids.ZeroSessionID, metadata)
	if err != nil {
		return err
	}
	return render(sess, func() { printSession(sess) })
}

func runSessionGet(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseSessionID(args[0])
	if err != nil {
		return errs.Validation("cli.session_get", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	sess, err := e.GetSession(context.Background(), id)
	if err != nil {
		return err
	}
	return render(sess, func() { printSession(sess) })
}

func runSessionArchive(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseSessionID(args[0])
	if err != nil {
		return errs.Validation("cli.session_archive", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.ArchiveSession(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("session %s archived\n", id)
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	id, err := ids.ParseSessionID(args[0])
	if err != nil {
		return errs.Validation("cli.session_delete", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.DeleteSessionCascade(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("session %s deleted\n", id)
	return nil
}

func printSession(s *graph.Session) {
	w := newTableWriter()
	defer w.Flush()
	fmt.Fprintf(w, "id:\t%s\n", s.ID)
	fmt.Fprintf(w, "created_at:\t%s\n", s.CreatedAt)
	fmt.Fprintf(w, "updated_at:\t%s\n", s.UpdatedAt)
	fmt.Fprintf(w, "active:\t%v\n", s.Active)
	for k, v := range s.Metadata {
		fmt.Fprintf(w, "metadata.%s:\t%s\n", k, v)
	}
}
