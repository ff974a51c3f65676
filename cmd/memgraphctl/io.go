package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

func newIOCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export <output-file>",
		Short: "dump the database (or one --session) to a JSON or binary export file",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runExport),
	}
	exportCmd.Flags().String("session", "", "export only this session instead of the whole database")
	exportCmd.Flags().Bool("binary", false, "write the compact length-prefixed binary form instead of JSON")

	importCmd := &cobra.Command{
		Use:   "import <input-file>",
		Short: "load a JSON or binary export file; each session is rejected and reported independently on conflict",
		Args:  cobra.ExactArgs(1),
		RunE:  runE(runImport),
	}
	importCmd.Flags().Bool("binary", false, "read the compact length-prefixed binary form instead of JSON")

	cmd := &cobra.Command{
		Use:   "io",
		Short: "export and import database contents",
	}
	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	binary, _ := cmd.Flags().GetBool("binary")
	sessionFlag, _ := cmd.Flags().GetString("session")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := context.Background()
	var exp codec.Export
	if sessionFlag != "" {
		id, perr := ids.ParseSessionID(sessionFlag)
		if perr != nil {
			return errs.Validation("cli.export", perr)
		}
		exp, err = e.ExportSession(ctx, id)
	} else {
		exp, err = e.ExportAll(ctx)
	}
	if err != nil {
		return err
	}

	var data []byte
	if binary {
		data, err = codec.EncodeExportBinary(exp)
	} else {
		data, err = codec.EncodeExportJSON(exp)
	}
	if err != nil {
		return errs.IO("cli.export", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.IO("cli.export", err)
	}
	fmt.Printf("exported %d sessions, %d nodes, %d edges to %s\n", len(exp.Sessions), len(exp.Nodes), len(exp.Edges), path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	binary, _ := cmd.Flags().GetBool("binary")

	data, err := os.ReadFile(path)
	if err != nil {
		return errs.IO("cli.import", err)
	}

	var exp codec.Export
	if binary {
		exp, err = codec.DecodeExportBinary(data)
	} else {
		exp, err = codec.DecodeExportJSON(data)
	}
	if err != nil {
		return errs.Corruption("cli.import", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.Import(context.Background(), exp)
	if err != nil {
		return err
	}
	if err := render(result, func() {
		fmt.Printf("imported %d sessions\n", result.SessionsImported)
		for _, id := range result.SessionsRejected {
			fmt.Printf("rejected session %s\n", id)
		}
	}); err != nil {
		return err
	}
	if len(result.SessionsRejected) > 0 {
		return errs.AlreadyExists("cli.import", fmt.Errorf("%d sessions rejected", len(result.SessionsRejected)))
	}
	return nil
}
