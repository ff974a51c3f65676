package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
)

func newAdminCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "print per-tree row counts and byte sizes, plus cache hit/miss counters",
		RunE:  runE(runStats),
	}

	verifyCmd := &cobra.Command{
		Use:   "verify-indexes",
		Short: "read-only crash-recovery spot-check of every secondary index against its primary record",
		RunE:  runE(runVerifyIndexes),
	}

	flushCmd := &cobra.Command{
		Use:   "flush",
		Short: "force every durable write accepted so far to be fsync'd",
		RunE:  runE(runFlush),
	}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "operational commands: stats, verify-indexes, flush",
	}
	cmd.AddCommand(statsCmd, verifyCmd, flushCmd)
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := context.Background()
	stats, err := e.Stats(ctx)
	if err != nil {
		return err
	}
	cacheStats := e.CacheStats()

	return render(map[string]any{"trees": stats, "cache": cacheStats}, func() {
		w := newTableWriter()
		defer w.Flush()
		for tree, s := range stats {
			fmt.Fprintf(w, "%s:\tcount=%d\tbytes=%d\n", tree, s.Count, s.Bytes)
		}
		fmt.Fprintf(w, "cache:\thits=%d\tmisses=%d\n", cacheStats.Hits, cacheStats.Misses)
	})
}

func runVerifyIndexes(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	problems, err := e.VerifyIndexes(context.Background())
	if err != nil {
		return err
	}
	if err := render(problems, func() {
		for _, p := range problems {
			fmt.Printf("%s %x: %s\n", p.Tree, p.Key, p.Problem)
		}
		if len(problems) == 0 {
			fmt.Println("no inconsistencies found")
		}
	}); err != nil {
		return err
	}
	if len(problems) > 0 {
		return errs.Corruption("cli.verify_indexes", fmt.Errorf("%d index inconsistencies found", len(problems)))
	}
	return nil
}

func runFlush(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Flush(context.Background()); err != nil {
		return err
	}
	fmt.Println("flushed")
	return nil
}
