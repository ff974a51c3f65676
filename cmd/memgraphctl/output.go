package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
)

// Exit codes follow the CLI boundary contract: 0 success, 1 user error
// (invalid args, not-found), 2 engine error (io/corruption), 3 internal
// error (anything this package didn't anticipate).
const (
	exitOK            = 0
	exitUserError     = 1
	exitEngineError   = 2
	exitInternalError = 3
)

// exitCodeFor maps an error's errs.Kind onto one of the four CLI exit
// codes. A nil error never reaches here (cobra only calls os.Exit when
// Execute returns non-nil).
func exitCodeFor(err error) int {
	switch errs.Of(err) {
	case errs.KindNotFound, errs.KindValidation, errs.KindInvalidNodeType,
		errs.KindInvalidTransition, errs.KindAlreadyExists, errs.KindCancelled:
		return exitUserError
	case errs.KindIO, errs.KindCorruption, errs.KindClosed:
		return exitEngineError
	case errs.KindInvariantViolation, errs.KindTraversalTruncated:
		// Both are real engine-level outcomes rather than malformed
		// input, but neither is an I/O failure; treat as user error
		// since the caller asked for something the data model forbids.
		return exitUserError
	default:
		return exitInternalError
	}
}

// printErr writes a one-line "kind: message" explanation to stderr, the
// CLI's uniform error rendering regardless of --format.
func printErr(err error) {
	kind := errs.Of(err)
	if kind == errs.KindUnknown {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
}

// render writes v to stdout in the format the --format flag selected.
// text and table fall back to a caller-supplied text renderer (textFn);
// json and yaml marshal v directly.
func render(v any, textFn func()) error {
	switch flags.format {
	case "", "text", "table":
		textFn()
		return nil
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errs.IO("cli.render_json", err)
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return errs.IO("cli.render_yaml", err)
		}
		fmt.Print(string(data))
		return nil
	default:
		return errs.Validation("cli.render", fmt.Errorf("unknown format %q (want text|json|yaml|table)", flags.format))
	}
}

// newTableWriter returns a tabwriter configured the same way across
// every subcommand's table output.
func newTableWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
}
