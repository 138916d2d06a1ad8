package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/irgraph/internal/registry"
	"github.com/roach88/irgraph/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Export string // "json" | "yaml"
	Output string // file path, stdout when empty
	Check  bool
}

// CheckResult is the outcome of schema --check.
type CheckResult struct {
	Hash   string              `json:"hash"`
	Kinds  int                 `json:"kinds"`
	Valid  bool                `json:"valid"`
	Errors []schema.CheckError `json:"errors,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export or check the catalog schema document",
		Long: `Export the node-kind catalog as the schema document consumed by code
generators, or check that the document conforms to its CUE definition.

The document carries a hash over its canonical form; any change to the
catalog changes the hash.

Exit codes:
  0 - Document written, or check passed
  1 - Check failed
  2 - Command error (unwritable output, bad --export)

Examples:
  irgraph schema
  irgraph schema --export yaml --output kinds.yaml
  irgraph schema --check`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Export, "export", "json", "document format (json|yaml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the document to this file")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "validate the document instead of printing it")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	doc, err := schema.Export(registry.Default())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to export schema", err)
	}

	if opts.Check {
		return checkSchema(opts, doc, cmd)
	}

	var data []byte
	switch opts.Export {
	case "json":
		data, err = doc.JSON()
	case "yaml":
		data, err = doc.YAML()
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --export %q: must be json or yaml", opts.Export))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode schema", err)
	}

	if opts.Output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write schema", err)
	}
	output(opts.RootOptions, cmd).Debugf("wrote %d kinds to %s", len(doc.Kinds), opts.Output)
	return nil
}

func checkSchema(opts *SchemaOptions, doc *schema.Document, cmd *cobra.Command) error {
	errs := schema.Check(doc)
	result := CheckResult{Hash: doc.Hash, Kinds: len(doc.Kinds), Valid: len(errs) == 0, Errors: errs}

	o := output(opts.RootOptions, cmd)
	if result.Valid {
		return o.Result(result, func(w io.Writer) {
			fmt.Fprintf(w, "✓ schema ok: %d kinds, hash %s\n", result.Kinds, result.Hash)
		})
	}
	return o.Fail(ExitFailure, "E_CHECK", "schema check failed", result, func(w io.Writer) {
		fmt.Fprintf(w, "✗ schema check failed: %d error(s)\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	})
}
