package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/header"
)

// HeaderOptions holds options for the header command.
type HeaderOptions struct {
	Out    string
	Guard  string
	Verify string
}

// NewHeaderCommand creates the header command.
func NewHeaderCommand() *cobra.Command {
	opts := &HeaderOptions{}
	cmd := &cobra.Command{
		Use:   "header",
		Short: "Render the pyconfig.h dispatch header",
		Long: `Render the dispatch header that selects a configuration set with the
C preprocessor. Without --out the header is written to stdout.

--verify checks that every set header the dispatch header includes
exists in a directory.`,
		Example: `  # Print the dispatch header
  pyconfgen header

  # Write it with an include guard
  pyconfgen header --out include/pyconfig.h --guard Py_PYCONFIG_DISPATCH_H

  # Check a generated include directory
  pyconfgen header --verify include`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHeader(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the header to this file")
	cmd.Flags().StringVar(&opts.Guard, "guard", "", "Include guard macro (default: header_guard from config)")
	cmd.Flags().StringVar(&opts.Verify, "verify", "", "Check that all set headers exist in this directory")

	return cmd
}

func runHeader(cmd *cobra.Command, opts *HeaderOptions) error {
	cctx := NewCommandContextWithoutEngine(cmd)
	r := cctx.Renderer

	if opts.Verify != "" {
		if err := header.Verify(opts.Verify); err != nil {
			return err
		}
		r.Success("All configuration set headers present in " + opts.Verify)
		return nil
	}

	hopts := header.Options{Guard: opts.Guard}
	if hopts.Guard == "" {
		hopts.Guard = cctx.Cfg.HeaderGuard
	}

	if opts.Out == "" {
		return header.Render(r.Writer(), hopts)
	}
	if err := header.Write(opts.Out, hopts); err != nil {
		return err
	}
	cctx.Logger.Info("dispatch header written", "path", opts.Out)
	r.StatusLine(opts.Out, "success", "")
	return nil
}
