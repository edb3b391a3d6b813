package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/engine"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Force bool
	Watch bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate every configured set header and the dispatch header",
		Long: `Patch the input header of every target in pyconfgen.yaml with its
feature rules, then write pyconfig.h into the output directory.

Targets whose input, rules and previous output are unchanged since the
last run are skipped; use --force to regenerate them anyway. With
--watch, the command keeps running and regenerates whenever an input
header or the feature file changes.`,
		Example: `  # Generate changed targets
  pyconfgen generate

  # Regenerate everything
  pyconfgen generate --force

  # Regenerate on change until interrupted
  pyconfgen generate --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Regenerate targets even when unchanged")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Watch inputs and regenerate on change")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cctx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cctx.Engine
	r := cctx.Renderer
	gopts := engine.GenerateOptions{Force: opts.Force}

	res, err := eng.Generate(cmd.Context(), gopts)
	if err != nil {
		return err
	}
	if err := renderGenerateResult(r, res); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.Println()
	r.Muted("Watching for changes. Press Ctrl+C to stop.")
	return eng.Watch(ctx, engine.WatchOptions{
		OnResult: func(res *engine.GenerateResult, err error) {
			if err != nil {
				r.Error(err.Error())
				return
			}
			_ = renderGenerateResult(r, res)
		},
	})
}

func renderGenerateResult(r *output.Renderer, res *engine.GenerateResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(2, "Generate"))
		r.Println()
	}
	for _, tr := range res.Targets {
		name := filepath.Base(tr.Target.Output)
		if tr.Skipped {
			r.StatusLine(name, "skipped", "up to date")
			continue
		}
		r.StatusLine(name, "success", fmt.Sprintf("%d changes", len(tr.Changes)))
	}
	r.StatusLine(filepath.Base(res.Header), "success", "")

	r.Println()
	r.Success(fmt.Sprintf("Generated %d of %d targets in %s",
		res.Generated(), len(res.Targets), res.Duration.Round(time.Millisecond)))
	return nil
}
