package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
	"github.com/leapstack-labs/pyconfgen/internal/xpatch"
)

// PatchOptions holds options for the patch command.
type PatchOptions struct {
	Set      string
	Input    string
	Output   string
	Features string
	DryRun   bool
}

// PatchOutput is the JSON output for the patch command.
type PatchOutput struct {
	Set     string          `json:"set"`
	Input   string          `json:"input"`
	Output  string          `json:"output,omitempty"`
	DryRun  bool            `json:"dry_run,omitempty"`
	Changes []xpatch.Change `json:"changes"`
}

// NewPatchCommand creates the patch command.
func NewPatchCommand() *cobra.Command {
	opts := &PatchOptions{}
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Patch one configure-generated pyconfig.h for a configuration set",
		Long: `Apply the feature rules for one configuration set to a pyconfig.h
produced by configure, and write the result.

Features listed as enabled become "#define NAME 1", disabled ones become
"/* #undef NAME */", and discarded ones are removed together with the
comment that describes them.`,
		Example: `  # Patch the Linux x86_64 header
  pyconfgen patch --set linux_x86_64 --input build/pyconfig.h --output out/pyconfig_linux_x86_64.h

  # Show what would change using a legacy INI rules file
  pyconfgen patch --set x86 --input build/pyconfig.h --features xpatch.ini --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Set, "set", "", "Configuration set or legacy ABI name")
	cmd.Flags().StringVar(&opts.Input, "input", "", "configure-generated pyconfig.h")
	cmd.Flags().StringVar(&opts.Output, "output-file", "", "Patched header to write")
	cmd.Flags().StringVar(&opts.Features, "features", "", "Feature rules file (default: features from config)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report changes without writing")
	_ = cmd.MarkFlagRequired("set")
	_ = cmd.MarkFlagRequired("input")

	_ = cmd.RegisterFlagCompletionFunc("set", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		sets := platform.Sets()
		names := make([]string, len(sets))
		for i, s := range sets {
			names[i] = string(s)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runPatch(cmd *cobra.Command, opts *PatchOptions) error {
	cctx := NewCommandContextWithoutEngine(cmd)
	r := cctx.Renderer

	set, err := platform.ParseConfigSet(opts.Set)
	if err != nil {
		return err
	}
	if opts.Output == "" && !opts.DryRun {
		return errors.New("--output-file is required unless --dry-run is set")
	}

	featuresFile := opts.Features
	if featuresFile == "" {
		featuresFile = cctx.Cfg.Features
	}
	features, err := xpatch.LoadFeatures(featuresFile)
	if err != nil {
		return err
	}
	rules := features.For(set)

	var res *xpatch.Result
	if opts.DryRun {
		f, err := os.Open(opts.Input) //nolint:gosec // user-supplied input path
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		res, err = xpatch.Patch(f, rules)
		if err != nil {
			return err
		}
		if _, err := res.Bytes(); err != nil {
			return err
		}
	} else {
		res, err = xpatch.PatchFile(opts.Input, opts.Output, rules)
		if err != nil {
			return err
		}
	}
	cctx.Logger.Info("patched header", "set", set, "input", opts.Input, "output", opts.Output, "changes", len(res.Changes))

	out := PatchOutput{
		Set:     string(set),
		Input:   opts.Input,
		Output:  opts.Output,
		DryRun:  opts.DryRun,
		Changes: res.Changes,
	}
	if r.EffectiveMode() == output.ModeJSON {
		if out.Changes == nil {
			out.Changes = []xpatch.Change{}
		}
		return r.JSON(out)
	}
	renderChanges(r, res.Changes)

	r.Println()
	switch {
	case opts.DryRun:
		r.Muted(fmt.Sprintf("%d changes (dry run, nothing written)", len(res.Changes)))
	default:
		r.Success(fmt.Sprintf("Wrote %s (%d changes)", opts.Output, len(res.Changes)))
	}
	return nil
}

func renderChanges(r *output.Renderer, changes []xpatch.Change) {
	if len(changes) == 0 {
		r.Muted("No changes")
		return
	}
	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{strconv.Itoa(c.Line), c.Kind.String(), c.Feature, c.Old, c.New})
	}
	r.Table([]string{"Line", "Change", "Feature", "Old", "New"}, rows)
}
