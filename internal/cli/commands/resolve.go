package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

// ResolveOptions holds options for the resolve command.
type ResolveOptions struct {
	OS   string
	Arch string
}

// ResolveOutput is the JSON output for the resolve command.
type ResolveOutput struct {
	Family string `json:"family"`
	Arch   string `json:"arch"`
	Set    string `json:"set"`
	Header string `json:"header"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	opts := &ResolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a platform to its configuration set",
		Long: `Resolve an operating system family and CPU architecture to the
configuration set whose header the dispatch pyconfig.h would include.

Either flag may be omitted; the missing axis is taken from the host.
Architecture is only consulted for linux.`,
		Example: `  # Resolve the host
  pyconfgen resolve

  # Resolve a cross target
  pyconfgen resolve --os linux --arch arm64

  # Machine-readable
  pyconfgen resolve --os darwin -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.OS, "os", "", "OS family (windows, linux, macos or a GOOS value)")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "CPU architecture (x86_64, i686, aarch64, arm or a GOARCH value)")

	_ = cmd.RegisterFlagCompletionFunc("os", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(platform.FamilyWindows), string(platform.FamilyLinux), string(platform.FamilyMacOS)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("arch", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(platform.ArchX86_64), string(platform.ArchI686), string(platform.ArchAArch64), string(platform.ArchARM)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runResolve(cmd *cobra.Command, opts *ResolveOptions) error {
	cctx := NewCommandContextWithoutEngine(cmd)
	r := cctx.Renderer

	d := platform.Host()
	if opts.OS != "" {
		d.Family = platform.ParseFamily(opts.OS)
	}
	if opts.Arch != "" {
		d.Arch = platform.ParseArch(opts.Arch)
	}

	set, err := platform.Resolve(d)
	if err != nil {
		cctx.Logger.Debug("resolution failed", "descriptor", d.String(), "error", err)
		return err
	}
	cctx.Logger.Debug("resolved", "descriptor", d.String(), "set", set)

	out := ResolveOutput{
		Family: string(d.Family),
		Arch:   string(d.Arch),
		Set:    string(set),
		Header: set.Header(),
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatKeyValue("Platform", d.String()))
		r.Println(output.FormatKeyValue("Set", out.Set))
		r.Println(output.FormatKeyValue("Header", out.Header))
	default:
		r.Println(out.Set)
		r.Muted(d.String() + " -> " + out.Header)
	}
	return nil
}
