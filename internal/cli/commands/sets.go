package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

// SetInfo is one row of the sets command output.
type SetInfo struct {
	Family  string   `json:"family"`
	Arch    string   `json:"arch,omitempty"`
	Macros  []string `json:"macros"`
	Set     string   `json:"set"`
	Header  string   `json:"header"`
	Aliases []string `json:"aliases,omitempty"`
}

// NewSetsCommand creates the sets command.
func NewSetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List the supported configuration sets",
		Long: `List every configuration set in decision-table order, with the
compiler macros that select it and the header file it lives in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSets(cmd)
		},
	}
}

func buildSetInfos() []SetInfo {
	entries := platform.Catalog()
	infos := make([]SetInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, SetInfo{
			Family:  string(e.Descriptor.Family),
			Arch:    string(e.Descriptor.Arch),
			Macros:  e.Macros,
			Set:     string(e.Set),
			Header:  e.Set.Header(),
			Aliases: platform.Aliases(e.Set),
		})
	}
	return infos
}

func runSets(cmd *cobra.Command) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer
	infos := buildSetInfos()

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, s := range infos {
		arch := s.Arch
		if arch == "" {
			arch = "*"
		}
		rows = append(rows, []string{s.Family, arch, strings.Join(s.Macros, " && "), s.Set, s.Header})
	}
	r.Table([]string{"Family", "Arch", "Macros", "Set", "Header"}, rows)
	return nil
}
