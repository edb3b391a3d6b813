package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/engine"
)

// StatusOutput is the JSON output for the status command.
type StatusOutput struct {
	LastRun   *LastRunInfo            `json:"last_run,omitempty"`
	Artifacts []engine.ArtifactStatus `json:"artifacts"`
}

// LastRunInfo summarises the most recent recorded run.
type LastRunInfo struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
	Error     string `json:"error,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether generated headers are up to date",
		Long: `Report each configured target and the dispatch header as fresh,
stale, missing or untracked, based on the hashes recorded by the last
generate run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	cctx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cctx.Engine
	r := cctx.Renderer

	arts, err := eng.Status(cmd.Context())
	if err != nil {
		return err
	}
	out := StatusOutput{Artifacts: arts}

	run, err := eng.LatestRun(cmd.Context())
	if err != nil {
		return err
	}
	if run != nil {
		out.LastRun = &LastRunInfo{
			ID:        run.ID,
			Status:    run.Status,
			StartedAt: run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			Error:     run.Error,
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	rows := make([][]string, 0, len(arts))
	for _, a := range arts {
		set := a.Set
		if set == "" {
			set = "(dispatch)"
		}
		rows = append(rows, []string{set, a.Path, a.State, a.Reason})
	}
	r.Table([]string{"Set", "Path", "State", "Reason"}, rows)

	if out.LastRun != nil {
		r.Println()
		r.KeyValue("Last run", out.LastRun.StartedAt+" ("+out.LastRun.Status+")")
		if out.LastRun.Error != "" {
			r.KeyValue("Error", out.LastRun.Error)
		}
	}
	return nil
}
