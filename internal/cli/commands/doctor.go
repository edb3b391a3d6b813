package commands

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/pyconfgen/internal/catalog"
	"github.com/leapstack-labs/pyconfgen/internal/cli/config"
	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/engine"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
	"github.com/leapstack-labs/pyconfgen/internal/xpatch"
)

// Health check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the project for configuration problems",
		Long: `Check pyconfgen.yaml, the feature file, the configure inputs and the
generated headers, and report a health score with recommendations.

Unlike generate, doctor keeps going after the first problem so that every
issue is listed at once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// HealthCheck is the result of one check.
type HealthCheck struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"`
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func newCheck(id, group, name, severity string, details []string) HealthCheck {
	status := checkPass
	if len(details) > 0 {
		status = severity
	}
	return HealthCheck{ID: id, Name: name, Group: group, Status: status, IssueCount: len(details), Details: details}
}

func runDoctor(cmd *cobra.Command) error {
	cctx := NewCommandContextWithoutEngine(cmd)
	out := buildDoctorOutput(cmd, cctx.Cfg)

	r := cctx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	renderDoctor(r, out)
	return nil
}

func buildDoctorOutput(cmd *cobra.Command, cfg *config.Config) *DoctorOutput {
	var checks []HealthCheck

	features, ferr := xpatch.LoadFeatures(cfg.Features)
	var loadIssues []string
	if ferr != nil {
		loadIssues = append(loadIssues, ferr.Error())
	}
	checks = append(checks, newCheck("FT01", "features", "Feature file loads", checkError, loadIssues))
	if features != nil {
		checks = append(checks,
			newCheck("FT02", "features", "Sections name known configuration sets", checkWarn, unknownSections(features)),
			newCheck("FT03", "features", "Feature lists do not overlap", checkWarn, overlappingFeatures(features)),
		)
	}

	var noTargets []string
	if len(cfg.Targets) == 0 {
		noTargets = append(noTargets, "no targets in "+config.ConfigFileName)
	}
	checks = append(checks,
		newCheck("PJ01", "project", "Targets configured", checkError, noTargets),
		newCheck("PJ02", "project", "Target inputs exist", checkError, missingInputs(cfg.Targets)),
	)

	if ferr == nil && len(cfg.Targets) > 0 {
		checks = append(checks, outputChecks(cmd, cfg)...)
	}

	if cfg.Catalog != nil {
		var issues []string
		if err := checkCatalog(cfg); err != nil {
			issues = append(issues, err.Error())
		}
		checks = append(checks, newCheck("CT01", "catalog", "Catalog entries are valid", checkError, issues))
	}

	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].ID < checks[j].ID
	})

	issueCount := 0
	for _, c := range checks {
		issueCount += c.IssueCount
	}
	return &DoctorOutput{
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issueCount,
	}
}

func unknownSections(f *xpatch.Features) []string {
	known := map[string]bool{xpatch.SectionAll: true}
	for _, set := range platform.Sets() {
		known[string(set)] = true
		for _, alias := range platform.Aliases(set) {
			known[alias] = true
		}
	}

	var issues []string
	for _, name := range f.SectionNames() {
		if !known[name] {
			issues = append(issues, fmt.Sprintf("section [%s] matches no configuration set", name))
		}
	}
	return issues
}

func overlappingFeatures(f *xpatch.Features) []string {
	var issues []string
	for _, name := range f.SectionNames() {
		rules := f.Sections[name]
		lists := []struct {
			label string
			names []string
		}{
			{"enabled", rules.Enabled},
			{"disabled", rules.Disabled},
			{"discarded", rules.Discarded},
		}
		for i := range lists {
			for j := i + 1; j < len(lists); j++ {
				for _, feat := range lists[i].names {
					if slices.Contains(lists[j].names, feat) {
						issues = append(issues, fmt.Sprintf("[%s] %s is both %s and %s",
							name, feat, lists[i].label, lists[j].label))
					}
				}
			}
		}
	}
	return issues
}

func missingInputs(targets []config.TargetConfig) []string {
	var issues []string
	for _, t := range targets {
		if t.Input == "" {
			continue
		}
		if _, err := os.Stat(t.Input); err != nil {
			issues = append(issues, fmt.Sprintf("%s: input %s not found", t.Set, t.Input))
		}
	}
	return issues
}

// outputChecks opens the engine and compares generated headers with the
// recorded state.
func outputChecks(cmd *cobra.Command, cfg *config.Config) []HealthCheck {
	eng, err := createEngine(cfg, config.GetLogger(cmd.Context()))
	if err != nil {
		return []HealthCheck{newCheck("OT01", "outputs", "Engine configuration is valid", checkError, []string{err.Error()})}
	}
	defer func() { _ = eng.Close() }()

	arts, err := eng.Status(cmd.Context())
	if err != nil {
		return []HealthCheck{newCheck("OT01", "outputs", "Engine configuration is valid", checkError, []string{err.Error()})}
	}

	var stale []string
	for _, a := range arts {
		switch a.State {
		case engine.StateFresh, engine.StateUntracked:
		default:
			line := fmt.Sprintf("%s is %s", a.Path, a.State)
			if a.Reason != "" {
				line += " (" + a.Reason + ")"
			}
			stale = append(stale, line)
		}
	}
	return []HealthCheck{
		newCheck("OT01", "outputs", "Engine configuration is valid", checkError, nil),
		newCheck("OT02", "outputs", "Generated headers are up to date", checkWarn, stale),
	}
}

func checkCatalog(cfg *config.Config) error {
	opts := cfg.CatalogOptions()
	if opts.CatalogFile == "" {
		return errors.New("catalog.file is not set")
	}
	entries, err := catalog.Load(opts.CatalogFile)
	if err != nil {
		return err
	}
	_, err = catalog.Plan(entries, opts)
	return err
}

// calculateHealthScore computes a score from 0 to 100. Each warning costs
// ten points and each error twenty.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, c := range checks {
		switch c.Status {
		case checkError:
			score -= 20 * c.IssueCount
		case checkWarn:
			score -= 10 * c.IssueCount
		}
	}
	return max(score, 0)
}

var recommendations = map[string]string{
	"FT01": "Fix the feature file syntax, or run 'pyconfgen init' to write a starter xpatch.yaml",
	"FT02": "Rename or remove feature sections that match no configuration set (see 'pyconfgen sets')",
	"FT03": "List each feature in only one of enabled, disabled or discarded per section",
	"PJ01": "Add targets to " + config.ConfigFileName + " or run 'pyconfgen init'",
	"PJ02": "Run configure for each target so its pyconfig.h input exists",
	"OT01": "Fix the target list so every set and output is unique",
	"OT02": "Run 'pyconfgen generate' to refresh stale headers",
	"CT01": "Fix the catalog file; every entry must name a file under the source root",
}

// generateRecommendations returns one recommendation per failing check,
// at most five.
func generateRecommendations(checks []HealthCheck) []string {
	var recs []string
	for _, c := range checks {
		if c.IssueCount == 0 {
			continue
		}
		if rec, ok := recommendations[c.ID]; ok {
			recs = append(recs, rec)
		}
	}
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) {
	r.Header(1, "Project Health Report")

	detailLine := func(s string) {
		if r.EffectiveMode() == output.ModeText {
			r.Muted("    " + s)
			return
		}
		r.Println("  - " + s)
	}

	titleCaser := cases.Title(language.English)
	group := ""
	for _, c := range out.HealthChecks {
		if c.Group != group {
			if group != "" {
				r.Println()
			}
			group = c.Group
			r.Header(2, titleCaser.String(group))
		}

		status := "success"
		detail := ""
		switch c.Status {
		case checkWarn:
			status = "warning"
		case checkError:
			status = "error"
		}
		if c.IssueCount > 0 {
			detail = fmt.Sprintf("%d issues", c.IssueCount)
		}
		r.StatusLine(c.ID+" "+c.Name, status, detail)
		for i, d := range c.Details {
			if i == 3 {
				detailLine(fmt.Sprintf("... and %d more", len(c.Details)-3))
				break
			}
			detailLine(d)
		}
	}
	r.Println()
	r.KeyValue("Health score", fmt.Sprintf("%d/100", out.Score))

	if len(out.Recommendations) > 0 {
		r.Println()
		r.Header(2, "Recommendations")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
	}
}
