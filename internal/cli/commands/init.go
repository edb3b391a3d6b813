package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/pyconfgen/internal/cli/config"
	"github.com/leapstack-labs/pyconfgen/internal/fsutil"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
	"github.com/leapstack-labs/pyconfgen/internal/xpatch"
)

// projectFile is the starter pyconfgen.yaml written by init.
type projectFile struct {
	Features  string                `yaml:"features"`
	OutputDir string                `yaml:"output_dir"`
	StatePath string                `yaml:"state_path"`
	Targets   []config.TargetConfig `yaml:"targets"`
}

// configureHeader is the file configure produces.
const configureHeader = platform.StableName + ".h"

const projectHeader = `# pyconfgen project file.
# Each target patches a configure-generated pyconfig.h for one
# configuration set. Run 'pyconfgen sets' to list the sets.
`

const featuresHeader = `# Feature rules. "all" applies to every configuration set; a section
# named after a set (or a legacy ABI name such as x86_64) adds to it.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new pyconfgen project",
		Long: `Initialize a new pyconfgen project.

This creates:
  - pyconfgen.yaml with one target per configuration set
  - xpatch.yaml with empty feature rules`,
		Example: `  # Initialize in current directory
  pyconfgen init

  # Initialize in a new directory
  pyconfgen init my-project

  # Force overwrite existing files
  pyconfgen init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	projectPath := filepath.Join(dir, config.ConfigFileName)
	featuresPath := filepath.Join(dir, config.DefaultFeatures)
	if !force {
		for _, p := range []string{projectPath, featuresPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists. Use --force to overwrite", p)
			}
		}
	}

	project := projectFile{
		Features:  config.DefaultFeatures,
		OutputDir: config.DefaultOutputDir,
		StatePath: config.DefaultStateFile,
	}
	for _, set := range platform.Sets() {
		project.Targets = append(project.Targets, config.TargetConfig{
			Set:   string(set),
			Input: filepath.ToSlash(filepath.Join("configure", string(set), configureHeader)),
		})
	}

	features := map[string]xpatch.Rules{
		xpatch.SectionAll: {Enabled: []string{}, Disabled: []string{}, Discarded: []string{}},
	}

	if err := writeYAML(projectPath, projectHeader, project); err != nil {
		return err
	}
	r.StatusLine(config.ConfigFileName, "success", "")
	if err := writeYAML(featuresPath, featuresHeader, features); err != nil {
		return err
	}
	r.StatusLine(config.DefaultFeatures, "success", "")

	r.Println()
	r.Success("pyconfgen project initialized!")
	r.Println()
	r.Println("Next steps:")
	r.Println("  1. Put each configure-generated pyconfig.h under configure/<set>/")
	r.Println("  2. Add feature rules to " + config.DefaultFeatures)
	r.Println("  3. Run 'pyconfgen generate'")

	return nil
}

func writeYAML(path, comment string, v any) error {
	var buf bytes.Buffer
	buf.WriteString(comment)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0644)
}
