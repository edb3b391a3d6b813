package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/catalog"
	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
)

// PopulateOptions holds options for the populate command.
type PopulateOptions struct {
	Catalog   string
	InputDir  string
	OutputDir string
	Jobs      int
	List      bool
}

// PopulateOutput is the JSON output for the populate command.
type PopulateOutput struct {
	Copied  int            `json:"copied"`
	Skipped int            `json:"skipped"`
	Items   []catalog.Item `json:"items"`
}

// NewPopulateCommand creates the populate command.
func NewPopulateCommand() *cobra.Command {
	opts := &PopulateOptions{}
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Copy the runtime sources listed in a catalog",
		Long: `Copy every source file listed in a JSON catalog from a CPython source
tree into an output tree.

Each catalog entry loses its first two path components
("Python-3.7.0/./Include/Python.h" becomes "Include/Python.h"). Extra
files (LICENSE by default) are appended. Optional files are skipped when
missing; any other missing file is an error.

Flags override the catalog section of pyconfgen.yaml.`,
		Example: `  # Copy using the catalog section of pyconfgen.yaml
  pyconfgen populate

  # Explicit paths
  pyconfgen populate --catalog sources.json --input-dir Python-3.7.0 --output-dir dist/python`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPopulate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "JSON catalog of source files")
	cmd.Flags().StringVar(&opts.InputDir, "input-dir", "", "Source tree to copy from")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "Tree to copy into")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Concurrent copies (default: jobs from config, else 4)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "List every entry instead of a summary")

	return cmd
}

func runPopulate(cmd *cobra.Command, opts *PopulateOptions) error {
	cctx := NewCommandContextWithoutEngine(cmd)
	r := cctx.Renderer

	popts := cctx.Cfg.CatalogOptions()
	popts.Logger = cctx.Logger
	if opts.Catalog != "" {
		popts.CatalogFile = opts.Catalog
	}
	if opts.InputDir != "" {
		popts.InputDir = opts.InputDir
	}
	if opts.OutputDir != "" {
		popts.OutputDir = opts.OutputDir
	}
	if opts.Jobs > 0 {
		popts.Jobs = opts.Jobs
	}

	switch {
	case popts.CatalogFile == "":
		return errors.New("no catalog given: use --catalog or set catalog.file")
	case popts.InputDir == "":
		return errors.New("no input tree given: use --input-dir or set catalog.input")
	case popts.OutputDir == "":
		return errors.New("no output tree given: use --output-dir or set catalog.output")
	}

	res, err := catalog.Populate(cmd.Context(), popts)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(PopulateOutput{Copied: res.Copied(), Skipped: res.Skipped(), Items: res.Items})
	}

	if opts.List {
		for _, it := range res.Items {
			if it.Skipped {
				r.StatusLine(it.Path, "skipped", "optional, not present")
				continue
			}
			r.StatusLine(it.Path, "success", "")
		}
		r.Println()
	} else {
		for _, it := range res.Items {
			if it.Skipped {
				r.StatusLine(it.Path, "skipped", "optional, not present")
			}
		}
	}
	r.Success(fmt.Sprintf("Copied %d files into %s", res.Copied(), popts.OutputDir))
	return nil
}
