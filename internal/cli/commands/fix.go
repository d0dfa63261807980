package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querylint/internal/cli/output"
	"github.com/leapstack-labs/querylint/internal/engine"
)

// FixOptions holds options for the fix command.
type FixOptions struct {
	RuleSelection
	MaxPasses int
	DryRun    bool
	Diff      bool
}

// NewFixCommand creates the fix command.
func NewFixCommand() *cobra.Command {
	opts := &FixOptions{}
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Apply the suggested rewrites to the host files",
		Long: `Apply the fixes offered by the rules and write the host files in place.

Within one pass fixes are taken in file order; a fix that touches text
already rewritten in that pass is left for the next pass. Passes repeat
until nothing changes or --max-passes is reached.`,
		Example: `  # Show what would change
  querylint fix --dry-run

  # Only batch N+1 lookups
  querylint fix --rule PF05`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFix(cmd, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", engine.DefaultMaxPasses, "Maximum analyze-and-rewrite rounds per file")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Print a diff instead of writing files")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "Print the diff of written files")
	return cmd
}

func runFix(cmd *cobra.Command, opts *FixOptions) error {
	cc, cleanup, err := NewCommandContext(cmd, &opts.RuleSelection)
	if err != nil {
		return err
	}
	defer cleanup()

	m, err := loadManifest(cc.Cfg)
	if err != nil {
		return err
	}
	report, err := cc.Engine.Fix(cmd.Context(), m, engine.FixOptions{
		MaxPasses: opts.MaxPasses,
		DryRun:    opts.DryRun,
	})
	if err != nil {
		return err
	}
	return output.RenderFixReport(cc.Renderer, report, opts.Diff)
}
