package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querylint/internal/cli/config"
	"github.com/leapstack-labs/querylint/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a querylint.yaml and a schema skeleton",
		Long: `Initialize a querylint project.

This creates:
  - querylint.yaml with the manifest, schema and lint settings
  - schema.yaml, a static schema to fill with your tables and indexes

Use --example to also write a small host file with its manifest, ready for
'querylint analyze' and 'querylint fix'.`,
		Example: `  # Initialize in the current directory
  querylint init

  # Try querylint on a working example
  querylint init demo --example && cd demo && querylint analyze`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cc := NewCommandContextWithoutEngine(cmd)
			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(cc.Renderer, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Add an example host file and manifest")
	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	written, skipped, err := copyTemplate(template, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"dir": dir, "written": written, "skipped": skipped})
	}
	for _, f := range written {
		r.Success(f)
	}
	for _, f := range skipped {
		r.Println(r.Styles().Muted.Render("  " + f + " exists, kept"))
	}
	r.Println("")
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  querylint analyze     Report the issues in app.rb")
		r.Println("  querylint fix -n      Preview the rewrites")
		return nil
	}
	r.Println("  1. Describe your tables and indexes in schema.yaml, or set database.url")
	r.Println("  2. Generate querylint.manifest.yaml with your host scanner")
	r.Println("  3. Run 'querylint analyze'")
	return nil
}
