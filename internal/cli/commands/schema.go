package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querylint/internal/cli/output"
	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and prepare the verification schema",
		Long: `Commands for the schema the index rules check against.

The schema comes from schema_file when set, otherwise from the database
configured under database.`,
	}
	cmd.AddCommand(newSchemaShowCommand())
	cmd.AddCommand(newSchemaMigrateCommand())
	return cmd
}

func newSchemaShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <table>...",
		Short: "Show the columns, primary key and indexes of tables",
		Example: `  querylint schema show isu users
  querylint schema show isu -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			in := cc.Engine.Introspector(cmd.Context())
			if !in.Enabled() {
				return fmt.Errorf("%w\nHint: set schema_file or database in querylint.yaml", schema.ErrDisabled)
			}

			var tables []*schema.Table
			var missing []string
			for _, name := range args {
				t, err := schema.Describe(cmd.Context(), in, name)
				if schema.IsUnavailable(err) {
					missing = append(missing, name)
					continue
				}
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}
			if err := renderTables(cc.Renderer, tables); err != nil {
				return err
			}
			if len(missing) > 0 {
				return fmt.Errorf("unknown tables: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func renderTables(r *output.Renderer, tables []*schema.Table) error {
	if r.EffectiveMode() == output.ModeJSON {
		if tables == nil {
			tables = []*schema.Table{}
		}
		return r.JSON(map[string]any{"tables": tables})
	}

	st := r.Styles()
	for i, t := range tables {
		if i > 0 {
			r.Println("")
		}
		r.Println(st.Header.Render(t.Name))

		pk := make(map[string]bool, len(t.PrimaryKey))
		for _, c := range t.PrimaryKey {
			pk[c] = true
		}
		rows := make([]table.Row, 0, len(t.Columns))
		for _, c := range t.Columns {
			mark := ""
			if pk[c] {
				mark = "PK"
			}
			rows = append(rows, table.Row{c, mark, strings.Join(indexesOn(t, c), ", ")})
		}
		r.Table(table.Row{"Column", "Key", "Indexes"}, rows)

		if len(t.Indexes) > 0 {
			idx := make([]table.Row, 0, len(t.Indexes))
			for _, ix := range t.Indexes {
				idx = append(idx, table.Row{ix.Name, strings.Join(ix.Columns, ", "), ix.Unique})
			}
			r.Table(table.Row{"Index", "Columns", "Unique"}, idx)
		}
	}
	return nil
}

// indexesOn names the indexes that include column, marking its position.
func indexesOn(t *schema.Table, column string) []string {
	var names []string
	for _, ix := range t.Indexes {
		for pos, c := range ix.Columns {
			if c == column {
				names = append(names, fmt.Sprintf("%s(%d)", ix.Name, pos+1))
			}
		}
	}
	return names
}

func newSchemaMigrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply goose migrations to the verification database",
		Long: `Bring the verification database up to date by applying the SQL
migrations in database.migrations (or --dir) with goose.`,
		Example: `  querylint schema migrate --dir db/migrations`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			if dir == "" {
				dir = cc.Cfg.Database.Migrations
			}
			if dir == "" {
				return errors.New("no migrations directory: set database.migrations or pass --dir")
			}
			a, err := cc.Engine.Adapter(cmd.Context())
			if err != nil {
				return err
			}
			version, err := adapter.Migrate(cmd.Context(), a, dir)
			if err != nil {
				return err
			}
			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(map[string]any{"dir": dir, "version": version})
			}
			cc.Renderer.Success(fmt.Sprintf("Database at version %d", version))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Migrations directory (default: database.migrations)")
	return cmd
}
