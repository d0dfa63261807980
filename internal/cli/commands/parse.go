package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querylint/internal/cli/output"
	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/query"
)

// ParseOutput is the JSON output of the parse command.
type ParseOutput struct {
	Statement  string          `json:"statement"`
	Tables     []string        `json:"tables"`
	AllTables  []string        `json:"all_tables"`
	Where      []ConditionInfo `json:"where"`
	Joins      []ConditionInfo `json:"joins"`
	Star       bool            `json:"select_star"`
	Limit      bool            `json:"limit"`
	GroupBy    bool            `json:"group_by"`
	Aggregate  bool            `json:"aggregate"`
	Subqueries int             `json:"subqueries"`
}

// ConditionInfo is one WHERE or JOIN comparison.
type ConditionInfo struct {
	Operator string   `json:"operator"`
	Operands []string `json:"operands"`
	Text     string   `json:"text"`
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [sql]",
		Short: "Show how a SQL statement is understood",
		Long: `Parse one SQL statement and print the facts the rules work from:
the tables it reads, its WHERE and JOIN comparisons and its shape.

The statement is read from the argument, or from standard input when no
argument is given.`,
		Example: `  querylint parse "SELECT * FROM isu WHERE jia_user_id = ? ORDER BY id DESC"
  echo 'SELECT u.id FROM users u JOIN comments c ON c.user_id = u.id' | querylint parse`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql := ""
			if len(args) == 1 {
				sql = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read SQL: %w", err)
				}
				sql = string(data)
			}
			if strings.TrimSpace(sql) == "" {
				return fmt.Errorf("no SQL given")
			}

			cc := NewCommandContextWithoutEngine(cmd)
			m, err := query.Parse(sql, cc.Cfg.Placeholder)
			if err != nil {
				return err
			}
			return renderParse(cc.Renderer, describe(m))
		},
	}
}

func statementKind(s parser.Statement) string {
	switch s.(type) {
	case *parser.SelectStmt:
		return "SELECT"
	case *parser.InsertStmt:
		return "INSERT"
	case *parser.UpdateStmt:
		return "UPDATE"
	case *parser.DeleteStmt:
		return "DELETE"
	}
	return "UNKNOWN"
}

func describe(m *query.Model) ParseOutput {
	out := ParseOutput{
		Statement: statementKind(m.Statement()),
		Tables:    nonNil(m.TableNames()),
		AllTables: nonNil(m.AllTableNames()),
		Where:     []ConditionInfo{},
		Joins:     []ConditionInfo{},
		Star:      len(m.StarFields()) > 0,
		Limit:     m.HasLimit(),
		GroupBy:   m.HasGroupBy(),
		Aggregate: m.HasAggregate(),
	}
	sql := m.SQL()
	for _, c := range m.WhereConditions() {
		out.Where = append(out.Where, ConditionInfo{Operator: c.Operator, Operands: c.Operands, Text: c.Text(sql)})
	}
	for _, j := range m.JoinConditions() {
		info := ConditionInfo{Operator: j.Operator, Text: j.Span.Text(sql)}
		for _, o := range j.Operands {
			info.Operands = append(info.Operands, o.TableName+"."+o.ColumnName)
		}
		out.Joins = append(out.Joins, info)
	}
	m.VisitAll(func(*query.Model) { out.Subqueries++ })
	out.Subqueries-- // VisitAll includes the statement itself
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func renderParse(r *output.Renderer, p ParseOutput) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(p)
	case output.ModeTable:
		r.Table(table.Row{"Property", "Value"}, []table.Row{
			{"Statement", p.Statement},
			{"Tables", strings.Join(p.Tables, ", ")},
			{"All tables", strings.Join(p.AllTables, ", ")},
			{"SELECT *", p.Star},
			{"LIMIT", p.Limit},
			{"GROUP BY", p.GroupBy},
			{"Aggregate", p.Aggregate},
			{"Subqueries", p.Subqueries},
		})
	default:
		st := r.Styles()
		r.Println(st.Header.Render(p.Statement))
		r.Printf("  %s: %s\n", st.Bold.Render("Tables"), strings.Join(p.Tables, ", "))
		if len(p.AllTables) > len(p.Tables) {
			r.Printf("  %s: %s\n", st.Bold.Render("All tables"), strings.Join(p.AllTables, ", "))
		}
		var shape []string
		for _, f := range []struct {
			on   bool
			name string
		}{{p.Star, "SELECT *"}, {p.Limit, "LIMIT"}, {p.GroupBy, "GROUP BY"}, {p.Aggregate, "aggregate"}} {
			if f.on {
				shape = append(shape, f.name)
			}
		}
		if len(shape) > 0 {
			r.Printf("  %s: %s\n", st.Bold.Render("Shape"), strings.Join(shape, ", "))
		}
		if p.Subqueries > 0 {
			r.Printf("  %s: %d\n", st.Bold.Render("Subqueries"), p.Subqueries)
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return nil
	}
	if len(p.Where) > 0 {
		r.Println("")
		r.Table(table.Row{"Where", "Operator", "Operands"}, conditionRows(p.Where))
	}
	if len(p.Joins) > 0 {
		r.Println("")
		r.Table(table.Row{"Join", "Operator", "Operands"}, conditionRows(p.Joins))
	}
	return nil
}

func conditionRows(conds []ConditionInfo) []table.Row {
	rows := make([]table.Row, 0, len(conds))
	for _, c := range conds {
		rows = append(rows, table.Row{c.Text, c.Operator, strings.Join(c.Operands, ", ")})
	}
	return rows
}
