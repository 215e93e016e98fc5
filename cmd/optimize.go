package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/cube2222/partiplan/catalog"
	"github.com/cube2222/partiplan/diagnostics"
	"github.com/cube2222/partiplan/graph"
	"github.com/cube2222/partiplan/optimizer"
	"github.com/cube2222/partiplan/partiplan"
	"github.com/cube2222/partiplan/physical"
	"github.com/cube2222/partiplan/typecheck"
)

var optimizeTable string
var optimizeWhere []string
var optimizeDot bool

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run the configured passes over a filtered scan of each catalog table.",
	Long: `Builds a plan filtering a scan of each table, types it and runs the configured optimizer passes over it.
Without --where the filter is an equality on every primary key field.`,
	Example: `partiplan optimize --table orders --where id=42 --where status=shipped
partiplan optimize --dot | dot -Tpng > plan.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		tables, err := cfg.Catalog()
		if err != nil {
			return err
		}

		var selected []catalog.Table
		if optimizeTable != "" {
			table, err := tables.Get(optimizeTable)
			if err != nil {
				return err
			}
			selected = append(selected, table)
		} else {
			selected = tables.Tables()
		}

		opt, err := optimizer.New(cfg.Optimizer, optimizer.Environment{Tables: tables}, log)
		if err != nil {
			return errors.Wrap(err, "couldn't create optimizer")
		}

		for _, table := range selected {
			plan, err := demonstrationPlan(table, optimizeWhere)
			if err != nil {
				return err
			}

			sink := &diagnostics.LoggingSink{Log: log.WithField("table", table.Name)}
			typed, collector := typecheck.Check(plan, tables)
			for _, d := range collector.Diagnostics() {
				sink.Report(d)
			}
			if collector.HasErrors() {
				return errors.Errorf("couldn't typecheck plan for table %s", table.Name)
			}

			optimized := opt.Optimize(cmd.Context(), typed, sink)
			if err := physical.Validate(optimized); err != nil {
				return errors.Wrapf(err, "optimizer produced an invalid plan for table %s", table.Name)
			}

			if optimizeDot {
				g, err := graph.Show(optimized.Visualize())
				if err != nil {
					return errors.Wrap(err, "couldn't render plan")
				}
				fmt.Fprintln(cmd.OutOrStdout(), g.String())
				continue
			}
			fmt.Fprint(cmd.OutOrStdout(), physical.Describe(optimized))
		}
		return nil
	},
}

// demonstrationPlan filters a scan of the table by the given key=value conditions.
func demonstrationPlan(table catalog.Table, where []string) (physical.Node, error) {
	const as = "t"
	record := physical.NewVariable(as, partiplan.Dynamic)

	var conjuncts []physical.Expression
	if len(where) == 0 {
		for _, key := range table.PrimaryKey {
			fieldType, _ := table.RecordType().FieldType(key, false)
			conjuncts = append(conjuncts, physical.NewEq(
				physical.NewPath(record, physical.Step(key)),
				physical.NewConstant(sampleValue(fieldType)),
			))
		}
	}
	for _, condition := range where {
		parts := strings.SplitN(condition, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return physical.Node{}, errors.Errorf("invalid condition '%s', expected field=value", condition)
		}
		conjuncts = append(conjuncts, physical.NewEq(
			physical.NewPath(record, physical.Step(parts[0])),
			physical.NewConstant(parseValue(parts[1])),
		))
	}

	return physical.NewFilter(
		physical.NewScan(physical.NewGlobal("", table.Name, partiplan.Dynamic), as),
		physical.JoinByAnd(conjuncts),
	), nil
}

func parseValue(text string) partiplan.Value {
	if i, err := cast.ToInt64E(text); err == nil {
		return partiplan.NewInt(i)
	}
	if text == "true" || text == "false" {
		return partiplan.NewBool(cast.ToBool(text))
	}
	if strings.Contains(text, ".") {
		if d, err := partiplan.ParseDecimal(text); err == nil {
			return d
		}
	}
	return partiplan.NewString(text)
}

// sampleValue is a constant comparable with values of the type.
func sampleValue(t partiplan.Type) partiplan.Value {
	t = partiplan.Flatten(t)
	switch {
	case t.IsNumeric():
		return partiplan.NewInt(1)
	case t.IsText():
		return partiplan.NewString("key")
	case t.TypeID == partiplan.TypeIDBool:
		return partiplan.NewBool(true)
	}
	return partiplan.NewNull()
}

func init() {
	addConfigFlag(optimizeCmd)
	optimizeCmd.Flags().StringVar(&optimizeTable, "table", "", "Only optimize the plan of this table.")
	optimizeCmd.Flags().StringArrayVar(&optimizeWhere, "where", nil, "Equality condition field=value, may be repeated.")
	optimizeCmd.Flags().BoolVar(&optimizeDot, "dot", false, "Print the optimized plan in graphviz format.")
	rootCmd.AddCommand(optimizeCmd)
}
