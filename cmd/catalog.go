package cmd

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cube2222/partiplan/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the tables of the configured catalog.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		tables, err := cfg.Catalog()
		if err != nil {
			return err
		}
		printTables(cmd.OutOrStdout(), tables.Tables())
		return nil
	},
}

func printTables(w io.Writer, tables []catalog.Table) {
	table := tablewriter.NewWriter(w)
	table.SetColWidth(48)
	table.SetRowLine(false)
	table.SetHeader([]string{"name", "id", "type", "primary key"})
	table.SetAutoFormatHeaders(false)
	for _, t := range tables {
		table.Append([]string{t.Name, t.ID, t.Type.String(), strings.Join(t.PrimaryKey, ", ")})
	}
	table.Render()
}

func init() {
	addConfigFlag(catalogCmd)
	rootCmd.AddCommand(catalogCmd)
}
