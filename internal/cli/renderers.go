package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visualtest/pkg/mapstyle"
	"github.com/matzehuels/visualtest/pkg/renderer"
)

// renderersCommand lists the compiled-in backends.
func (c *CLI) renderersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "renderers",
		Short: "List compiled-in renderers and data source types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeRenderers(cmd.OutOrStdout())
		},
	}
}

func writeRenderers(w io.Writer) error {
	var rows [][]string
	for _, k := range renderer.Available() {
		r, err := renderer.New(k)
		if err != nil {
			return err
		}
		tiles := "-"
		if r.SupportsTiles() {
			tiles = iconSuccess
		}
		rows = append(rows, []string{r.Name(), r.Ext(), tiles})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Renderer", "Output", "Tiles").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 0 {
				return StyleHighlight.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		})

	fmt.Fprintln(w, StyleTitle.Render("Renderers"))
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render("Data sources: "+strings.Join(mapstyle.DatasourceTypes(), ", ")))
	return nil
}

// completeRenderers completes --renderer values.
func completeRenderers(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	kinds := renderer.Available()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
