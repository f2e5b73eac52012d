package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <document>",
	Short: "Summarize a document's layers and graphs",
	Long: `Inspect loads a document file and prints its layer stack bottom to top,
with each layer's compositing attributes and graph shape. Useful for a
quick look at a file without rendering it.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0], standardRegistry())
	if err != nil {
		return err
	}
	defer doc.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "document: %s\n", doc.Name())
	fmt.Fprintf(out, "layers:   %d\n\n", doc.LayerCount())

	for i, l := range doc.Layers() {
		visibility := "visible"
		if !l.Visible() {
			visibility = "hidden"
		}
		fmt.Fprintf(out, "[%d] %s (%s, opacity %.2f, %s)\n",
			i, l.Name(), visibility, l.Opacity(), l.BlendMode())

		g := l.Graph()
		for _, n := range g.Nodes() {
			marker := " "
			if output, ok := l.OutputNode(); ok && output == n.ID() {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %s %s\n", marker, n.TypeName(), n.ID())
			for name, producer := range n.Inputs() {
				fmt.Fprintf(out, "      %s <- %s\n", name, producer)
			}
		}
		if _, ok := l.OutputNode(); !ok {
			fmt.Fprintln(out, "    (no output node)")
		}
		fmt.Fprintln(out)
	}
	return nil
}
