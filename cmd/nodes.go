package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the registered node types",
	Long: `List every node type the standard registry knows. These are the type
names documents reference; a document using any other name fails to load.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range standardRegistry().Types() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}
