package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/groove/internal/groove"
)

var groovesCmd = &cobra.Command{
	Use:   "grooves",
	Short: "Print the groove catalogue as step grids",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, n := range groove.Names() {
			g, err := groove.Lookup(n)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n%s\n", n, g)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groovesCmd)
}
