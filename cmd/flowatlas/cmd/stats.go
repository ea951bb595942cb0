package cmd

import (
	"fmt"

	"github.com/ahertel/flowatlas/internal/store"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(projectDir)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return err
		}

		if statsJSON {
			return printJSON(stats)
		}
		fmt.Printf("Index: %s\n", st.DBPath())
		fmt.Printf("  Modules:      %d\n", stats.ModuleCount)
		fmt.Printf("  Definitions:  %d\n", stats.DefinitionCount)
		fmt.Printf("  Call edges:   %d\n", stats.CallEdgeCount)
		fmt.Printf("  Interactions: %d\n", stats.InteractionCount)
		fmt.Printf("  Aspects:      %d\n", stats.AspectCount)
		fmt.Printf("  Flows:        %d\n", stats.FlowCount)
		if !stats.IngestedAt.IsZero() {
			fmt.Printf("  Ingested:     %s\n", stats.IngestedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(statsCmd)
}
