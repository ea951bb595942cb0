package cmd

import (
	"fmt"
	"time"

	"github.com/ahertel/flowatlas/internal/ingest"
	"github.com/ahertel/flowatlas/internal/store"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dump.json>",
	Short: "Load an indexed graph dump into the store",
	Long: `Load the JSON graph dump produced by the external indexing pipeline
(modules, definitions, call edges, interactions, aspect metadata) into
the .flowatlas index database, replacing any previous contents.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(projectDir)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		result, err := ingest.Run(st, args[0])
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}

		fmt.Printf("Ingest complete!\n")
		fmt.Printf("  Modules:      %d\n", result.ModuleCount)
		fmt.Printf("  Definitions:  %d\n", result.DefinitionCount)
		fmt.Printf("  Call edges:   %d\n", result.EdgeCount)
		fmt.Printf("  Interactions: %d\n", result.InteractionCount)
		fmt.Printf("  Duration:     %s\n", result.Duration.Round(time.Millisecond))
		fmt.Printf("  Database:     %s\n", result.DBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
