package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ahertel/flowatlas/internal/config"
	"github.com/ahertel/flowatlas/internal/graph"
	"github.com/ahertel/flowatlas/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	projectDir string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "flowatlas",
	Short: "flowatlas - Annotation readiness and flow tracing over an indexed code graph",
	Long: `flowatlas layers two analytical engines on top of an indexed
call/definition graph: an annotation-readiness engine that orders
annotation work dependencies-first and detects blocking cycles, and a
flow tracer that reconstructs end-to-end execution paths from entry
points, bridging module boundaries via inferred interactions.

The graph itself is produced by an external indexing pipeline and loaded
with "flowatlas ingest".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./flowatlas.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", ".", "project directory holding the .flowatlas index")
}

func GetConfig() *config.Config {
	return cfg
}

// openSnapshot opens the store and loads a consistent snapshot from it.
// The caller owns closing the returned store.
func openSnapshot() (*store.Store, *graph.Snapshot, error) {
	st, err := store.Open(projectDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	snap, err := graph.Load(st)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return st, snap, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
