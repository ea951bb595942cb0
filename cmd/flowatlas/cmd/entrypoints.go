package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ahertel/flowatlas/internal/entrypoints"
	"github.com/ahertel/flowatlas/internal/graph"
	"github.com/spf13/cobra"
)

var epJSON bool

var entrypointsCmd = &cobra.Command{
	Use:   "entrypoints",
	Short: "Detect entry-point modules",
	Long: `Classify candidate modules as entry points into the system. When the
classifier is enabled in config and an API key is present, an LLM is
consulted for the whole batch; members it misses, and entire runs that
fail, fall back to substring heuristics so the command always produces
a result.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, snap, err := openSnapshot()
		if err != nil {
			return err
		}
		defer st.Close()

		modules, err := detectEntryPoints(cmd, snap)
		if err != nil {
			return err
		}

		if epJSON {
			return printJSON(modules)
		}
		fmt.Printf("%d entry-point modules:\n", len(modules))
		for _, m := range modules {
			fmt.Printf("  %s (confidence %s): %s\n", m.FullPath, m.Confidence, m.Reason)
			for _, member := range m.Members {
				if !member.IsEntryPoint {
					continue
				}
				fmt.Printf("    - %s", member.Name)
				if member.ActionType != "" {
					fmt.Printf(" [%s %s]", member.ActionType, member.TargetEntity)
				}
				fmt.Printf(" via %s\n", member.Via)
			}
		}
		return nil
	},
}

func init() {
	entrypointsCmd.Flags().BoolVar(&epJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(entrypointsCmd)
}

// detectEntryPoints runs the full candidate -> classify -> materialize
// pipeline shared by the entrypoints and flows commands.
func detectEntryPoints(cmd *cobra.Command, snap *graph.Snapshot) ([]entrypoints.EntryPointModuleInfo, error) {
	rules := entrypoints.Rules{
		EntryNameHints: cfg.Heuristics.EntryNameHints,
		EntryPathHints: cfg.Heuristics.EntryPathHints,
	}
	logger := slog.Default()
	agg := entrypoints.NewAggregator(rules, logger)

	candidates := agg.BuildCandidates(snap.Modules())

	var classifier entrypoints.Classifier
	if cfg.Classifier.Enabled {
		apiKey := os.Getenv(cfg.Classifier.APIKeyEnv)
		if apiKey == "" {
			logger.Warn("classifier enabled but API key env is empty, using heuristics",
				"env", cfg.Classifier.APIKeyEnv)
		} else {
			classifier = entrypoints.NewOpenAIClassifier(apiKey, cfg.Classifier.Model, snap.Interactions(), logger)
		}
	}

	classifications := agg.Classify(cmd.Context(), candidates, classifier)
	return agg.BuildEntryPointModules(classifications, candidates), nil
}
