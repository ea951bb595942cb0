package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ahertel/flowatlas/internal/flows"
	"github.com/ahertel/flowatlas/internal/store"
	"github.com/spf13/cobra"
)

var (
	flowsJSON    bool
	flowsPersist bool
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Trace end-to-end flows from entry points",
	Long: `Detect entry-point modules, trace a bounded depth-first walk of the
call graph from each entry-point member, and assemble the results into
named flows. Where the static graph runs out at a module boundary,
inferred interactions bridge the gap with a single representative hop.

With --save the resulting flow set atomically replaces any previously
persisted flows.`,
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

		tracer := flows.NewTracer(snap, cfg.Trace.MaxDepth, cfg.Trace.Parallelism)
		traced, err := tracer.TraceFromEntryPoints(cmd.Context(), modules, nil)
		if err != nil {
			return fmt.Errorf("tracing flows: %w", err)
		}

		if flowsPersist {
			records := make([]store.FlowRecord, 0, len(traced))
			for _, f := range traced {
				payload, err := json.Marshal(f)
				if err != nil {
					return fmt.Errorf("encoding flow %s: %w", f.Slug, err)
				}
				records = append(records, store.FlowRecord{
					ID:       f.ID,
					Name:     f.Name,
					Slug:     f.Slug,
					EntryDef: f.EntryDefID,
					Payload:  string(payload),
				})
			}
			if err := st.ReplaceFlows(records); err != nil {
				return fmt.Errorf("persisting flows: %w", err)
			}
		}

		if flowsJSON {
			return printJSON(traced)
		}
		fmt.Printf("%d flows from %d entry-point modules:\n", len(traced), len(modules))
		for _, f := range traced {
			fmt.Printf("  %s (%s, stakeholder %s): %d steps, %d bridges\n",
				f.Name, f.Slug, f.Stakeholder, len(f.Steps), len(f.Inferred))
		}
		return nil
	},
}

func init() {
	flowsCmd.Flags().BoolVar(&flowsJSON, "json", false, "emit JSON")
	flowsCmd.Flags().BoolVar(&flowsPersist, "save", false, "persist flows to the index")
	rootCmd.AddCommand(flowsCmd)
}
