package cmd

import (
	"fmt"
	"strconv"

	"github.com/ahertel/flowatlas/internal/readiness"
	"github.com/ahertel/flowatlas/internal/store"
	"github.com/spf13/cobra"
)

var (
	readyKinds []string
	readyFile  string
)

func readinessFilter() readiness.Filter {
	filter := readiness.Filter{FilePath: readyFile}
	for _, k := range readyKinds {
		filter.Kinds = append(filter.Kinds, store.DefKind(k))
	}
	return filter
}

var readyCmd = &cobra.Command{
	Use:   "ready <aspect>",
	Short: "List definitions whose dependencies are all annotated",
	Long: `List the definitions that can safely be annotated next for the given
aspect: every definition they call already carries the aspect. The check
is local (direct dependencies only), so working through this list keeps
annotation work ordered dependencies-first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, snap, err := openSnapshot()
		if err != nil {
			return err
		}
		defer st.Close()

		engine := readiness.New(snap)
		ready, err := engine.ReadyDefinitions(args[0], readinessFilter())
		if err != nil {
			return err
		}

		fmt.Printf("%d definitions ready for aspect %q:\n", len(ready), args[0])
		for _, def := range ready {
			fmt.Printf("  #%d %s (%s) %s\n", def.ID, def.Name, def.Kind, def.File)
		}
		return nil
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain <definition-id> <aspect>",
	Short: "Show the unmet prerequisite chain for a definition",
	Long: `Show the definitions that must be annotated before the target, ordered
leaves-first: each entry's own unmet dependencies appear earlier in the
list. An empty chain means the target is ready now.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid definition id %q: %w", args[0], err)
		}

		st, snap, err := openSnapshot()
		if err != nil {
			return err
		}
		defer st.Close()

		engine := readiness.New(snap)
		chain, err := engine.PrerequisiteChain(store.DefID(defID), args[1])
		if err != nil {
			return err
		}

		if len(chain) == 0 {
			fmt.Println("No unmet prerequisites.")
			return nil
		}
		for i, p := range chain {
			fmt.Printf("%3d. #%d %s (%d unmet deps)\n", i+1, p.Def.ID, p.Def.Name, p.UnmetDeps)
		}
		return nil
	},
}

func init() {
	readyCmd.Flags().StringSliceVar(&readyKinds, "kind", nil, "restrict to definition kinds")
	readyCmd.Flags().StringVar(&readyFile, "file", "", "restrict to files containing this substring")
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(chainCmd)
}
