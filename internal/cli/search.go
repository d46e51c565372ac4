package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
)

// searchFlagKey maps a flag name to its filter key: "min-gs" -> "min_gs".
func searchFlagKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		unitName    string
		requiredSet string
		thresholds  = make(map[string]*int)
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored builds",
		Long: `Lists up to 50 stored builds, ordered by id, matching every given flag.
Flags that are not given impose no constraint; --min-gs 0 still requires
gs >= 0. Thresholds are inclusive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string)
			if cmd.Flags().Changed("unit-name") {
				values[query.KeyUnitName] = unitName
			}
			if cmd.Flags().Changed("required-set") {
				values[query.KeyRequiredSet] = requiredSet
			}
			for flag, v := range thresholds {
				if cmd.Flags().Changed(flag) {
					values[searchFlagKey(flag)] = strconv.Itoa(*v)
				}
			}

			filter, err := query.ParseFilter(values)
			if err != nil {
				return err
			}

			a, cleanup, err := opts.bootstrap(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			builds, err := a.services.Builds.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}

			return opts.printResult(cmd.OutOrStdout(), builds, func(w io.Writer) {
				printBuilds(w, builds)
			})
		},
	}

	cmd.Flags().StringVar(&unitName, "unit-name", "", "Exact unit name")
	cmd.Flags().StringVar(&requiredSet, "required-set", "", "Set that must be present, e.g. set_speed_demon")
	for _, flag := range []string{"min-atk", "min-hp", "min-def", "min-spd", "min-chc", "min-chd", "min-eff", "min-efr", "min-gs"} {
		thresholds[flag] = cmd.Flags().Int(flag, 0, fmt.Sprintf("Minimum %s (inclusive)", strings.TrimPrefix(flag, "min-")))
	}

	return cmd
}

func printBuilds(w io.Writer, builds []model.Build) {
	if len(builds) == 0 {
		fmt.Fprintln(w, "no builds found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUNIT\tGS\tATK\tHP\tDEF\tSPD\tCHC\tCHD\tEFF\tEFR\tSETS")
	for _, b := range builds {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			b.ID, b.UnitName, b.GS, b.Atk, b.HP, b.Def, b.Spd, b.Chc, b.Chd, b.Eff, b.Efr, formatSets(b.Sets))
	}
	_ = tw.Flush()

	okLabel.Fprintf(w, "%d builds\n", len(builds))
}

func formatSets(sets model.SetCounts) string {
	if len(sets) == 0 {
		return "-"
	}

	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, sets[name]))
	}
	return strings.Join(parts, ",")
}
