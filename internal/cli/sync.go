package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [query]",
		Short: "Fetch builds from the remote endpoint and store them",
		Long: `Posts the query to the builds endpoint and appends every returned build to
the store in one transaction. Without a query the configured default is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := opts.bootstrap(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.services.Builds.Sync(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			return opts.printResult(cmd.OutOrStdout(), res, func(w io.Writer) {
				okLabel.Fprint(w, "OK ")
				fmt.Fprintf(w, "stored %d builds for %q\n", res.Inserted, res.Query)
			})
		},
	}
}
