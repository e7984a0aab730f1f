package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jpl-au/forest"
)

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <code>...",
		Short: "Describe numeric error codes",
		Args:  cobra.MinimumNArgs(1),
		// Codes are negative; parsing flags would read them as shorthands.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				code, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid code %q", arg)
				}
				e := forest.FromCode(code)
				fmt.Fprintf(out, "%d\t%s\t%s\n", e.Code(), e.Kind(), e.Message())
			}
			return nil
		},
	}
}
