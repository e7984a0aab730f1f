package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jpl-au/forest"
)

// options holds the persistent flags shared by every command.
type options struct {
	dbPath     string
	configPath string
	storeName  string
	logLevel   string
}

// Execute runs the CLI application.
func Execute(version string) error {
	root := NewRootCmd(version)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), formatError(err))
	}
	return err
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "forest",
		Short:         "Read and write forest document databases",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	bindGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(newGetCmd(opts))
	root.AddCommand(newSetCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newStoresCmd(opts))
	root.AddCommand(newCompactCmd(opts))
	root.AddCommand(newDocCmd(opts))
	root.AddCommand(newExplainCmd())
	return root
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVar(&opts.dbPath, "db", "", "Database path (default: settings file, then forest.db)")
	fs.StringVar(&opts.configPath, "config", "", "Settings file (default: ./forest.yaml if present)")
	fs.StringVar(&opts.storeName, "store", forest.DefaultKeyStoreName, "Key-value store name")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (overrides settings)")
}

// formatError renders err for the terminal. Database errors carry their
// code and partition so scripts can match on them.
func formatError(err error) string {
	if e, ok := forest.AsError(err); ok {
		return fmt.Sprintf("error: %s (code %d, %s)", e.Message(), e.Code(), e.Kind())
	}
	return "error: " + err.Error()
}
