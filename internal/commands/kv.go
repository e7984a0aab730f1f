package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/forest"
)

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the body stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, true, func(ks *forest.KeyStore) error {
				doc, err := ks.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(doc.Body))
				return nil
			})
		},
	}
}

func newSetCmd(opts *options) *cobra.Command {
	var meta string

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value and print its sequence number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, false, func(ks *forest.KeyStore) error {
				seq, err := ks.Set(args[0], []byte(meta), []byte(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), seq)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&meta, "meta", "", "Metadata stored alongside the value")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, false, func(ks *forest.KeyStore) error {
				return ks.Delete(args[0])
			})
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keys with their sequence and metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, true, func(ks *forest.KeyStore) error {
				out := cmd.OutOrStdout()
				for doc, err := range ks.All() {
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%d\t%s\n", doc.Key, doc.Sequence, doc.Meta)
				}
				return nil
			})
		},
	}
}

func newStoresCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List the key-value stores in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, opts, true, func(db *forest.Database) error {
				for _, name := range db.KeyStoreNames() {
					ks, err := db.KeyStore(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%d\n", name, ks.Count(), ks.LastSequence())
				}
				return nil
			})
		},
	}
}

func newCompactCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Rewrite the database keeping only current documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, opts, false, func(db *forest.Database) error {
				return db.Compact()
			})
		},
	}
}
