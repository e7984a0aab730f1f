package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/forest"
)

func newDocCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Work with versioned documents",
	}
	cmd.AddCommand(newDocGetCmd(opts))
	cmd.AddCommand(newDocPutCmd(opts))
	cmd.AddCommand(newDocRevsCmd(opts))
	return cmd
}

func newDocGetCmd(opts *options) *cobra.Command {
	var revID string

	cmd := &cobra.Command{
		Use:   "get <docID>",
		Short: "Print the body of the current or a named revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, true, func(ks *forest.KeyStore) error {
				d, err := ks.Document(args[0])
				if err != nil {
					return err
				}

				var rev *forest.Revision
				if revID != "" {
					if rev, err = d.Get(revID); err != nil {
						return err
					}
				} else {
					cur, ok := d.Current()
					if !ok || cur.Deleted {
						return forest.ErrNotFound
					}
					rev = cur
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(rev.Body))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&revID, "rev", "", "Revision ID (default: current)")
	return cmd
}

func newDocPutCmd(opts *options) *cobra.Command {
	var (
		parent  string
		deleted bool
	)

	cmd := &cobra.Command{
		Use:   "put <docID> <body>",
		Short: "Add a revision and print its ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, false, func(ks *forest.KeyStore) error {
				d, err := ks.Document(args[0])
				if err != nil {
					return err
				}
				id, err := d.Put([]byte(args[1]), parent, deleted)
				if err != nil {
					return err
				}
				if err := d.Save(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent revision ID (required once the document exists)")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Mark the revision as a deletion")
	return cmd
}

func newDocRevsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "revs <docID>",
		Short: "List every revision of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, true, func(ks *forest.KeyStore) error {
				d, err := ks.Document(args[0])
				if err != nil {
					return err
				}
				if !d.Exists() {
					return forest.ErrNotFound
				}

				tree := d.Tree()
				cur, _ := d.Current()
				out := cmd.OutOrStdout()
				for i := 0; i < tree.Len(); i++ {
					r := tree.At(i)
					mark := " "
					if r == cur {
						mark = "*"
					}
					parent := "-"
					if r.Parent != forest.NoParent {
						parent = tree.At(r.Parent).ID.String()
					}
					state := "live"
					if r.Deleted {
						state = "deleted"
					}
					fmt.Fprintf(out, "%s %s\t%s\t%d\t%s\n", mark, r.ID, parent, r.Sequence, state)
				}
				return nil
			})
		},
	}
}
