package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/contriboss/rugged-mysql-go/backend"
)

func (a *app) objectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "Read and write objects stored in git2_odb.",
	}
	addDBFlags(cmd)

	cmd.AddCommand(a.objectsWriteCmd())
	cmd.AddCommand(a.objectsShowCmd())
	return cmd
}

func (a *app) objectsWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write [file]",
		Short: "Store a file (or stdin) as an object and print its id.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := backend.ParseObjectType(a.v.GetString("type"))
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			oid, err := b.ODB().Write(cmd.Context(), objType, data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), oid)
			return err
		},
	}
	cmd.Flags().StringP("type", "t", "blob", "Object type: commit, tree, blob or tag")
	return cmd
}

func (a *app) objectsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id-or-prefix>",
		Short: "Print an object's data, or with --header its type and size.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			obj, err := b.ODB().ReadPrefix(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.v.GetBool("header") {
				_, err = fmt.Fprintf(out, "%s %s %d\n", obj.ID, obj.Type, obj.Size())
				return err
			}
			_, err = out.Write(obj.Data)
			return err
		},
	}
	cmd.Flags().Bool("header", false, "Print id, type and size instead of the data")
	return cmd
}
