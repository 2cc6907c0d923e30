package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contriboss/rugged-mysql-go/backend"
)

func (a *app) refsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs",
		Short: "Inspect and edit references stored in git2_refdb.",
	}
	addDBFlags(cmd)

	cmd.AddCommand(a.refsListCmd())
	cmd.AddCommand(a.refsShowCmd())
	cmd.AddCommand(a.refsWriteCmd())
	cmd.AddCommand(a.refsDeleteCmd())
	cmd.AddCommand(a.refsRenameCmd())
	return cmd
}

func (a *app) refsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [glob]",
		Short: "List references, optionally filtered by an fnmatch glob.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			glob := ""
			if len(args) == 1 {
				glob = args[0]
			}

			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			refs, err := b.RefDB().List(cmd.Context(), glob)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(refs))
			for _, ref := range refs {
				rows = append(rows, []string{ref.Name, ref.Type.String(), ref.TargetString()})
			}
			return printTable(cmd.OutOrStdout(), []string{"Name", "Type", "Target"}, rows)
		},
	}
}

func (a *app) refsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the target of a reference.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			ref, err := b.RefDB().Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ref.TargetString())
			return err
		},
	}
}

func (a *app) refsWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <name> <target>",
		Short: "Point a reference at an object id or, with --symbolic, another reference.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, target := args[0], args[1]

			var ref *backend.Reference
			if a.v.GetBool("symbolic") {
				ref = backend.NewSymbolicReference(name, target)
			} else {
				oid, err := backend.ParseOID(target)
				if err != nil {
					return err
				}
				ref = backend.NewOIDReference(name, oid)
			}

			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			if err := b.RefDB().Write(cmd.Context(), ref, a.v.GetBool("force")); err != nil {
				if errors.Is(err, backend.ErrExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s", ref)
			return nil
		},
	}
	cmd.Flags().Bool("symbolic", false, "Write a symbolic reference")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing reference")
	return cmd
}

func (a *app) refsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a reference.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			if err := b.RefDB().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "deleted %s", args[0])
			return nil
		},
	}
}

func (a *app) refsRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a reference.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			ref, err := b.RefDB().Rename(cmd.Context(), args[0], args[1], a.v.GetBool("force"))
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s", ref)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing reference")
	return cmd
}
