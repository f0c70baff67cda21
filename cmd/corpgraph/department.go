package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDepartmentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "department",
		Short: "Add, rename or remove departments",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [name]",
			Short: "Add a department (default name Marketing)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, _, err := a.svc.AddDepartment(cmd.Context(), firstArg(args))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), d.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a department",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.svc.RenameDepartment(cmd.Context(), args[0], args[1])
				return err
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"remove"},
			Short:   "Remove a department and every link to it",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.svc.RemoveDepartment(cmd.Context(), args[0])
				return err
			},
		},
	)
	return cmd
}
