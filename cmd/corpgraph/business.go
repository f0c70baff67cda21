package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBusinessCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "business",
		Short: "Add, rename or remove businesses",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [name]",
			Short: "Add a business (default name Apple)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, _, err := a.svc.AddBusiness(cmd.Context(), firstArg(args))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), b.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a business",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.svc.RenameBusiness(cmd.Context(), args[0], args[1])
				return err
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"remove"},
			Short:   "Remove a business and every link to it",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.svc.RemoveBusiness(cmd.Context(), args[0])
				return err
			},
		},
	)
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
