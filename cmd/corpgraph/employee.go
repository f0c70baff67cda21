package main

import (
	"corpgraph/pkg/domain"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newEmployeeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Add, rename, age or remove employees",
	}

	var (
		age    int
		joined string
	)
	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add an employee (default name Chris)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var joinedAt time.Time
			if joined != "" {
				t, err := parseDate(joined)
				if err != nil {
					return err
				}
				joinedAt = t
			}
			e, _, err := a.svc.AddEmployee(cmd.Context(), firstArg(args), age, joinedAt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.ID)
			return nil
		},
	}
	addCmd.Flags().IntVar(&age, "age", domain.DefaultEmployeeAge, "Employee age")
	addCmd.Flags().StringVar(&joined, "joined", "", "Join date (YYYY-MM-DD or RFC 3339, default now)")

	cmd.AddCommand(
		addCmd,
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename an employee",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.svc.RenameEmployee(cmd.Context(), args[0], args[1])
				return err
			},
		},
		&cobra.Command{
			Use:   "age <id> <age>",
			Short: "Set an employee's age",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("age %q: %w", args[1], err)
				}
				_, err = a.svc.SetEmployeeAge(cmd.Context(), args[0], n)
				return err
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"remove"},
			Short:   "Remove an employee and every link to it",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.svc.RemoveEmployee(cmd.Context(), args[0])
				return err
			},
		},
	)
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("join date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t.UTC(), nil
}
