package main

import (
	"corpgraph/internal/core"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:       "list [businesses|departments|employees]",
		Short:     "List stored records (all kinds when none is given)",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"businesses", "departments", "employees"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := firstArg(args)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				switch kind {
				case "businesses":
					return enc.Encode(a.svc.ListBusinesses())
				case "departments":
					return enc.Encode(a.svc.ListDepartments())
				case "employees":
					return enc.Encode(a.svc.ListEmployees())
				}
				return enc.Encode(a.svc.Snapshot())
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if kind == "" || kind == "businesses" {
				printBusinesses(w, a.svc.ListBusinesses())
			}
			if kind == "" || kind == "departments" {
				printDepartments(w, a.svc.ListDepartments())
			}
			if kind == "" || kind == "employees" {
				printEmployees(w, a.svc.ListEmployees())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func printBusinesses(w io.Writer, items []core.Business) {
	fmt.Fprintln(w, "BUSINESS\tNAME\tDEPARTMENTS\tEMPLOYEES")
	for _, b := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, joinIDs(b.DepartmentIDs), joinIDs(b.EmployeeIDs))
	}
}

func printDepartments(w io.Writer, items []core.Department) {
	fmt.Fprintln(w, "DEPARTMENT\tNAME\tBUSINESSES\tEMPLOYEES")
	for _, d := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Name, joinIDs(d.BusinessIDs), joinIDs(d.EmployeeIDs))
	}
}

func printEmployees(w io.Writer, items []core.Employee) {
	fmt.Fprintln(w, "EMPLOYEE\tNAME\tAGE\tJOINED\tBUSINESS\tDEPARTMENT")
	for _, e := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", e.ID, e.Name, e.Age,
			e.DateJoined.Format(time.DateOnly), derefID(e.BusinessID), derefID(e.DepartmentID))
	}
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ",")
}

func derefID(id *string) string {
	if id == nil {
		return "-"
	}
	return *id
}
