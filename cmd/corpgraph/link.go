package main

import (
	"corpgraph/internal/core"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var linkKinds = map[string]core.Relation{
	"business-department": core.RelationBusinessDepartments,
	"business-employee":   core.RelationBusinessEmployees,
	"department-employee": core.RelationDepartmentEmployees,
}

func linkKindNames() []string {
	names := make([]string, 0, len(linkKinds))
	for name := range linkKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newLinkCmd builds either "link" or "unlink"; both take <kind> <left-id> <right-id>.
func newLinkCmd(a *app, link bool) *cobra.Command {
	use, short := "unlink", "Remove a link between two records"
	if link {
		use, short = "link", "Link two records in both directions"
	}
	return &cobra.Command{
		Use:       use + " <" + strings.Join(linkKindNames(), "|") + "> <left-id> <right-id>",
		Short:     short,
		Args:      cobra.ExactArgs(3),
		ValidArgs: linkKindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, ok := linkKinds[args[0]]
			if !ok {
				return fmt.Errorf("unknown link kind %q (want %s)", args[0], strings.Join(linkKindNames(), "|"))
			}
			var err error
			if link {
				_, err = a.svc.Link(cmd.Context(), rel, args[1], args[2])
			} else {
				_, err = a.svc.Unlink(cmd.Context(), rel, args[1], args[2])
			}
			return err
		},
	}
}
