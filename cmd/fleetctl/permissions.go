package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fleetrent-backend/internal/rbac"
)

var permissionsJSON bool

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Print the role permission table",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if permissionsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rbac.Matrix())
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tRESOURCE\tACTIONS")
		for _, g := range rbac.Matrix() {
			actions := make([]string, len(g.Actions))
			for i, a := range g.Actions {
				actions[i] = string(a)
			}
			if len(actions) == 0 {
				actions = []string{"-"}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", g.Role, g.Resource, strings.Join(actions, ","))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ROLE\tCAPABILITIES")
		for _, role := range rbac.AllRoles {
			caps := make([]string, 0)
			for _, c := range rbac.Capabilities(role) {
				caps = append(caps, string(c))
			}
			if len(caps) == 0 {
				caps = []string{"-"}
			}
			fmt.Fprintf(w, "%s\t%s\n", role, strings.Join(caps, ","))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
	permissionsCmd.Flags().BoolVar(&permissionsJSON, "json", false, "Print the table as JSON")
}
