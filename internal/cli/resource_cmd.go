package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/status"
	"github.com/cebeepredict/admin/model"
)

func newResourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources that can be browsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defs := a.registry.AllResources()
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), defs)
			}
			rows := make([][]string, 0, len(defs))
			for _, def := range defs {
				sorts := make([]string, 0, len(def.Sorts))
				for _, s := range def.Sorts {
					sorts = append(sorts, s.Key)
				}
				rows = append(rows, []string{def.ID, def.Title, def.Paging, strings.Join(filterParams(def), ","), strings.Join(sorts, ",")})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "TITLE", "PAGING", "FILTERS", "SORTS"}, rows)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var (
		search   string
		sortKey  string
		filters  []string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Print one page of a resource",
		Example: "  cebeectl list fixtures --filter status=live --sort kickoffDesc\n" +
			"  cebeectl list leaderboard --page 2 --page-size 25 -o json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			def, err := a.resources.Definition(args[0])
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page must be 1 or more, got %d", page)
			}

			req := model.ListRequest{
				Collection: def.ID,
				Search:     search,
				Filters:    map[string]string{},
				SortKey:    sortKey,
				PageIndex:  page - 1,
				PageSize:   pageSize,
			}
			for _, f := range filters {
				param, value, err := parseFilter(def, f)
				if err != nil {
					return err
				}
				req.Filters[param] = value
			}

			res, err := a.resources.List(cmd.Context(), a.client, req)
			if err != nil {
				return err
			}
			return a.printList(cmd.OutOrStdout(), def, res)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Search text")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key (see 'cebeectl resources')")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as param=value; repeatable")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, from 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows per page; 0 uses the resource default")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			def, err := a.resources.Definition(args[0])
			if err != nil {
				return err
			}
			row, err := a.resources.Get(cmd.Context(), a.client, def.ID, args[1])
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), row)
			}
			rows := [][]string{{"ID", row.ID()}}
			for _, c := range def.Columns {
				rows = append(rows, []string{c.Label, a.formatter.CellText(c, def.Vocabulary, row.Field(c.Field))})
			}
			return printTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, rows)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <resource> <id> <status>",
		Short: "Set the status of a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			def, err := a.resources.Definition(args[0])
			if err != nil {
				return err
			}
			row, err := a.resources.SetStatus(cmd.Context(), a.client, def.ID, args[1], args[2])
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), row)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: status set to %s\n", def.ID, args[1], statusLabel(def, args[2]))
			return nil
		},
	}
}

func newActionCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "action <resource> <id> <action>",
		Short: "Run a row action",
		Long: "Runs a row action from the resource definition. Status and delete actions call the backend;\n" +
			"navigate actions print the dashboard route they lead to. Actions with a confirmation\n" +
			"prompt ask on stdin unless --yes is given.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			def, err := a.resources.Definition(args[0])
			if err != nil {
				return err
			}
			recordID, actionID := args[1], args[2]
			idx := slices.IndexFunc(def.Actions, func(d model.ActionDefinition) bool { return d.ID == actionID })
			if idx < 0 {
				return model.NewNotFoundError(fmt.Sprintf("action %q not found on resource %q", actionID, def.ID))
			}
			action := def.Actions[idx]
			out := cmd.OutOrStdout()

			if action.Type == model.ActionNavigate {
				row, err := a.resources.Get(cmd.Context(), a.client, def.ID, recordID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, resource.ExpandRoute(action.NavigateTo, row))
				return nil
			}

			if action.Confirm != "" && !yes {
				fmt.Fprintf(out, "%s [y/N] ", action.Confirm)
				answer, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			row, err := a.resources.RunAction(cmd.Context(), a.client, def.ID, actionID, recordID)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(out, map[string]any{"action": action.ID, "record_id": recordID, "data": row})
			}
			fmt.Fprintf(out, "%s %s: %s done\n", def.ID, recordID, action.Label)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the backend summary counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			summary, err := a.resources.Dashboard(cmd.Context(), a.client)
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			keys := slices.Sorted(maps.Keys(summary))
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, a.formatter.Number(summary[k])})
			}
			return printTable(cmd.OutOrStdout(), []string{"METRIC", "VALUE"}, rows)
		},
	}
}

// parseFilter splits param=value and checks the param against the
// resource's filters.
func parseFilter(def model.ResourceDefinition, s string) (string, string, error) {
	param, value, ok := strings.Cut(s, "=")
	param = strings.TrimSpace(param)
	if !ok || param == "" {
		return "", "", fmt.Errorf("invalid filter %q: use param=value", s)
	}
	params := filterParams(def)
	if !slices.Contains(params, param) {
		return "", "", fmt.Errorf("unknown filter %q for %s (valid: %s)", param, def.ID, strings.Join(params, ", "))
	}
	return param, strings.TrimSpace(value), nil
}

func filterParams(def model.ResourceDefinition) []string {
	params := make([]string, 0, len(def.Filters))
	for _, f := range def.Filters {
		params = append(params, f.QueryParam())
	}
	return params
}

func statusLabel(def model.ResourceDefinition, value string) string {
	if vocab, ok := status.Lookup(def.Vocabulary); ok && vocab.Known(value) {
		return vocab.Resolve(value).Label
	}
	return value
}
