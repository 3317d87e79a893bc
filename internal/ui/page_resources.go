package ui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/table"
	"github.com/cebeepredict/admin/model"
)

// listView is everything a resource list page shows.
type listView struct {
	Def     model.ResourceDefinition
	Desc    model.TableDescriptor
	Request model.ListRequest
	Result  model.ListResult
	Err     error
	Columns []table.Column
	Self    string
	CSRF    Node
}

func resourcePage(c chrome, v listView) Node {
	path := "/resources/" + url.PathEscape(v.Def.ID)

	var errorCard Node
	if v.Err != nil {
		errorCard = loadErrorCard(strings.ToLower(v.Def.Title), v.Err, v.Self)
	}

	opts := table.Options{
		EmptyMessage: v.Desc.EmptyMessage,
		Pagination: &table.Pagination{
			Result: v.Result,
			Sizes:  v.Desc.PageSizes,
			Href:   table.QueryHref(path, resource.EncodeRequest(v.Request)),
		},
	}
	if v.Def.RowLink != "" {
		opts.RowHref = func(row model.Row) string { return resource.RowHref(v.Def, row) }
	}
	if len(v.Desc.RowActions) > 0 {
		opts.RowActions = func(row model.Row) Node { return rowActions(v, row) }
	}

	return appPage(v.Def.Title, c,
		table.SearchBar(toolbar(path, v)),
		errorCard,
		Div(Class(cardClass("p-0")), table.Render(v.Columns, v.Result.Rows, opts)),
	)
}

func toolbar(path string, v listView) table.Toolbar {
	tb := table.Toolbar{
		Action:      path,
		Search:      v.Request.Search,
		Placeholder: v.Desc.SearchHint,
	}
	for _, f := range v.Desc.Filters {
		tb.Dropdowns = append(tb.Dropdowns, table.Dropdown{
			Name:     f.Param,
			Label:    f.Label,
			Options:  f.Options,
			Selected: v.Request.Filters[f.Param],
		})
	}
	if len(v.Desc.Sorts) > 1 {
		selected := v.Request.SortKey
		if selected == "" {
			selected = v.Desc.DefaultSort
		}
		tb.Dropdowns = append(tb.Dropdowns, table.Dropdown{
			Name:     resource.ParamSort,
			Label:    "Sort",
			Options:  v.Desc.Sorts,
			Selected: selected,
		})
	}
	if v.Result.PageSize > 0 {
		tb.Hidden = map[string]string{resource.ParamPageSize: strconv.Itoa(v.Result.PageSize)}
	}
	return tb
}

func rowActions(v listView, row model.Row) Node {
	id := row.ID()
	items := make([]Node, 0, len(v.Desc.RowActions)+1)
	if href := resource.RowHref(v.Def, row); href != "" {
		items = append(items, actionMenuLink(href, "Details"))
	}
	for _, a := range v.Desc.RowActions {
		switch a.Type {
		case model.ActionNavigate:
			if href := resource.ExpandRoute(a.NavigateTo, row); href != "" {
				items = append(items, actionMenuLink(href, a.Label))
			}
		default:
			if id == "" {
				continue
			}
			items = append(items, actionMenuPost(actionPath(v.Def.ID, id, a.ID), a.Label, a.Confirm, v.Self, v.CSRF, a.Danger))
		}
	}
	if len(items) == 0 {
		return nil
	}
	return actionMenu("Actions", items...)
}

func actionPath(resourceID, recordID, actionID string) string {
	return fmt.Sprintf("/resources/%s/%s/actions/%s",
		url.PathEscape(resourceID), url.PathEscape(recordID), url.PathEscape(actionID))
}
