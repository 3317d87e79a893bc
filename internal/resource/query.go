package resource

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cebeepredict/admin/model"
)

// Query parameters shared by the HTML pages and the JSON API. The page
// parameter is a zero-based index.
const (
	ParamSearch   = "q"
	ParamSort     = "sort"
	ParamPage     = "page"
	ParamPageSize = "page_size"
)

// ParseRequest reads a list request for def from URL query values. Values
// that do not parse are left zero for List to normalise.
func ParseRequest(def model.ResourceDefinition, q url.Values) model.ListRequest {
	req := model.ListRequest{
		Collection: def.ID,
		Search:     strings.TrimSpace(q.Get(ParamSearch)),
		SortKey:    q.Get(ParamSort),
		Filters:    make(map[string]string),
	}
	if v, err := strconv.Atoi(q.Get(ParamPage)); err == nil {
		req.PageIndex = v
	}
	if v, err := strconv.Atoi(q.Get(ParamPageSize)); err == nil {
		req.PageSize = v
	}
	for _, f := range def.Filters {
		param := f.QueryParam()
		if v := strings.TrimSpace(q.Get(param)); v != "" {
			req.Filters[param] = v
		}
	}
	return req
}

// EncodeRequest is the inverse of ParseRequest. Page and page size are left
// out so callers can vary them per link.
func EncodeRequest(req model.ListRequest) url.Values {
	q := url.Values{}
	if req.Search != "" {
		q.Set(ParamSearch, req.Search)
	}
	if req.SortKey != "" {
		q.Set(ParamSort, req.SortKey)
	}
	for k, v := range req.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}
