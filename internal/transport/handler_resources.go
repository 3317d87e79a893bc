package transport

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

// backendFor returns the API client bound to the request's session slot.
func backendFor(client *apiclient.Client, r *http.Request) *apiclient.Client {
	if slot := session.SlotFrom(r.Context()); slot != nil {
		return client.WithSession(slot)
	}
	return client
}

func handleNavigation(registry *definition.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"items": registry.Navigation()})
	}
}

func handleGetDescriptor(resources *resource.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := resources.Descriptor(chi.URLParam(r, "resourceID"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

func handleGetData(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := resources.Definition(chi.URLParam(r, "resourceID"))
		if err != nil {
			WriteError(w, r, err)
			return
		}

		q := r.URL.Query()
		if err := validation.Struct(listParams(q)); err != nil {
			WriteError(w, r, err)
			return
		}

		result, err := resources.List(r.Context(), backendFor(client, r), resource.ParseRequest(def, q))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, model.DataResponse{
			Data: result,
			Meta: map[string]any{
				"page_count": result.PageCount(),
				"has_next":   result.HasNext(),
			},
		})
	}
}

func handleGetRecord(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := resources.Get(r.Context(), backendFor(client, r),
			chi.URLParam(r, "resourceID"), chi.URLParam(r, "recordID"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": row})
	}
}

func handleCreateRecord(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := decodeJSON(r, &body); err != nil {
			WriteError(w, r, err)
			return
		}
		row, err := resources.Create(r.Context(), backendFor(client, r), chi.URLParam(r, "resourceID"), body)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, map[string]any{"data": row})
	}
}

func handleUpdateRecord(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := decodeJSON(r, &body); err != nil {
			WriteError(w, r, err)
			return
		}
		row, err := resources.Update(r.Context(), backendFor(client, r),
			chi.URLParam(r, "resourceID"), chi.URLParam(r, "recordID"), body)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": row})
	}
}

func handleSetStatus(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.StatusPatch
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, err)
			return
		}
		row, err := resources.SetStatus(r.Context(), backendFor(client, r),
			chi.URLParam(r, "resourceID"), chi.URLParam(r, "recordID"), in.Status)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": row})
	}
}

func handleDeleteRecord(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := resources.Delete(r.Context(), backendFor(client, r),
			chi.URLParam(r, "resourceID"), chi.URLParam(r, "recordID"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRunAction(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := resources.RunAction(r.Context(), backendFor(client, r),
			chi.URLParam(r, "resourceID"), chi.URLParam(r, "actionID"), chi.URLParam(r, "recordID"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": row})
	}
}

func handleDashboard(resources *resource.Provider, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := resources.Dashboard(r.Context(), backendFor(client, r))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": summary})
	}
}

// listParams reads the paging and search parameters for validation. Values
// that do not parse are left zero.
func listParams(q url.Values) validation.ListParams {
	p := validation.ListParams{
		Search: q.Get(resource.ParamSearch),
		Sort:   q.Get(resource.ParamSort),
	}
	p.Page, _ = strconv.Atoi(q.Get(resource.ParamPage))
	p.PageSize, _ = strconv.Atoi(q.Get(resource.ParamPageSize))
	return p
}
