package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/model"
)

func (h *Handler) ResourcesList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resourceID")
	desc, err := h.Resources.Descriptor(id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	def, _ := h.Resources.Definition(id)

	req := resource.ParseRequest(def, r.URL.Query())
	result, err := h.Resources.List(r.Context(), h.backend(r), req)
	if isUnauthorized(err) {
		h.renderServiceError(w, r, err)
		return
	}
	if err != nil {
		// Rows are never substituted; the page shows one error with a retry.
		result = model.ListResult{Rows: []model.Row{}, PageIndex: req.PageIndex, PageSize: req.PageSize}
	}

	renderHTML(w, http.StatusOK, resourcePage(h.frame(r, id), listView{
		Def:     def,
		Desc:    desc,
		Request: req,
		Result:  result,
		Err:     err,
		Columns: h.Formatter.Columns(def.Columns, def.Vocabulary),
		Self:    r.URL.RequestURI(),
		CSRF:    csrfField(r),
	}))
}

func (h *Handler) ResourcesDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resourceID")
	def, err := h.Resources.Definition(id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	row, err := h.Resources.Get(r.Context(), h.backend(r), id, chi.URLParam(r, "recordID"))
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	if row.ID() == "" {
		row["id"] = chi.URLParam(r, "recordID")
	}

	renderHTML(w, http.StatusOK, recordPage(h.frame(r, id), recordView{
		Def:     def,
		Row:     row,
		Columns: h.Formatter.Columns(def.Columns, def.Vocabulary),
		Actions: resource.ResolveActions(def),
		Self:    r.URL.RequestURI(),
		CSRF:    csrfField(r),
	}))
}

func (h *Handler) ResourcesAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resourceID")
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, r, model.NewBadRequestError("invalid form"))
		return
	}
	_, err := h.Resources.RunAction(r.Context(), h.backend(r), id,
		chi.URLParam(r, "actionID"), chi.URLParam(r, "recordID"))
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, localPath(r.PostForm.Get("return"), "/resources/"+id), http.StatusSeeOther)
}
