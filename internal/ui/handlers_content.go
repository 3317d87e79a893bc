package ui

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

func (h *Handler) loadContent(r *http.Request, docID string) (contentView, error) {
	v := contentView{Self: r.URL.RequestURI(), CSRF: csrfField(r)}
	def, ok := h.Registry.GetContent(docID)
	if !ok {
		return v, model.NewNotFoundError("content " + strconv.Quote(docID) + " not found")
	}
	v.Doc = model.ContentDocument{ID: def.ID, Title: def.Title, Format: def.Format}
	doc, err := h.Content.Get(r.Context(), h.backend(r), docID)
	if err != nil {
		v.Err = err
		return v, nil
	}
	v.Doc = doc
	return v, nil
}

func (h *Handler) ContentEdit(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "contentID")
	v, err := h.loadContent(r, docID)
	if err == nil && isUnauthorized(v.Err) {
		err = v.Err
	}
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	if r.URL.Query().Get("saved") != "" {
		v.Notice = "Saved."
	}
	renderHTML(w, http.StatusOK, contentPage(h.frame(r, docID), v))
}

func (h *Handler) ContentSave(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "contentID")
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, r, model.NewBadRequestError("invalid form"))
		return
	}
	in := validation.ContentBody{
		Title: strings.TrimSpace(r.PostForm.Get("title")),
		Body:  r.PostForm.Get("body"),
	}
	_, err := h.Content.SaveBody(r.Context(), h.backend(r), docID, in)
	if err != nil {
		h.renderSaveProblem(w, r, docID, err, &model.ContentDocument{Body: in.Body})
		return
	}
	http.Redirect(w, r, contentPath(docID)+"?saved=1", http.StatusSeeOther)
}

func (h *Handler) ContentItemSave(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "contentID")
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, r, model.NewBadRequestError("invalid form"))
		return
	}
	order, _ := strconv.Atoi(r.PostForm.Get("order"))
	in := validation.ContentItem{
		ID:    strings.TrimSpace(r.PostForm.Get("id")),
		Title: r.PostForm.Get("title"),
		Text:  r.PostForm.Get("text"),
		Order: order,
	}
	if _, err := h.Content.UpsertItem(r.Context(), h.backend(r), docID, in); err != nil {
		h.renderSaveProblem(w, r, docID, err, nil)
		return
	}
	http.Redirect(w, r, contentPath(docID)+"?saved=1", http.StatusSeeOther)
}

func (h *Handler) ContentItemDelete(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "contentID")
	if err := h.Content.DeleteItem(r.Context(), h.backend(r), docID, chi.URLParam(r, "itemID")); err != nil {
		h.renderSaveProblem(w, r, docID, err, nil)
		return
	}
	http.Redirect(w, r, contentPath(docID)+"?saved=1", http.StatusSeeOther)
}

// renderSaveProblem shows a failed write inline on the editor. Errors that
// are not about the submitted data take the normal error page.
func (h *Handler) renderSaveProblem(w http.ResponseWriter, r *http.Request, docID string, err error, draft *model.ContentDocument) {
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) || (ee.Code != model.ErrValidationError && ee.Code != model.ErrBadRequest) {
		h.renderServiceError(w, r, err)
		return
	}
	v, verr := h.loadContent(r, docID)
	if verr != nil {
		h.renderServiceError(w, r, verr)
		return
	}
	v.Self = contentPath(docID)
	v.Problem = errorMessage(err)
	v.Draft = draft
	renderHTML(w, ee.HTTPStatus(), contentPage(h.frame(r, docID), v))
}
