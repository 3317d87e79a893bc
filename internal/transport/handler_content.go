package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/cms"
	"github.com/cebeepredict/admin/internal/validation"
)

func handleListContent(content *cms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"items": content.Documents()})
	}
}

func handleGetContent(content *cms.Service, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := content.Get(r.Context(), backendFor(client, r), chi.URLParam(r, "contentID"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": doc})
	}
}

func handleSaveContent(content *cms.Service, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.ContentBody
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, err)
			return
		}
		doc, err := content.SaveBody(r.Context(), backendFor(client, r), chi.URLParam(r, "contentID"), in)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": doc})
	}
}

// handleUpsertItem serves both POST .../items and PUT .../items/{itemID}.
// The path ID wins over any ID in the body.
func handleUpsertItem(content *cms.Service, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.ContentItem
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, err)
			return
		}
		itemID := chi.URLParam(r, "itemID")
		if r.Method == http.MethodPost {
			in.ID = ""
		} else {
			in.ID = itemID
		}

		row, err := content.UpsertItem(r.Context(), backendFor(client, r), chi.URLParam(r, "contentID"), in)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		status := http.StatusOK
		if r.Method == http.MethodPost {
			status = http.StatusCreated
		}
		WriteJSON(w, status, map[string]any{"data": row})
	}
}

func handleDeleteItem(content *cms.Service, client *apiclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := content.DeleteItem(r.Context(), backendFor(client, r),
			chi.URLParam(r, "contentID"), chi.URLParam(r, "itemID"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
