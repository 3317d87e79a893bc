// Package cms edits the content documents shown in the player app: FAQ,
// game rules, app features, terms and privacy. Markdown documents are a
// single body; list documents are ordered title/text items.
package cms

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

// Backend is the subset of the API client used for content.
type Backend interface {
	Get(ctx context.Context, endpoint string, query url.Values) model.Envelope
	Post(ctx context.Context, endpoint string, body any) model.Envelope
	Put(ctx context.Context, endpoint string, body any) model.Envelope
	Delete(ctx context.Context, endpoint string) model.Envelope
}

// Default backend field names.
const (
	defaultBodyField  = "content"
	defaultTitleField = "title"
	defaultTextField  = "text"
)

// Service reads and writes content documents.
type Service struct {
	registry *definition.Registry
	md       goldmark.Markdown
	logger   *zap.Logger
}

// NewService creates a content service. Raw HTML in markdown is escaped.
func NewService(registry *definition.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: registry,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
		),
		logger: logger,
	}
}

// Documents returns the content definitions sorted by ID.
func (s *Service) Documents() []model.ContentDefinition {
	return s.registry.AllContent()
}

func (s *Service) definition(docID string) (model.ContentDefinition, error) {
	def, ok := s.registry.GetContent(docID)
	if !ok {
		return model.ContentDefinition{}, model.NewNotFoundError(fmt.Sprintf("content %q not found", docID))
	}
	return def, nil
}

// Render converts markdown to HTML.
func (s *Service) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Get loads a document. Markdown bodies are rendered to HTML; list items are
// normalised to id, title, text and order and sorted by order.
func (s *Service) Get(ctx context.Context, backend Backend, docID string) (model.ContentDocument, error) {
	def, err := s.definition(docID)
	if err != nil {
		return model.ContentDocument{}, err
	}
	env := backend.Get(ctx, def.Endpoint, nil)
	if err := env.Err(); err != nil {
		return model.ContentDocument{}, err
	}
	return s.document(def, env.Data)
}

func (s *Service) document(def model.ContentDefinition, data any) (model.ContentDocument, error) {
	doc := model.ContentDocument{ID: def.ID, Title: def.Title, Format: def.Format}

	obj, _ := data.(map[string]any)
	if v, ok := obj["updatedAt"].(string); ok {
		doc.UpdatedAt = v
	}

	if def.Format == model.ContentList {
		doc.Items = s.items(def, data)
		return doc, nil
	}

	switch t := data.(type) {
	case string:
		doc.Body = t
	case map[string]any:
		doc.Body, _ = t[fieldOr(def.BodyField, defaultBodyField)].(string)
	}
	html, err := s.Render(doc.Body)
	if err != nil {
		return model.ContentDocument{}, err
	}
	doc.HTML = html
	return doc, nil
}

func (s *Service) items(def model.ContentDefinition, data any) []model.Row {
	raw, ok := data.([]any)
	if !ok {
		if obj, isObj := data.(map[string]any); isObj {
			raw, _ = obj["items"].([]any)
		}
	}

	titleField := fieldOr(def.TitleField, defaultTitleField)
	textField := fieldOr(def.TextField, defaultTextField)

	items := make([]model.Row, 0, len(raw))
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		row := model.Row(m)
		order := i
		if v, ok := m["order"].(float64); ok {
			order = int(v)
		}
		items = append(items, model.Row{
			"id":    row.ID(),
			"title": model.FormatValue(m[titleField]),
			"text":  model.FormatValue(m[textField]),
			"order": order,
		})
	}
	slices.SortStableFunc(items, func(a, b model.Row) int {
		return cmp.Compare(a["order"].(int), b["order"].(int))
	})
	return items
}

// SaveBody replaces the body of a markdown document and returns the saved
// document.
func (s *Service) SaveBody(ctx context.Context, backend Backend, docID string, in validation.ContentBody) (model.ContentDocument, error) {
	def, err := s.definition(docID)
	if err != nil {
		return model.ContentDocument{}, err
	}
	if def.Format != model.ContentMarkdown {
		return model.ContentDocument{}, model.NewBadRequestError(fmt.Sprintf("content %q is a list; edit its items", docID))
	}
	if err := validation.Struct(in); err != nil {
		return model.ContentDocument{}, err
	}

	body := map[string]any{fieldOr(def.BodyField, defaultBodyField): in.Body}
	if in.Title != "" {
		body["title"] = in.Title
	}
	env := backend.Put(ctx, def.Endpoint, body)
	if err := env.Err(); err != nil {
		return model.ContentDocument{}, err
	}

	observability.RequestLogger(ctx, s.logger).Info("content saved",
		zap.String("content", def.ID), zap.Int("bytes", len(in.Body)))

	// Echo what was saved when the backend returns no document.
	data := env.Data
	if m, ok := data.(map[string]any); !ok || m[fieldOr(def.BodyField, defaultBodyField)] == nil {
		data = body
	}
	return s.document(def, data)
}

// UpsertItem creates an item when it has no ID and replaces it otherwise.
func (s *Service) UpsertItem(ctx context.Context, backend Backend, docID string, in validation.ContentItem) (model.Row, error) {
	def, err := s.listDefinition(docID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	body := map[string]any{
		fieldOr(def.TitleField, defaultTitleField): strings.TrimSpace(in.Title),
		fieldOr(def.TextField, defaultTextField):   in.Text,
		"order": in.Order,
	}

	var env model.Envelope
	verb := "created"
	if in.ID == "" {
		env = backend.Post(ctx, def.Endpoint, body)
	} else {
		verb = "updated"
		env = backend.Put(ctx, itemEndpoint(def, in.ID), body)
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	observability.RequestLogger(ctx, s.logger).Info("content item "+verb,
		zap.String("content", def.ID), zap.String("item_id", in.ID))

	row := model.Row(env.DataMap())
	if row == nil {
		row = model.Row{}
	}
	return row, nil
}

// DeleteItem removes one item of a list document.
func (s *Service) DeleteItem(ctx context.Context, backend Backend, docID, itemID string) error {
	def, err := s.listDefinition(docID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(itemID) == "" {
		return model.NewBadRequestError("item id is required")
	}
	if err := backend.Delete(ctx, itemEndpoint(def, itemID)).Err(); err != nil {
		return err
	}
	observability.RequestLogger(ctx, s.logger).Info("content item deleted",
		zap.String("content", def.ID), zap.String("item_id", itemID))
	return nil
}

func (s *Service) listDefinition(docID string) (model.ContentDefinition, error) {
	def, err := s.definition(docID)
	if err != nil {
		return def, err
	}
	if def.Format != model.ContentList {
		return def, model.NewBadRequestError(fmt.Sprintf("content %q is not a list", docID))
	}
	return def, nil
}

func itemEndpoint(def model.ContentDefinition, itemID string) string {
	return strings.TrimRight(def.Endpoint, "/") + "/" + url.PathEscape(itemID)
}

func fieldOr(field, fallback string) string {
	if field != "" {
		return field
	}
	return fallback
}
