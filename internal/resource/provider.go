// Package resource turns resource definitions into table descriptors and
// page data. It fetches collections through the backend client and runs them
// through the list engine, or pushes paging to the backend for resources
// that page server-side.
package resource

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/listing"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/status"
	"github.com/cebeepredict/admin/model"
)

// Backend is the subset of the API client the provider calls. Every call
// returns an envelope; failures are never Go errors.
type Backend interface {
	Get(ctx context.Context, endpoint string, query url.Values) model.Envelope
	Post(ctx context.Context, endpoint string, body any) model.Envelope
	Put(ctx context.Context, endpoint string, body any) model.Envelope
	Patch(ctx context.Context, endpoint string, body any) model.Envelope
	Delete(ctx context.Context, endpoint string) model.Envelope
}

// DefaultFetchLimit is the number of rows fetched for client-paged
// resources when neither the definition nor the config sets one.
const DefaultFetchLimit = 1000

// Provider resolves resource definitions and loads their data.
type Provider struct {
	registry *definition.Registry
	cfg      config.ListingConfig
	collator *listing.Collator
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithMetrics records list outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

// WithLogger sets the provider logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a Provider backed by the given registry.
func NewProvider(registry *definition.Registry, cfg config.ListingConfig, opts ...Option) *Provider {
	p := &Provider{
		registry: registry,
		cfg:      cfg,
		collator: listing.NewCollator(cfg.Locale),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Definition returns the resource definition or a NOT_FOUND error.
func (p *Provider) Definition(resourceID string) (model.ResourceDefinition, error) {
	def, ok := p.registry.GetResource(resourceID)
	if !ok {
		return model.ResourceDefinition{}, model.NewNotFoundError(fmt.Sprintf("resource %q not found", resourceID))
	}
	return def, nil
}

// PageSizes returns the selectable page sizes.
func (p *Provider) PageSizes() []int {
	if len(p.cfg.PageSizes) > 0 {
		return p.cfg.PageSizes
	}
	return listing.PageSizes
}

// DefaultPageSize returns the page size a resource starts with.
func (p *Provider) DefaultPageSize(def model.ResourceDefinition) int {
	sizes := p.PageSizes()
	for _, size := range []int{def.PageSize, p.cfg.DefaultPageSize} {
		if slices.Contains(sizes, size) {
			return size
		}
	}
	return sizes[0]
}

// Descriptor resolves the table metadata for a resource.
func (p *Provider) Descriptor(resourceID string) (model.TableDescriptor, error) {
	def, err := p.Definition(resourceID)
	if err != nil {
		return model.TableDescriptor{}, err
	}

	desc := model.TableDescriptor{
		ResourceID:   def.ID,
		Title:        def.Title,
		DataEndpoint: fmt.Sprintf("/ui/api/resources/%s/data", def.ID),
		DefaultSort:  def.DefaultSort,
		PageSize:     p.DefaultPageSize(def),
		PageSizes:    slices.Clone(p.PageSizes()),
		SearchHint:   def.SearchHint,
		EmptyMessage: EmptyMessage(def),
	}

	// Resolve columns. Status columns carry their bucket map.
	for _, col := range def.Columns {
		cd := model.ColumnDescriptor{
			ID:     col.Field,
			Label:  col.Label,
			Type:   col.Type,
			Format: col.Format,
			Width:  col.Width,
		}
		if col.Type == "status" {
			if vocab, ok := ColumnVocabulary(def, col); ok {
				cd.StatusMap = vocab.StatusMap()
			}
		}
		desc.Columns = append(desc.Columns, cd)
	}

	// Resolve filters.
	for _, f := range def.Filters {
		desc.Filters = append(desc.Filters, model.FilterDescriptor{
			Param:   f.QueryParam(),
			Label:   f.Label,
			Options: FilterOptions(f),
		})
	}

	// Resolve sorts.
	for _, s := range def.Sorts {
		label := s.Label
		if label == "" {
			label = s.Key
		}
		desc.Sorts = append(desc.Sorts, model.OptionDescriptor{Label: label, Value: s.Key})
	}

	desc.RowActions = ResolveActions(def)
	return desc, nil
}

// ColumnVocabulary returns the vocabulary a status column resolves through:
// its own, else the resource's.
func ColumnVocabulary(def model.ResourceDefinition, col model.ColumnDefinition) (*status.Vocabulary, bool) {
	name := col.Vocabulary
	if name == "" {
		name = def.Vocabulary
	}
	if name == "" {
		return nil, false
	}
	return status.Lookup(name)
}

// FilterOptions returns the options of a filter control with "All" first.
func FilterOptions(f model.FilterDefinition) []model.OptionDescriptor {
	if f.Vocabulary != "" {
		if vocab, ok := status.Lookup(f.Vocabulary); ok {
			return vocab.Options()
		}
	}
	opts := make([]model.OptionDescriptor, 0, len(f.Options)+1)
	opts = append(opts, model.OptionDescriptor{Label: "All", Value: listing.FilterAll})
	for _, o := range f.Options {
		opts = append(opts, model.OptionDescriptor{Label: o.Label, Value: o.Value})
	}
	return opts
}

// ResolveActions converts action definitions into descriptors. Write
// actions on read-only resources are dropped.
func ResolveActions(def model.ResourceDefinition) []model.ActionDescriptor {
	result := []model.ActionDescriptor{}
	for _, a := range def.Actions {
		if a.Type != model.ActionNavigate && !def.Writable {
			continue
		}
		result = append(result, model.ActionDescriptor{
			ID:         a.ID,
			Label:      a.Label,
			Type:       a.Type,
			Status:     a.Status,
			NavigateTo: a.NavigateTo,
			Confirm:    a.Confirm,
			Danger:     a.Danger,
		})
	}
	return result
}

// EmptyMessage returns the message shown when a listing has no rows.
func EmptyMessage(def model.ResourceDefinition) string {
	if def.EmptyMessage != "" {
		return def.EmptyMessage
	}
	return fmt.Sprintf("No %s found.", strings.ToLower(def.Title))
}

// List loads one page of a resource. Client-paged resources are fetched up
// to the fetch limit and run through the list engine; server-paged resources
// forward the request as query parameters.
func (p *Provider) List(ctx context.Context, backend Backend, req model.ListRequest) (model.ListResult, error) {
	def, err := p.Definition(req.Collection)
	if err != nil {
		return model.ListResult{}, err
	}
	req = p.normalize(def, req)
	log := observability.RequestLogger(ctx, p.logger)

	var result model.ListResult
	var fetched int
	if def.Paging == model.PagingServer {
		result, err = p.listServer(ctx, backend, def, req)
		fetched = len(result.Rows)
	} else {
		result, fetched, err = p.listClient(ctx, backend, def, req)
	}
	if err != nil {
		p.metrics.RecordList(def.ID, "error", 0)
		log.Warn("list failed", zap.String("resource", def.ID), zap.Error(err))
		return model.ListResult{}, err
	}

	p.metrics.RecordList(def.ID, "ok", fetched)
	log.Debug("list loaded",
		zap.String("resource", def.ID),
		zap.Int("fetched", fetched),
		zap.Int("total", result.TotalCount),
		zap.Int("page", result.PageIndex),
	)
	return result, nil
}

// normalize fills defaults: a page size outside the allowed set becomes the
// resource default, a negative index becomes 0, an empty sort key becomes
// the resource default sort.
func (p *Provider) normalize(def model.ResourceDefinition, req model.ListRequest) model.ListRequest {
	if !slices.Contains(p.PageSizes(), req.PageSize) {
		req.PageSize = p.DefaultPageSize(def)
	}
	req.PageIndex = max(req.PageIndex, 0)
	if req.SortKey == "" {
		req.SortKey = def.DefaultSort
	}
	req.Search = strings.TrimSpace(req.Search)
	return req
}

func (p *Provider) listClient(ctx context.Context, backend Backend, def model.ResourceDefinition, req model.ListRequest) (model.ListResult, int, error) {
	// 1. Build the pipeline first so a bad sort key fails before fetching.
	q, err := p.query(def, req)
	if err != nil {
		return model.ListResult{}, 0, err
	}

	// 2. Fetch the whole collection up to the limit.
	limit := def.FetchLimit
	if limit <= 0 {
		limit = p.cfg.FetchLimit
	}
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	env := backend.Get(ctx, def.Endpoint, url.Values{"limit": {strconv.Itoa(limit)}})
	if err := env.Err(); err != nil {
		return model.ListResult{}, 0, err
	}
	rows := extractRows(env, def.ItemsPath)

	// 3. Search, filter, sort.
	filtered, err := listing.Apply(rows, q)
	if err != nil {
		return model.ListResult{}, 0, err
	}

	// 4. Pull the index back when filters shrank the result, then slice.
	pageIndex := req.PageIndex
	if total := len(filtered); total > 0 && pageIndex*req.PageSize >= total {
		pageIndex = (total - 1) / req.PageSize
	}
	return listing.Paginate(filtered, pageIndex, req.PageSize), len(rows), nil
}

func (p *Provider) listServer(ctx context.Context, backend Backend, def model.ResourceDefinition, req model.ListRequest) (model.ListResult, error) {
	if req.SortKey != "" && !slices.ContainsFunc(def.Sorts, func(s model.SortDefinition) bool { return s.Key == req.SortKey }) {
		return model.ListResult{}, model.NewBadRequestError(fmt.Sprintf("unknown sort key %q", req.SortKey))
	}

	// The backend pages from 1.
	query := url.Values{}
	query.Set("page", strconv.Itoa(req.PageIndex+1))
	query.Set("limit", strconv.Itoa(req.PageSize))
	if req.Search != "" {
		query.Set("search", req.Search)
	}
	if req.SortKey != "" {
		query.Set("sort", req.SortKey)
	}
	for _, f := range def.Filters {
		value := strings.TrimSpace(req.Filters[f.QueryParam()])
		if value == "" || strings.EqualFold(value, listing.FilterAll) {
			continue
		}
		query.Set(f.QueryParam(), value)
	}

	env := backend.Get(ctx, def.Endpoint, query)
	if err := env.Err(); err != nil {
		return model.ListResult{}, err
	}

	rows := extractRows(env, def.ItemsPath)
	total := extractTotal(env, def.TotalPath)
	if total < len(rows) {
		total = req.PageIndex*req.PageSize + len(rows)
	}
	return model.ListResult{
		Rows:       rows,
		TotalCount: total,
		PageIndex:  req.PageIndex,
		PageSize:   req.PageSize,
	}, nil
}

// query builds the list engine configuration for a request.
func (p *Provider) query(def model.ResourceDefinition, req model.ListRequest) (listing.Query, error) {
	comparators, err := listing.Comparators(def.Sorts, p.collator)
	if err != nil {
		return listing.Query{}, model.NewInternalError()
	}
	if _, ok := comparators[req.SortKey]; req.SortKey != "" && !ok {
		return listing.Query{}, model.NewBadRequestError(fmt.Sprintf("unknown sort key %q", req.SortKey))
	}

	q := listing.Query{
		Search:       req.Search,
		SearchFields: def.SearchFields,
		SortKey:      req.SortKey,
		Comparators:  comparators,
	}
	for _, f := range def.Filters {
		raw, ok := req.Filters[f.QueryParam()]
		if !ok {
			continue
		}
		values := []string{raw}
		if f.Multi {
			values = strings.Split(raw, ",")
		}
		filter := listing.Filter{Field: f.Field, Values: values}
		if f.Vocabulary != "" {
			if vocab, ok := status.Lookup(f.Vocabulary); ok {
				filter.Normalize = vocab.Normalizer()
				for i, v := range filter.Values {
					if vocab.Known(v) {
						filter.Values[i] = vocab.BucketKey(v)
					}
				}
			}
		}
		q.Filters = append(q.Filters, filter)
	}
	return q, nil
}

// extractRows finds the item list in a successful envelope. With a path it
// is looked up in the unwrapped data, then in the raw body; without one the
// data itself or its "items" member is used.
func extractRows(env model.Envelope, path string) []model.Row {
	var raw any
	switch {
	case path != "":
		raw = extractPath(env.Data, path)
		if raw == nil {
			raw = extractPath(env.Raw, path)
		}
	default:
		raw = env.Data
		if m, ok := raw.(map[string]any); ok {
			raw = m["items"]
		}
	}
	return toRows(raw)
}

// extractTotal reads the total count at path, in the raw body first since
// totals usually sit beside "data". It returns -1 when absent.
func extractTotal(env model.Envelope, path string) int {
	if path == "" {
		return -1
	}
	for _, src := range []any{env.Raw, env.Data} {
		if v, ok := extractPath(src, path).(float64); ok {
			return int(v)
		}
	}
	return -1
}

// extractPath navigates a dot-separated path in a decoded JSON value.
func extractPath(data any, path string) any {
	if path == "" || data == nil {
		return nil
	}
	current := data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// toRows converts a decoded JSON array into rows, skipping non-objects.
func toRows(v any) []model.Row {
	slice, ok := v.([]any)
	if !ok {
		return []model.Row{}
	}
	rows := make([]model.Row, 0, len(slice))
	for _, item := range slice {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, model.Row(m))
		}
	}
	return rows
}
