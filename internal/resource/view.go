package resource

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/cebeepredict/admin/internal/listing"
	"github.com/cebeepredict/admin/model"
)

// ErrStale is returned by Load when a newer load started before this one
// finished. Its result was discarded.
var ErrStale = errors.New("resource: load superseded by a newer request")

// ViewState is a snapshot of a View.
type ViewState struct {
	Request model.ListRequest
	Result  model.ListResult
	Loading bool
	// Err is the last load failure. It is cleared by the next successful
	// load; the previous rows are not kept.
	Err error
}

// View is the stateful list controller for one resource: it holds the
// search text, filters, sort and page position, and applies load results
// only when they belong to the latest request. Any change other than a page
// move returns to the first page.
type View struct {
	provider *Provider
	backend  Backend
	def      model.ResourceDefinition
	seq      listing.Sequencer

	mu      sync.Mutex
	current listing.Ticket
	search  string
	filters map[string]string
	sortKey string
	pager   *listing.Pager
	result  model.ListResult
	loading bool
	err     error
}

// NewView creates a view on page 0 with the resource's default sort and
// page size.
func NewView(p *Provider, backend Backend, resourceID string) (*View, error) {
	def, err := p.Definition(resourceID)
	if err != nil {
		return nil, err
	}
	return &View{
		provider: p,
		backend:  backend,
		def:      def,
		filters:  make(map[string]string),
		sortKey:  def.DefaultSort,
		pager:    listing.NewPager(p.DefaultPageSize(def), p.PageSizes()),
	}, nil
}

// Definition returns the resource definition backing the view.
func (v *View) Definition() model.ResourceDefinition { return v.def }

// SetSearch changes the search text.
func (v *View) SetSearch(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = q
	v.pager.Reset()
	v.seq.Cancel()
}

// SetFilter sets a filter by its query parameter. An empty value or "all"
// clears it.
func (v *View) SetFilter(param, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if value == "" || value == listing.FilterAll {
		delete(v.filters, param)
	} else {
		v.filters[param] = value
	}
	v.pager.Reset()
	v.seq.Cancel()
}

// SetSort changes the sort key. Unknown keys are rejected by the next load.
func (v *View) SetSort(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sortKey = key
	v.pager.Reset()
	v.seq.Cancel()
}

// SetPage moves to a page index.
func (v *View) SetPage(index int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pager.SetPage(index)
	v.seq.Cancel()
}

// NextPage advances one page if the last result has one.
func (v *View) NextPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.pager.Next(v.result.TotalCount) {
		return false
	}
	v.seq.Cancel()
	return true
}

// PrevPage goes back one page.
func (v *View) PrevPage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.pager.Prev() {
		return false
	}
	v.seq.Cancel()
	return true
}

// SetPageSize changes the page size and returns to page 0.
func (v *View) SetPageSize(size int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.pager.SetPageSize(size); err != nil {
		return err
	}
	v.seq.Cancel()
	return nil
}

// Request returns the list request for the current state.
func (v *View) Request() model.ListRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.request()
}

func (v *View) request() model.ListRequest {
	return model.ListRequest{
		Collection: v.def.ID,
		Search:     v.search,
		Filters:    maps.Clone(v.filters),
		SortKey:    v.sortKey,
		PageIndex:  v.pager.Index(),
		PageSize:   v.pager.Size(),
	}
}

// State returns a snapshot of the view.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewState{
		Request: v.request(),
		Result:  v.result,
		Loading: v.loading,
		Err:     v.err,
	}
}

// Load fetches the current request. Starting a load or changing the view
// state cancels the one in flight; a load that finishes after either
// returns ErrStale and changes nothing. A failure is recorded in the state
// instead of substituting any rows.
func (v *View) Load(ctx context.Context) error {
	ctx, ticket := v.seq.Begin(ctx)

	v.mu.Lock()
	req := v.request()
	v.loading = true
	if ticket > v.current {
		v.current = ticket
	}
	v.mu.Unlock()

	result, err := v.provider.List(ctx, v.backend, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	// The ticket check and the apply must share one critical section.
	if !v.seq.Done(ticket) {
		v.provider.metrics.RecordStaleResponse()
		if ticket == v.current {
			v.loading = false
		}
		return ErrStale
	}

	v.loading = false
	if err != nil {
		v.err = err
		v.result = model.ListResult{Rows: []model.Row{}, PageIndex: req.PageIndex, PageSize: req.PageSize}
		return err
	}
	v.err = nil
	v.result = result
	// Client paging may have pulled the index back onto the last page.
	v.pager.SetPage(result.PageIndex)
	return nil
}

// Retry reloads after a failure.
func (v *View) Retry(ctx context.Context) error {
	return v.Load(ctx)
}

// Close cancels any load in flight.
func (v *View) Close() {
	v.seq.Cancel()
}
