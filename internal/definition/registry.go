package definition

import (
	"cmp"
	"crypto/sha256"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cebeepredict/admin/model"
)

// snapshot is an immutable collection of all definitions indexed by ID.
type snapshot struct {
	domains   map[string]model.DomainDefinition
	resources map[string]model.ResourceDefinition
	content   map[string]model.ContentDefinition
	ordered   []model.ResourceDefinition
	checksum  string
}

// Registry is a read-optimized, thread-safe store of all loaded definitions.
// It uses atomic pointer swap for lock-free concurrent reads.
type Registry struct {
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates a Registry from the given definitions.
func NewRegistry(defs []model.DomainDefinition) *Registry {
	r := &Registry{}
	r.Replace(defs)
	return r
}

// Replace atomically swaps the registry contents with a new snapshot built
// from the given definitions. Later definitions override earlier ones with
// the same ID, so operator directories can replace built-in resources.
func (r *Registry) Replace(defs []model.DomainDefinition) {
	s := &snapshot{
		domains:   make(map[string]model.DomainDefinition, len(defs)),
		resources: make(map[string]model.ResourceDefinition),
		content:   make(map[string]model.ContentDefinition),
	}

	var checksumParts []string

	for _, def := range defs {
		s.domains[def.Domain] = def
		checksumParts = append(checksumParts, def.Checksum)

		for _, res := range def.Resources {
			s.resources[res.ID] = res
		}
		for _, c := range def.Content {
			s.content[c.ID] = c
		}
	}

	for _, res := range s.resources {
		s.ordered = append(s.ordered, res)
	}
	slices.SortFunc(s.ordered, func(a, b model.ResourceDefinition) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), strings.Compare(a.ID, b.ID))
	})

	sort.Strings(checksumParts)
	combined := strings.Join(checksumParts, ":")
	s.checksum = fmt.Sprintf("%x", sha256.Sum256([]byte(combined)))

	r.snap.Store(s)
}

func (r *Registry) current() *snapshot {
	return r.snap.Load()
}

// GetDomain returns the domain definition with the given ID.
func (r *Registry) GetDomain(domainID string) (model.DomainDefinition, bool) {
	d, ok := r.current().domains[domainID]
	return d, ok
}

// GetResource returns the resource definition with the given ID.
func (r *Registry) GetResource(resourceID string) (model.ResourceDefinition, bool) {
	res, ok := r.current().resources[resourceID]
	return res, ok
}

// GetContent returns the content definition with the given ID.
func (r *Registry) GetContent(contentID string) (model.ContentDefinition, bool) {
	c, ok := r.current().content[contentID]
	return c, ok
}

// AllResources returns all resource definitions in navigation order.
func (r *Registry) AllResources() []model.ResourceDefinition {
	return slices.Clone(r.current().ordered)
}

// AllContent returns all content definitions sorted by ID.
func (r *Registry) AllContent() []model.ContentDefinition {
	s := r.current()
	out := make([]model.ContentDefinition, 0, len(s.content))
	for _, c := range s.content {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b model.ContentDefinition) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Navigation returns one menu entry per resource, then one per content
// document.
func (r *Registry) Navigation() []model.NavigationItem {
	var items []model.NavigationItem
	for _, res := range r.AllResources() {
		items = append(items, model.NavigationItem{
			ID:    res.ID,
			Label: res.Title,
			Icon:  res.Icon,
			Route: "/resources/" + res.ID,
		})
	}
	for _, c := range r.AllContent() {
		items = append(items, model.NavigationItem{
			ID:    c.ID,
			Label: c.Title,
			Icon:  "article",
			Route: "/content/" + c.ID,
		})
	}
	return items
}

// Count returns the number of loaded resource and content definitions.
func (r *Registry) Count() int {
	s := r.current()
	return len(s.resources) + len(s.content)
}

// Checksum returns the combined checksum of all loaded definitions.
func (r *Registry) Checksum() string {
	return r.current().checksum
}
