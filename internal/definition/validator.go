package definition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cebeepredict/admin/internal/listing"
	"github.com/cebeepredict/admin/internal/status"
	"github.com/cebeepredict/admin/model"
)

// VError describes a single validation error in a definition.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator validates definitions structurally and against the known status
// vocabularies, column types and sort types.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

var (
	validPaging        = []string{"", model.PagingClient, model.PagingServer}
	validColumnTypes   = []string{"", "text", "number", "points", "date", "datetime", "status", "bool", "team", "score", "count", "link"}
	validSortTypes     = []string{"", listing.TypeNumber, listing.TypeString, listing.TypeTime}
	validSortDirs      = []string{"", "asc", "desc"}
	validActionTypes   = []string{model.ActionStatus, model.ActionDelete, model.ActionNavigate}
	validContentFormat = []string{model.ContentMarkdown, model.ContentList}
)

// Validate checks all definitions. Resource and content IDs must be unique
// across every definition.
func (v *Validator) Validate(defs []model.DomainDefinition) []VError {
	var errs []VError
	seenResources := make(map[string]string)
	seenContent := make(map[string]string)

	for i, def := range defs {
		prefix := fmt.Sprintf("definitions[%d]", i)
		errs = append(errs, v.validateDomain(prefix, def)...)

		for j, res := range def.Resources {
			if res.ID == "" {
				continue
			}
			path := fmt.Sprintf("%s.resources[%d].id", prefix, j)
			if first, dup := seenResources[res.ID]; dup {
				errs = append(errs, VError{Path: path, Code: "DUPLICATE_ID", Message: fmt.Sprintf("resource %q already defined at %s", res.ID, first)})
				continue
			}
			seenResources[res.ID] = path
		}
		for j, c := range def.Content {
			if c.ID == "" {
				continue
			}
			path := fmt.Sprintf("%s.content[%d].id", prefix, j)
			if first, dup := seenContent[c.ID]; dup {
				errs = append(errs, VError{Path: path, Code: "DUPLICATE_ID", Message: fmt.Sprintf("content %q already defined at %s", c.ID, first)})
				continue
			}
			seenContent[c.ID] = path
		}
	}
	return errs
}

func (v *Validator) validateDomain(prefix string, def model.DomainDefinition) []VError {
	var errs []VError

	if def.Domain == "" {
		errs = append(errs, VError{Path: prefix + ".domain", Code: "REQUIRED", Message: "domain is required"})
	}
	if def.Version == "" {
		errs = append(errs, VError{Path: prefix + ".version", Code: "REQUIRED", Message: "version is required"})
	}
	if len(def.Resources) == 0 && len(def.Content) == 0 {
		errs = append(errs, VError{Path: prefix, Code: "EMPTY", Message: "at least one resource or content document is required"})
	}

	for i, res := range def.Resources {
		errs = append(errs, v.validateResource(fmt.Sprintf("%s.resources[%d]", prefix, i), res)...)
	}
	for i, c := range def.Content {
		errs = append(errs, v.validateContent(fmt.Sprintf("%s.content[%d]", prefix, i), c)...)
	}
	return errs
}

func (v *Validator) validateResource(prefix string, res model.ResourceDefinition) []VError {
	var errs []VError
	required := func(field, value string) {
		if value == "" {
			errs = append(errs, VError{Path: prefix + "." + field, Code: "REQUIRED", Message: field + " is required"})
		}
	}
	required("id", res.ID)
	required("title", res.Title)
	required("endpoint", res.Endpoint)

	if res.Endpoint != "" && !strings.HasPrefix(res.Endpoint, "/") {
		errs = append(errs, VError{Path: prefix + ".endpoint", Code: "INVALID_FORMAT", Message: "endpoint must start with /"})
	}
	if !slices.Contains(validPaging, res.Paging) {
		errs = append(errs, VError{Path: prefix + ".paging", Code: "INVALID_ENUM", Message: fmt.Sprintf("invalid paging %q", res.Paging)})
	}
	if res.FetchLimit < 0 {
		errs = append(errs, VError{Path: prefix + ".fetch_limit", Code: "INVALID_VALUE", Message: "fetch_limit must not be negative"})
	}
	if res.PageSize != 0 && !slices.Contains(listing.PageSizes, res.PageSize) {
		errs = append(errs, VError{Path: prefix + ".page_size", Code: "INVALID_VALUE", Message: fmt.Sprintf("page_size must be one of %v", listing.PageSizes)})
	}
	errs = append(errs, checkVocabulary(prefix+".vocabulary", res.Vocabulary)...)

	if len(res.Columns) == 0 {
		errs = append(errs, VError{Path: prefix + ".columns", Code: "REQUIRED", Message: "at least one column is required"})
	}
	for i, col := range res.Columns {
		cp := fmt.Sprintf("%s.columns[%d]", prefix, i)
		if col.Field == "" {
			errs = append(errs, VError{Path: cp + ".field", Code: "REQUIRED", Message: "field is required"})
		}
		if !slices.Contains(validColumnTypes, col.Type) {
			errs = append(errs, VError{Path: cp + ".type", Code: "INVALID_ENUM", Message: fmt.Sprintf("invalid column type %q", col.Type)})
		}
		errs = append(errs, checkVocabulary(cp+".vocabulary", col.Vocabulary)...)
		if col.Type == "status" && col.Vocabulary == "" && res.Vocabulary == "" {
			errs = append(errs, VError{Path: cp + ".vocabulary", Code: "REQUIRED", Message: "status columns need a vocabulary"})
		}
	}

	for i, f := range res.Filters {
		fp := fmt.Sprintf("%s.filters[%d]", prefix, i)
		if f.Field == "" {
			errs = append(errs, VError{Path: fp + ".field", Code: "REQUIRED", Message: "field is required"})
		}
		errs = append(errs, checkVocabulary(fp+".vocabulary", f.Vocabulary)...)
		if f.Vocabulary == "" && len(f.Options) == 0 {
			errs = append(errs, VError{Path: fp + ".options", Code: "REQUIRED", Message: "filters need options or a vocabulary"})
		}
	}

	sortKeys := make(map[string]bool, len(res.Sorts))
	for i, s := range res.Sorts {
		sp := fmt.Sprintf("%s.sorts[%d]", prefix, i)
		if s.Key == "" || s.Field == "" {
			errs = append(errs, VError{Path: sp, Code: "REQUIRED", Message: "key and field are required"})
		}
		if !slices.Contains(validSortTypes, s.Type) {
			errs = append(errs, VError{Path: sp + ".type", Code: "INVALID_ENUM", Message: fmt.Sprintf("invalid sort type %q", s.Type)})
		}
		if !slices.Contains(validSortDirs, strings.ToLower(s.Dir)) {
			errs = append(errs, VError{Path: sp + ".dir", Code: "INVALID_ENUM", Message: fmt.Sprintf("invalid sort dir %q", s.Dir)})
		}
		if sortKeys[s.Key] {
			errs = append(errs, VError{Path: sp + ".key", Code: "DUPLICATE_ID", Message: fmt.Sprintf("duplicate sort key %q", s.Key)})
		}
		sortKeys[s.Key] = true
	}
	if res.DefaultSort != "" && !sortKeys[res.DefaultSort] {
		errs = append(errs, VError{Path: prefix + ".default_sort", Code: "UNKNOWN_REF", Message: fmt.Sprintf("default_sort %q is not a declared sort", res.DefaultSort)})
	}

	for i, a := range res.Actions {
		ap := fmt.Sprintf("%s.actions[%d]", prefix, i)
		if a.ID == "" || a.Label == "" {
			errs = append(errs, VError{Path: ap, Code: "REQUIRED", Message: "id and label are required"})
		}
		if !slices.Contains(validActionTypes, a.Type) {
			errs = append(errs, VError{Path: ap + ".type", Code: "INVALID_ENUM", Message: fmt.Sprintf("invalid action type %q", a.Type)})
			continue
		}
		switch a.Type {
		case model.ActionStatus:
			if a.Status == "" {
				errs = append(errs, VError{Path: ap + ".status", Code: "REQUIRED", Message: "status actions need a target status"})
			}
		case model.ActionNavigate:
			if a.NavigateTo == "" {
				errs = append(errs, VError{Path: ap + ".navigate_to", Code: "REQUIRED", Message: "navigate actions need navigate_to"})
			}
		}
		if (a.Type == model.ActionStatus || a.Type == model.ActionDelete) && !res.Writable {
			errs = append(errs, VError{Path: ap, Code: "READ_ONLY", Message: "write actions require writable: true"})
		}
	}
	return errs
}

func (v *Validator) validateContent(prefix string, c model.ContentDefinition) []VError {
	var errs []VError
	if c.ID == "" {
		errs = append(errs, VError{Path: prefix + ".id", Code: "REQUIRED", Message: "id is required"})
	}
	if c.Title == "" {
		errs = append(errs, VError{Path: prefix + ".title", Code: "REQUIRED", Message: "title is required"})
	}
	if c.Endpoint == "" {
		errs = append(errs, VError{Path: prefix + ".endpoint", Code: "REQUIRED", Message: "endpoint is required"})
	}
	if !slices.Contains(validContentFormat, c.Format) {
		errs = append(errs, VError{Path: prefix + ".format", Code: "INVALID_ENUM", Message: fmt.Sprintf("invalid format %q", c.Format)})
	}
	return errs
}

func checkVocabulary(path, name string) []VError {
	if name == "" {
		return nil
	}
	if _, ok := status.Lookup(name); !ok {
		return []VError{{Path: path, Code: "UNKNOWN_REF", Message: fmt.Sprintf("unknown status vocabulary %q", name)}}
	}
	return nil
}
