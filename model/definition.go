package model

// DomainDefinition is the root structure of a definition file. Each file
// declares a set of listable resources and editable content documents.
type DomainDefinition struct {
	Domain    string              `yaml:"domain"    json:"domain"`
	Version   string              `yaml:"version"   json:"version"`
	Resources []ResourceDefinition `yaml:"resources" json:"resources,omitempty"`
	Content   []ContentDefinition  `yaml:"content"   json:"content,omitempty"`

	// Checksum is computed at load time and not part of the YAML.
	Checksum string `yaml:"-" json:"-"`
	// SourceFile records the originating file path.
	SourceFile string `yaml:"-" json:"-"`
}

// Paging modes for a resource.
const (
	PagingClient = "client"
	PagingServer = "server"
)

// ResourceDefinition describes one backend collection shown as an admin
// list page: where to fetch it, how to search, filter and sort it, which
// columns to render and which row actions to offer.
type ResourceDefinition struct {
	ID           string             `yaml:"id"            json:"id"`
	Title        string             `yaml:"title"         json:"title"`
	Icon         string             `yaml:"icon"          json:"icon,omitempty"`
	Order        int                `yaml:"order"         json:"order"`
	Endpoint     string             `yaml:"endpoint"      json:"endpoint"`
	ItemsPath    string             `yaml:"items_path"    json:"items_path,omitempty"`
	TotalPath    string             `yaml:"total_path"    json:"total_path,omitempty"`
	Paging       string             `yaml:"paging"        json:"paging"`
	FetchLimit   int                `yaml:"fetch_limit"   json:"fetch_limit,omitempty"`
	SearchFields []string           `yaml:"search_fields" json:"search_fields,omitempty"`
	SearchHint   string             `yaml:"search_hint"   json:"search_hint,omitempty"`
	Filters      []FilterDefinition `yaml:"filters"       json:"filters,omitempty"`
	Sorts        []SortDefinition   `yaml:"sorts"         json:"sorts,omitempty"`
	DefaultSort  string             `yaml:"default_sort"  json:"default_sort,omitempty"`
	PageSize     int                `yaml:"page_size"     json:"page_size,omitempty"`
	Columns      []ColumnDefinition `yaml:"columns"       json:"columns"`
	RowLink      string             `yaml:"row_link"      json:"row_link,omitempty"`
	Actions      []ActionDefinition `yaml:"actions"       json:"actions,omitempty"`
	StatusField  string             `yaml:"status_field"  json:"status_field,omitempty"`
	Vocabulary   string             `yaml:"vocabulary"    json:"vocabulary,omitempty"`
	EmptyMessage string             `yaml:"empty_message" json:"empty_message,omitempty"`
	Writable     bool               `yaml:"writable"      json:"writable,omitempty"`
}

// FilterDefinition describes a filter control above a table. When
// Vocabulary is set the filter value is a status bucket and rows match by
// bucket membership; when Multi is set a comma-separated value matches any
// of its parts; otherwise the match is exact.
type FilterDefinition struct {
	Field      string         `yaml:"field"      json:"field"`
	Param      string         `yaml:"param"      json:"param,omitempty"`
	Label      string         `yaml:"label"      json:"label"`
	Vocabulary string         `yaml:"vocabulary" json:"vocabulary,omitempty"`
	Multi      bool           `yaml:"multi"      json:"multi,omitempty"`
	Options    []StaticOption `yaml:"options"    json:"options,omitempty"`
}

// QueryParam returns the request parameter name carrying this filter.
func (f FilterDefinition) QueryParam() string {
	if f.Param != "" {
		return f.Param
	}
	return f.Field
}

// SortDefinition binds a named sort key to a comparator over one field.
type SortDefinition struct {
	Key   string `yaml:"key"   json:"key"`
	Label string `yaml:"label" json:"label"`
	Field string `yaml:"field" json:"field"`
	Type  string `yaml:"type"  json:"type"`
	Dir   string `yaml:"dir"   json:"dir"`
}

// StaticOption is a label/value pair for dropdowns and filters.
type StaticOption struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// ColumnDefinition describes a table column. Type selects the cell
// formatter: text, number, points, date, datetime, status, bool, team,
// score, count, link.
type ColumnDefinition struct {
	Field      string `yaml:"field"      json:"field"`
	Label      string `yaml:"label"      json:"label"`
	Type       string `yaml:"type"       json:"type"`
	Format     string `yaml:"format"     json:"format,omitempty"`
	Vocabulary string `yaml:"vocabulary" json:"vocabulary,omitempty"`
	Width      string `yaml:"width"      json:"width,omitempty"`
	Suffix     string `yaml:"suffix"     json:"suffix,omitempty"`
}

// Action types.
const (
	ActionStatus   = "status"
	ActionDelete   = "delete"
	ActionNavigate = "navigate"
)

// ActionDefinition describes a row action offered in the action menu.
type ActionDefinition struct {
	ID         string `yaml:"id"          json:"id"`
	Label      string `yaml:"label"       json:"label"`
	Type       string `yaml:"type"        json:"type"`
	Status     string `yaml:"status"      json:"status,omitempty"`
	NavigateTo string `yaml:"navigate_to" json:"navigate_to,omitempty"`
	Confirm    string `yaml:"confirm"     json:"confirm,omitempty"`
	Danger     bool   `yaml:"danger"      json:"danger,omitempty"`
}

// Content formats.
const (
	ContentMarkdown = "markdown"
	ContentList     = "list"
)

// ContentDefinition describes an editable CMS document.
type ContentDefinition struct {
	ID         string `yaml:"id"          json:"id"`
	Title      string `yaml:"title"       json:"title"`
	Endpoint   string `yaml:"endpoint"    json:"endpoint"`
	Format     string `yaml:"format"      json:"format"`
	BodyField  string `yaml:"body_field"  json:"body_field,omitempty"`
	TitleField string `yaml:"title_field" json:"title_field,omitempty"`
	TextField  string `yaml:"text_field"  json:"text_field,omitempty"`
}
