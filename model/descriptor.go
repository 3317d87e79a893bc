package model

// NavigationItem is a single entry of the admin sidebar.
type NavigationItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Route string `json:"route"`
}

// TableDescriptor is the resolved table metadata sent to a SPA client.
type TableDescriptor struct {
	ResourceID   string             `json:"resource_id"`
	Title        string             `json:"title"`
	Columns      []ColumnDescriptor `json:"columns"`
	Filters      []FilterDescriptor `json:"filters,omitempty"`
	Sorts        []OptionDescriptor `json:"sorts,omitempty"`
	RowActions   []ActionDescriptor `json:"row_actions,omitempty"`
	DataEndpoint string             `json:"data_endpoint"`
	DefaultSort  string             `json:"default_sort,omitempty"`
	PageSize     int                `json:"page_size"`
	PageSizes    []int              `json:"page_sizes"`
	SearchHint   string             `json:"search_hint,omitempty"`
	EmptyMessage string             `json:"empty_message"`
}

// ColumnDescriptor describes a visible table column.
type ColumnDescriptor struct {
	ID        string                      `json:"id"`
	Label     string                      `json:"label"`
	Type      string                      `json:"type"`
	Format    string                      `json:"format,omitempty"`
	Width     string                      `json:"width,omitempty"`
	StatusMap map[string]StatusDescriptor `json:"status_map,omitempty"`
}

// StatusDescriptor is the display form of one status bucket.
type StatusDescriptor struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// FilterDescriptor describes a resolved filter control.
type FilterDescriptor struct {
	Param   string             `json:"param"`
	Label   string             `json:"label"`
	Options []OptionDescriptor `json:"options,omitempty"`
}

// OptionDescriptor is a resolved option for dropdowns and filters.
type OptionDescriptor struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ActionDescriptor is a resolved row action.
type ActionDescriptor struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Status     string `json:"status,omitempty"`
	NavigateTo string `json:"navigate_to,omitempty"`
	Confirm    string `json:"confirm,omitempty"`
	Danger     bool   `json:"danger,omitempty"`
}

// DataResponse wraps a listing for the JSON API.
type DataResponse struct {
	Data ListResult     `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// ContentDocument is a CMS document as shown to the editor.
type ContentDocument struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Format    string `json:"format"`
	Body      string `json:"body,omitempty"`
	HTML      string `json:"html,omitempty"`
	Items     []Row  `json:"items,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
