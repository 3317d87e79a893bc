package validation

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// StatusPatch changes the status field of a record.
type StatusPatch struct {
	Status string `json:"status" validate:"required,notblank,max=64"`
}

// ContentBody replaces the markdown body of a CMS document.
type ContentBody struct {
	Title string `json:"title" validate:"max=200"`
	Body  string `json:"body" validate:"required,notblank,max=200000"`
}

// ContentItem is one entry of a list-shaped CMS document, such as a FAQ.
type ContentItem struct {
	ID    string `json:"id" validate:"max=128"`
	Title string `json:"title" validate:"required,notblank,max=300"`
	Text  string `json:"text" validate:"required,notblank,max=20000"`
	Order int    `json:"order" validate:"min=0,max=10000"`
}

// ListParams are the query parameters accepted by list endpoints.
type ListParams struct {
	Page     int    `json:"page" validate:"min=0"`
	PageSize int    `json:"page_size" validate:"omitempty,oneof=10 25 50 100"`
	Search   string `json:"search" validate:"max=200"`
	Sort     string `json:"sort" validate:"max=64"`
}
