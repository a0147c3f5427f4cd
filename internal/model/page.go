package model

// Page selects a window of a recency-ordered list.
type Page struct {
	Limit int `json:"limit"`
	Page  int `json:"page"`
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// NewPage clamps limit and page to sane values.
func NewPage(limit, page int) Page {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page < 1 {
		page = 1
	}
	return Page{Limit: limit, Page: page}
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }
