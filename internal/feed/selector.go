// Package feed turns raw limit/offset query values into a page of the
// visible wall.
package feed

import (
	"lennonwall/backend/internal/config"
	"lennonwall/backend/internal/models"
)

// Source is the read side of the engagement store.
type Source interface {
	VisiblePage(limit, offset int) ([]models.Message, int)
}

// Page is the envelope returned to clients. Total counts all visible
// messages, not just the ones on this page.
type Page struct {
	Messages []models.Message `json:"messages"`
	Total    int              `json:"total"`
}

type Selector struct {
	source Source
}

func NewSelector(source Source) *Selector {
	return &Selector{source: source}
}

// Page normalises the paging parameters and reads one page. A limit of zero
// or less means the default page size and limits above MaxPageSize are
// capped.
func (s *Selector) Page(limit, offset int) Page {
	limit, offset = Normalize(limit, offset)

	msgs, total := s.source.VisiblePage(limit, offset)
	if msgs == nil {
		msgs = []models.Message{}
	}
	return Page{Messages: msgs, Total: total}
}

// Normalize applies the default, the cap and the offset floor.
func Normalize(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = config.DefaultPageSize
	}
	if limit > config.MaxPageSize {
		limit = config.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
