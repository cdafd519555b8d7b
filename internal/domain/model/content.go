// Package model defines the persisted data types of the Knowlio site.
package model

import (
	"strings"
	"time"
)

// ContentType classifies a catalog item.
type ContentType string

const (
	ContentTypeBook    ContentType = "Book"
	ContentTypeVideo   ContentType = "Video"
	ContentTypeAudio   ContentType = "Audio"
	ContentTypeDataset ContentType = "Dataset"
)

// ContentItem is a licensable item in the publisher's content library.
// Pricing values are display strings such as "$5,000".
type ContentItem struct {
	ID               string      `json:"id"                db:"id"`
	Title            string      `json:"title"             db:"title"`
	Type             ContentType `json:"type"              db:"type"`
	PricingTraining  string      `json:"pricing_training"  db:"pricing_training"`
	PricingReference string      `json:"pricing_reference" db:"pricing_reference"`
	Sharing          bool        `json:"sharing"           db:"sharing"`
	CreatedAt        time.Time   `json:"created_at"        db:"created_at"`
}

// SharingLabel renders the sharing flag for the library table.
func (c ContentItem) SharingLabel() string {
	if c.Sharing {
		return "Enabled"
	}
	return "Disabled"
}

// Page sizes offered by the library table.
var ContentPageSizes = []int{5, 10, 25}

const DefaultContentPageSize = 5

// ContentListOptions filters and paginates the content library.
type ContentListOptions struct {
	Search string
	Limit  int
	Offset int
}

// Normalize trims the search term and clamps pagination to supported values.
func (o ContentListOptions) Normalize() ContentListOptions {
	o.Search = strings.TrimSpace(o.Search)
	valid := false
	for _, s := range ContentPageSizes {
		if o.Limit == s {
			valid = true
			break
		}
	}
	if !valid {
		o.Limit = DefaultContentPageSize
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// ContentPage is one page of library results.
type ContentPage struct {
	Items  []*ContentItem
	Total  int
	Limit  int
	Offset int
}

// HasPrev reports whether an earlier page exists.
func (p ContentPage) HasPrev() bool { return p.Offset > 0 }

// HasNext reports whether a later page exists.
func (p ContentPage) HasNext() bool { return p.Offset+len(p.Items) < p.Total }

// PrevOffset is the offset of the previous page.
func (p ContentPage) PrevOffset() int { return max(p.Offset-p.Limit, 0) }

// NextOffset is the offset of the next page.
func (p ContentPage) NextOffset() int { return p.Offset + p.Limit }

// RangeStart is the 1-based index of the first row shown, or 0 when empty.
func (p ContentPage) RangeStart() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.Offset + 1
}

// RangeEnd is the 1-based index of the last row shown.
func (p ContentPage) RangeEnd() int { return p.Offset + len(p.Items) }
