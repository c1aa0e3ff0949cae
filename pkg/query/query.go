// Package query implements tenant-scoped, filtered and paginated listing.
// Every entry point takes the firm id as a mandatory argument.
package query

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Status filters cases by their closed flag.
type Status string

const (
	StatusAll    Status = "all"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Params are the caller-controlled listing inputs.
type Params struct {
	Page     int
	PageSize int
	Keyword  string
	Status   Status
}

// Normalize fills defaults (page 1, size 20, status all) and rejects values
// outside page >= 1 and 1 <= size <= 100. Pages whose offset would not fit
// in an int are rejected too.
func (p Params) Normalize() (Params, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Status == "" {
		p.Status = StatusAll
	}
	if p.Page < 1 {
		return p, apperr.Invalid("page", "Must be at least 1")
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return p, apperr.Invalid("page_size", "Must be between 1 and 100")
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return p, apperr.Invalid("page", "Is too large")
	}
	switch p.Status {
	case StatusAll, StatusOpen, StatusClosed:
	default:
		return p, apperr.Invalid("status", "Value is not allowed")
	}
	return p, nil
}

// Offset is the number of rows skipped before the requested page.
func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

// Pages is ceil(total / size).
func Pages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(size)))
}

// run counts the filtered rows, then loads one page. base must already carry
// every filter; prepare adds ordering, preloads and selects for the data query only.
func run[T any](ctx context.Context, base *gorm.DB, p Params, prepare func(*gorm.DB) *gorm.DB) (models.Page[T], error) {
	out := models.Page[T]{Page: p.Page, PageSize: p.PageSize, Items: []T{}}

	if err := base.WithContext(ctx).Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, apperr.Internal(err)
	}
	out.Pages = Pages(out.Total, p.PageSize)

	// Past the last page: empty slice, correct total.
	if int64(p.Offset()) >= out.Total {
		return out, nil
	}

	rows := make([]T, 0, p.PageSize)
	q := prepare(base.WithContext(ctx).Session(&gorm.Session{}))
	if err := q.Offset(p.Offset()).Limit(p.PageSize).Find(&rows).Error; err != nil {
		return out, apperr.Internal(err)
	}
	out.Items = rows
	return out, nil
}
