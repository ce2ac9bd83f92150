package entities

import "github.com/shopspring/decimal"

// FilterState is the structured filter applied to the transaction list.
// Zero values mean "no filter"; amount bounds are pointers so that an
// absent bound is distinguishable from zero.
type FilterState struct {
	Search    string           `json:"search" form:"search"`
	Type      string           `json:"type" form:"type"`
	Status    string           `json:"status" form:"status"`
	MinAmount *decimal.Decimal `json:"min_amount,omitempty" form:"min_amount"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty" form:"max_amount"`
	FraudOnly bool             `json:"fraud_only" form:"fraud_only"`
}

// IsZero reports whether no filter is active.
func (f FilterState) IsZero() bool {
	return f.Search == "" && f.Type == "" && f.Status == "" &&
		f.MinAmount == nil && f.MaxAmount == nil && !f.FraudOnly
}

// PageRequest is a zero-based pagination request.
type PageRequest struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Validate clamps the request to sane bounds.
func (p *PageRequest) Validate() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize < 1 || p.PageSize > 500 {
		p.PageSize = 25
	}
}

// Offset returns the row offset for the request.
func (p PageRequest) Offset() int {
	return p.Page * p.PageSize
}
