package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFilterStateIsZero(t *testing.T) {
	assert.True(t, FilterState{}.IsZero())

	min := decimal.New(100, 0)
	assert.False(t, FilterState{Search: "bob"}.IsZero())
	assert.False(t, FilterState{MinAmount: &min}.IsZero())
	assert.False(t, FilterState{FraudOnly: true}.IsZero())
}

func TestPageRequestValidate(t *testing.T) {
	p := PageRequest{Page: -3, PageSize: 0}
	p.Validate()
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, 25, p.PageSize)

	p = PageRequest{Page: 2, PageSize: 1000}
	p.Validate()
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 25, p.PageSize)

	p = PageRequest{Page: 4, PageSize: 50}
	p.Validate()
	assert.Equal(t, 200, p.Offset())
}
