package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name               string
		page, size         int
		wantPage, wantSize int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"negative page", -3, 20, 1, 20},
		{"valid passthrough", 4, 50, 4, 50},
		{"oversized page clamped", 1, 5000, 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := normalizePage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestCreditNoteWhere(t *testing.T) {
	where, args := creditNoteWhere(CreditNoteFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = creditNoteWhere(CreditNoteFilter{
		InternalPlan: "ADEST",
		SectionID:    3,
		Status:       "active",
	})
	assert.Equal(t, " WHERE nc.internal_plan ILIKE $1 AND nc.section_id = $2 AND nc.status = $3", where)
	assert.Equal(t, []any{"%ADEST%", int64(3), "active"}, args)
}
