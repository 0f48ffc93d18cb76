package postgres

import (
	"testing"

	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestLeadFilterClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    *types.LeadFilter
		wantWhere string
		wantArgs  map[string]interface{}
	}{
		{
			name:      "no filters",
			filter:    types.NewLeadFilter(),
			wantWhere: "",
			wantArgs:  map[string]interface{}{},
		},
		{
			name:      "quiz only",
			filter:    &types.LeadFilter{QuizID: lo.ToPtr("quiz_1")},
			wantWhere: " WHERE quiz_id = :quiz_id",
			wantArgs:  map[string]interface{}{"quiz_id": "quiz_1"},
		},
		{
			name:      "quiz and paid",
			filter:    &types.LeadFilter{QuizID: lo.ToPtr("quiz_1"), Paid: lo.ToPtr(true)},
			wantWhere: " WHERE quiz_id = :quiz_id AND paid = :paid",
			wantArgs:  map[string]interface{}{"quiz_id": "quiz_1", "paid": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := leadFilterClause(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
