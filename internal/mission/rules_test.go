package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		rules        Rules
		sql          string
		columns      []string
		rowCount     int64
		wantPassed   bool
		wantFeedback string
	}{
		{
			name:         "missing required keyword",
			rules:        Rules{RequiredKeywords: []string{"SELECT", "WHERE"}},
			sql:          "SELECT * FROM users",
			columns:      []string{"id"},
			rowCount:     3,
			wantFeedback: "missing: WHERE",
		},
		{
			name:       "required keywords are case insensitive",
			rules:      Rules{RequiredKeywords: []string{"where"}},
			sql:        "select * from users WHERE id = 1",
			columns:    []string{"id"},
			rowCount:   1,
			wantPassed: true,
		},
		{
			name:         "forbidden keyword",
			rules:        Rules{RequiredKeywords: []string{"BETWEEN"}, ForbiddenKeywords: []string{">=", "<="}},
			sql:          "SELECT * FROM c WHERE age BETWEEN 1 AND 2 OR age >= 5",
			columns:      []string{"id"},
			rowCount:     4,
			wantFeedback: "forbidden keyword(s): >=",
		},
		{
			name:         "required checked before forbidden",
			rules:        Rules{RequiredKeywords: []string{"JOIN"}, ForbiddenKeywords: []string{"*"}},
			sql:          "SELECT * FROM c",
			columns:      []string{"id"},
			rowCount:     4,
			wantFeedback: "missing: JOIN",
		},
		{
			name:         "missing expected column",
			rules:        Rules{ExpectedColumns: []string{"Name", "position"}},
			sql:          "SELECT name FROM c",
			columns:      []string{"NAME"},
			rowCount:     2,
			wantFeedback: "missing expected columns: position",
		},
		{
			name:       "expected columns satisfied short-circuits row rules",
			rules:      Rules{ExpectedColumns: []string{"name"}, MinRows: intPtr(10)},
			sql:        "SELECT name FROM c",
			columns:    []string{"name"},
			rowCount:   0,
			wantPassed: true,
		},
		{
			name:         "expected columns ignored without result columns",
			rules:        Rules{ExpectedColumns: []string{"name"}, ExpectedRowCountAfter: intPtr(1)},
			sql:          "INSERT INTO c (name) VALUES ('x'), ('y')",
			rowCount:     2,
			wantFeedback: "Expected exactly 1 rows",
		},
		{
			name:         "min rows not met",
			rules:        Rules{MinRows: intPtr(8)},
			sql:          "SELECT * FROM c LIMIT 2",
			columns:      []string{"id"},
			rowCount:     2,
			wantFeedback: "Expected at least 8 rows, but got 2",
		},
		{
			name:       "min rows met",
			rules:      Rules{MinRows: intPtr(8)},
			sql:        "SELECT * FROM c",
			columns:    []string{"id"},
			rowCount:   8,
			wantPassed: true,
		},
		{
			name:       "min rows wins over exact count",
			rules:      Rules{MinRows: intPtr(1), ExpectedRowCountAfter: intPtr(1)},
			sql:        "SELECT * FROM c",
			columns:    []string{"id"},
			rowCount:   5,
			wantPassed: true,
		},
		{
			name:         "exact count mismatch",
			rules:        Rules{ExpectedRowCountAfter: intPtr(3)},
			sql:          "SELECT * FROM c WHERE district = 'Harbor' OR true",
			columns:      []string{"id"},
			rowCount:     8,
			wantFeedback: "Expected exactly 3 rows after operation, but got 8",
		},
		{
			name:       "declared zero exact count accepts ddl",
			rules:      Rules{RequiredKeywords: []string{"CREATE TABLE"}, ExpectedRowCountAfter: intPtr(0)},
			sql:        "create table evidence (id int)",
			rowCount:   0,
			wantPassed: true,
		},
		{
			name:         "empty result fails by default",
			rules:        Rules{RequiredKeywords: []string{"SELECT"}},
			sql:          "SELECT * FROM c WHERE false",
			columns:      []string{"id"},
			rowCount:     0,
			wantFeedback: "returned no rows",
		},
		{
			name:       "no rules and rows returned",
			sql:        "SELECT 1",
			columns:    []string{"?column?"},
			rowCount:   1,
			wantPassed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := tt.rules.Evaluate(tt.sql, tt.columns, tt.rowCount)
			assert.Equal(t, tt.wantPassed, verdict.Passed, verdict.Feedback)
			if tt.wantPassed {
				assert.Empty(t, verdict.Feedback)
				return
			}
			assert.Contains(t, verdict.Feedback, tt.wantFeedback)
		})
	}
}

func TestDefaultMissionsAcceptTheirExpectedShape(t *testing.T) {
	catalog, err := Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	// Row counts the fixture data produces for each expected query.
	rowCounts := map[string]int64{
		"level1-mission1":  8,
		"level1-mission2":  8,
		"level1-mission3":  3,
		"level1-mission4":  8,
		"level1-mission5":  3,
		"level1-mission6":  3,
		"level1-mission7":  1,
		"level1-mission8":  4,
		"level1-mission9":  6,
		"level1-mission10": 1,
		"level2-mission1":  1,
		"level2-mission2":  1,
		"level2-mission3":  2,
		"level2-mission4":  0,
		"level2-mission5":  3,
	}

	for _, m := range catalog.All() {
		count, ok := rowCounts[m.ID]
		if !ok {
			t.Fatalf("no expected row count for %s", m.ID)
		}
		columns := m.ValidationRules.ExpectedColumns
		if len(columns) == 0 && count > 0 {
			columns = []string{"id"}
		}
		verdict := m.ValidationRules.Evaluate(m.ExpectedQuery, columns, count)
		if !verdict.Passed {
			t.Fatalf("%s: expected query rejected: %s", m.ID, verdict.Feedback)
		}
	}
}
