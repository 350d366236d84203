package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		want  string
	}{
		{
			name:  "select with columns and clauses",
			rules: Rules{RequiredKeywords: []string{"SELECT", "JOIN", "where", "ORDER BY"}, ExpectedColumns: []string{"name", "position"}},
			want:  "SELECT name, position\nFROM ...\nJOIN ... ON ...\nWHERE ...\nORDER BY ...;",
		},
		{
			name:  "select star with grouping",
			rules: Rules{RequiredKeywords: []string{"SELECT", "GROUP", "HAVING"}},
			want:  "SELECT *\nFROM ...\nGROUP BY ...\nHAVING ...;",
		},
		{
			name:  "insert",
			rules: Rules{RequiredKeywords: []string{"INSERT", "INTO"}},
			want:  "INSERT INTO table_name (column1, column2)\nVALUES (value1, value2);",
		},
		{
			name:  "delete",
			rules: Rules{RequiredKeywords: []string{"DELETE", "WHERE"}},
			want:  "DELETE FROM table_name\nWHERE condition;",
		},
		{
			name:  "create table phrase",
			rules: Rules{RequiredKeywords: []string{"CREATE TABLE"}},
			want:  "CREATE TABLE table_name (\n  id SERIAL PRIMARY KEY,\n  column1 VARCHAR(100),\n  column2 INT\n);",
		},
		{
			name:  "nothing inferable",
			rules: Rules{RequiredKeywords: []string{"LIKE"}},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Template(Mission{ValidationRules: tt.rules}))
		})
	}
}

func TestHintsFollowCatalogOrder(t *testing.T) {
	catalog, err := NewCatalog([]Mission{
		{ID: "level1-mission2", Level: 1, Title: "Two", Hint: "second"},
		{ID: "level1-mission1", Level: 1, Title: "One", Hint: "first"},
	})
	require.NoError(t, err)

	assert.Equal(t, []Hint{
		{ID: "level1-mission1", Title: "One", Hint: "first", Level: 1},
		{ID: "level1-mission2", Title: "Two", Hint: "second", Level: 1},
	}, catalog.Hints())
}

func TestExamplesReturnsCopy(t *testing.T) {
	first := Examples()
	require.NotEmpty(t, first)
	first[0].Title = "changed"
	assert.NotEqual(t, "changed", Examples()[0].Title)
}
