package mission

import (
	"slices"
	"strings"
)

type Example struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Query       string `json:"query"`
	Category    string `json:"category"`
}

type Hint struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Hint  string `json:"hint"`
	Level int    `json:"level"`
}

var examples = []Example{
	{Title: "Basic SELECT", Description: "Get all columns from a table", Query: "SELECT * FROM citizens;", Category: "Basic"},
	{Title: "SELECT with WHERE", Description: "Filter records by condition", Query: "SELECT name, age FROM citizens WHERE age > 25;", Category: "Basic"},
	{Title: "ORDER BY", Description: "Sort results", Query: "SELECT name, age FROM citizens ORDER BY age DESC;", Category: "Basic"},
	{Title: "COUNT and GROUP BY", Description: "Count records by group", Query: "SELECT district, COUNT(*) AS population FROM citizens GROUP BY district;", Category: "Aggregation"},
	{Title: "INNER JOIN", Description: "Join two tables", Query: "SELECT c.name, j.position FROM citizens c INNER JOIN jobs j ON c.id = j.citizen_id;", Category: "Joins"},
	{Title: "LEFT JOIN", Description: "Include unmatched records from left table", Query: "SELECT c.name, j.position FROM citizens c LEFT JOIN jobs j ON c.id = j.citizen_id;", Category: "Joins"},
	{Title: "BETWEEN", Description: "Range filtering", Query: "SELECT name, age FROM citizens WHERE age BETWEEN 20 AND 30;", Category: "Filtering"},
	{Title: "LIKE Pattern", Description: "Text pattern matching", Query: "SELECT name FROM citizens WHERE name LIKE 'A%';", Category: "Filtering"},
	{Title: "AVG Aggregate", Description: "Calculate average", Query: "SELECT AVG(age) AS average_age FROM citizens;", Category: "Aggregation"},
	{Title: "HAVING Clause", Description: "Filter after aggregation", Query: "SELECT district, COUNT(*) FROM citizens GROUP BY district HAVING COUNT(*) > 2;", Category: "Advanced"},
	{Title: "CASE Statement", Description: "Conditional logic", Query: "SELECT name, CASE WHEN age < 30 THEN 'Young' ELSE 'Adult' END AS category FROM citizens;", Category: "Advanced"},
	{Title: "Subquery", Description: "Query within a query", Query: "SELECT name FROM citizens WHERE age > (SELECT AVG(age) FROM citizens);", Category: "Advanced"},
}

// Examples returns the static SQL cheat sheet.
func Examples() []Example {
	return slices.Clone(examples)
}

func (c *Catalog) Hints() []Hint {
	hints := make([]Hint, 0, len(c.ordered))
	for _, m := range c.ordered {
		hints = append(hints, Hint{ID: m.ID, Title: m.Title, Hint: m.Hint, Level: m.Level})
	}
	return hints
}

// Template builds a query skeleton from the mission's required keywords. It
// returns an empty string when no statement kind can be inferred.
func Template(m Mission) string {
	keywords := make(map[string]struct{}, len(m.ValidationRules.RequiredKeywords))
	for _, kw := range m.ValidationRules.RequiredKeywords {
		upper := strings.ToUpper(strings.TrimSpace(kw))
		keywords[upper] = struct{}{}
		// "GROUP BY" and "ORDER BY" count as GROUP and ORDER.
		if fields := strings.Fields(upper); len(fields) > 1 {
			keywords[fields[0]] = struct{}{}
		}
	}
	has := func(kw string) bool {
		_, ok := keywords[kw]
		return ok
	}

	switch {
	case has("SELECT"):
		var b strings.Builder
		b.WriteString("SELECT ")
		if len(m.ValidationRules.ExpectedColumns) > 0 {
			b.WriteString(strings.Join(m.ValidationRules.ExpectedColumns, ", "))
		} else {
			b.WriteString("*")
		}
		b.WriteString("\nFROM ...")
		for _, clause := range []struct{ keyword, line string }{
			{"JOIN", "\nJOIN ... ON ..."},
			{"WHERE", "\nWHERE ..."},
			{"GROUP", "\nGROUP BY ..."},
			{"HAVING", "\nHAVING ..."},
			{"ORDER", "\nORDER BY ..."},
		} {
			if has(clause.keyword) {
				b.WriteString(clause.line)
			}
		}
		b.WriteString(";")
		return b.String()
	case has("INSERT"):
		return "INSERT INTO table_name (column1, column2)\nVALUES (value1, value2);"
	case has("UPDATE"):
		return "UPDATE table_name\nSET column1 = value1\nWHERE condition;"
	case has("DELETE"):
		return "DELETE FROM table_name\nWHERE condition;"
	case has("CREATE"):
		return "CREATE TABLE table_name (\n  id SERIAL PRIMARY KEY,\n  column1 VARCHAR(100),\n  column2 INT\n);"
	default:
		return ""
	}
}
