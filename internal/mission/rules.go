package mission

import (
	"errors"
	"fmt"
	"strings"
)

// Rules is the flat bag of optional predicates a mission is scored against.
// MinRows and ExpectedRowCountAfter are pointers so that a declared zero is a
// real rule. MustContainValues and MustNotExist are part of the content format
// but are not scored.
type Rules struct {
	RequiredKeywords      []string `json:"requiredKeywords"`
	ForbiddenKeywords     []string `json:"forbiddenKeywords,omitempty"`
	ExpectedColumns       []string `json:"expectedColumns,omitempty"`
	MinRows               *int     `json:"minRows,omitempty"`
	ExpectedRowCountAfter *int     `json:"expectedRowCountAfter,omitempty"`
	MustContainValues     []string `json:"mustContainValues,omitempty"`
	MustNotExist          []string `json:"mustNotExist,omitempty"`
}

type Verdict struct {
	Passed   bool
	Feedback string
}

// Evaluate scores an executed query. The first failing predicate wins:
// required keywords, forbidden keywords, then exactly one of expected columns,
// minimum rows, exact row count or the empty-result default.
func (r Rules) Evaluate(sql string, columns []string, rowCount int64) Verdict {
	upper := strings.ToUpper(sql)

	if missing := filterKeywords(r.RequiredKeywords, func(kw string) bool { return !strings.Contains(upper, kw) }); len(missing) > 0 {
		return Verdict{Feedback: fmt.Sprintf("Almost there! Your query is missing: %s. Check the hint!", strings.Join(missing, ", "))}
	}
	if used := filterKeywords(r.ForbiddenKeywords, func(kw string) bool { return strings.Contains(upper, kw) }); len(used) > 0 {
		return Verdict{Feedback: fmt.Sprintf("Your query uses forbidden keyword(s): %s. Try a different approach!", strings.Join(used, ", "))}
	}

	switch {
	case len(r.ExpectedColumns) > 0 && len(columns) > 0:
		if missing := missingColumns(r.ExpectedColumns, columns); len(missing) > 0 {
			return Verdict{Feedback: fmt.Sprintf("Your result is missing expected columns: %s. Check your SELECT clause!", strings.Join(missing, ", "))}
		}
	case r.MinRows != nil:
		if rowCount < int64(*r.MinRows) {
			return Verdict{Feedback: fmt.Sprintf("Expected at least %d rows, but got %d. Review your WHERE conditions!", *r.MinRows, rowCount)}
		}
	case r.ExpectedRowCountAfter != nil:
		if rowCount != int64(*r.ExpectedRowCountAfter) {
			return Verdict{Feedback: fmt.Sprintf("Expected exactly %d rows after operation, but got %d. Check your query!", *r.ExpectedRowCountAfter, rowCount)}
		}
	case rowCount == 0:
		return Verdict{Feedback: "Your query ran but returned no rows. Try adjusting your conditions or check the table data."}
	}

	return Verdict{Passed: true}
}

func (r Rules) Validate() error {
	if r.MinRows != nil && *r.MinRows < 0 {
		return errors.New("minRows must not be negative")
	}
	if r.ExpectedRowCountAfter != nil && *r.ExpectedRowCountAfter < 0 {
		return errors.New("expectedRowCountAfter must not be negative")
	}
	for _, required := range r.RequiredKeywords {
		for _, forbidden := range r.ForbiddenKeywords {
			if strings.EqualFold(strings.TrimSpace(required), strings.TrimSpace(forbidden)) {
				return fmt.Errorf("keyword %q is both required and forbidden", required)
			}
		}
	}
	return nil
}

// filterKeywords returns the original spelling of every keyword whose
// uppercased form satisfies keep.
func filterKeywords(keywords []string, keep func(upper string) bool) []string {
	var matched []string
	for _, kw := range keywords {
		if keep(strings.ToUpper(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func missingColumns(expected, actual []string) []string {
	present := make(map[string]struct{}, len(actual))
	for _, column := range actual {
		present[strings.ToLower(column)] = struct{}{}
	}

	var missing []string
	for _, column := range expected {
		if _, ok := present[strings.ToLower(column)]; !ok {
			missing = append(missing, strings.ToLower(column))
		}
	}
	return missing
}
