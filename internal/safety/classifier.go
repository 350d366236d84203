// Package safety decides whether a submitted SQL string may be executed at all,
// independent of whether it solves a mission.
package safety

import (
	"regexp"
	"strconv"
	"strings"
)

// Verdict is the outcome of Classify. Reason is empty when Safe is true.
type Verdict struct {
	Safe   bool
	Reason string
}

var (
	// SET_CONFIG could switch the sandbox role back to the connecting user.
	alwaysBlocked = []string{"GRANT", "REVOKE", "EXEC", "EXECUTE", "SET_CONFIG"}

	// Only advanced missions may use these.
	restricted = []string{"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE", "INSERT", "UPDATE"}

	basicLeaders    = []string{"SELECT", "WITH"}
	advancedLeaders = []string{"INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP"}

	keywordPatterns = compileKeywordPatterns(alwaysBlocked, restricted, []string{"WHERE"})

	missionLevelPattern = regexp.MustCompile(`^level(\d+)-`)
)

const advancedLevel = 2

// Classify checks sql against the execution policy for missionID. An empty
// missionID is treated as a basic (non-advanced) context.
//
// Keyword detection is whole-word on the uppercased text, so EXECUTIVE_TABLE
// does not match EXECUTE. It does not understand comments or string literals:
// a WHERE inside a comment satisfies the DELETE/UPDATE rule.
func Classify(sql, missionID string) Verdict {
	normalized := strings.ToUpper(strings.TrimSpace(sql))
	advanced := IsAdvanced(missionID)

	for _, keyword := range alwaysBlocked {
		if containsKeyword(normalized, keyword) {
			return Verdict{Reason: "Query contains forbidden keyword: " + keyword}
		}
	}

	if !advanced {
		for _, keyword := range restricted {
			if containsKeyword(normalized, keyword) {
				return Verdict{Reason: keyword + " operations are only available in advanced missions."}
			}
		}
	}

	for _, keyword := range []string{"DELETE", "UPDATE"} {
		if containsKeyword(normalized, keyword) && !containsKeyword(normalized, "WHERE") {
			return Verdict{Reason: keyword + " statements must include a WHERE clause."}
		}
	}

	if !hasLeader(normalized, basicLeaders) {
		if !advanced {
			return Verdict{Reason: "Only SELECT (or WITH) statements are allowed."}
		}
		if !hasLeader(normalized, advancedLeaders) {
			return Verdict{Reason: "Statement must start with SELECT, WITH, INSERT, UPDATE, DELETE, CREATE, ALTER or DROP."}
		}
	}

	return Verdict{Safe: true}
}

// IsAdvanced reports whether missionID names a mission of level 2 or above.
func IsAdvanced(missionID string) bool {
	match := missionLevelPattern.FindStringSubmatch(strings.TrimSpace(missionID))
	if match == nil {
		return false
	}
	level, err := strconv.Atoi(match[1])
	if err != nil {
		return false
	}
	return level >= advancedLevel
}

func containsKeyword(normalized, keyword string) bool {
	pattern, ok := keywordPatterns[keyword]
	if !ok {
		pattern = regexp.MustCompile(keywordExpr(keyword))
	}
	return pattern.MatchString(normalized)
}

func hasLeader(normalized string, leaders []string) bool {
	for _, leader := range leaders {
		if strings.HasPrefix(normalized, leader) {
			return true
		}
	}
	return false
}

func compileKeywordPatterns(groups ...[]string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, group := range groups {
		for _, keyword := range group {
			patterns[keyword] = regexp.MustCompile(keywordExpr(keyword))
		}
	}
	return patterns
}

func keywordExpr(keyword string) string {
	return `(^|[^A-Z0-9_])` + regexp.QuoteMeta(keyword) + `([^A-Z0-9_]|$)`
}
