package service

import (
	"strings"

	"github.com/spec-kit/message-router/internal/domain"
)

// MatchKeywords returns the subset of keywords whose token appears as a
// case-insensitive substring of the message text. No tokenization or
// stemming; pure containment on the lower-cased text. An empty result is a
// normal outcome. The result preserves the input keyword order, so a stable
// keyword ordering yields a stable match list.
func MatchKeywords(text string, keywords []domain.Keyword) []domain.Keyword {
	lower := strings.ToLower(text)

	var matched []domain.Keyword
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if !kw.IsActive {
			continue
		}
		token := strings.ToLower(kw.Keyword)
		if token == "" {
			continue
		}
		if _, dup := seen[kw.ID]; dup {
			continue
		}
		if strings.Contains(lower, token) {
			matched = append(matched, kw)
			seen[kw.ID] = struct{}{}
		}
	}
	return matched
}

// MatchedDepartments derives the distinct department ids owning at least
// one matched keyword, in first-seen order.
func MatchedDepartments(matched []domain.Keyword) []string {
	var ids []string
	seen := make(map[string]struct{}, len(matched))
	for _, kw := range matched {
		if _, dup := seen[kw.DepartmentID]; dup {
			continue
		}
		seen[kw.DepartmentID] = struct{}{}
		ids = append(ids, kw.DepartmentID)
	}
	return ids
}
