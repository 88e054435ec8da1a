package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal
// whitespace runs. It is used for member display names and activity names.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeFreeText collapses whitespace the same way but maps an empty
// result to nil, for optional fields like description and location where
// blank input means "not provided".
func NormalizeFreeText(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.Join(strings.Fields(*s), " ")
	if out == "" {
		return nil
	}
	return &out
}
