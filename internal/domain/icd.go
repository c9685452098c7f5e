package domain

import (
	"sort"
	"strings"
)

// ICDKeySeparator joins the sorted codes of a selection into its set key.
const ICDKeySeparator = "||"

// ICDSelection is a canonical set of ICD diagnosis codes: uppercase,
// trimmed, duplicate-free and sorted lexicographically.
type ICDSelection struct {
	Codes []string
}

// ParseICDSelection merges the multi-select values and the free-text input
// into a canonical selection. Free text is split on commas and semicolons.
// Token order and duplicates in the input do not affect the result.
func ParseICDSelection(multi []string, freeText string) ICDSelection {
	seen := make(map[string]struct{})
	var codes []string

	add := func(raw string) {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	for _, v := range multi {
		add(v)
	}
	for _, v := range strings.Split(strings.ReplaceAll(freeText, ";", ","), ",") {
		add(v)
	}

	sort.Strings(codes)
	return ICDSelection{Codes: codes}
}

// Key returns the canonical set key: the sorted codes joined with "||".
func (s ICDSelection) Key() string {
	return strings.Join(s.Codes, ICDKeySeparator)
}

// IsEmpty reports whether the selection contains no codes.
func (s ICDSelection) IsEmpty() bool {
	return len(s.Codes) == 0
}
