package types

import "strings"

// FilterOption is one entry of a listing page's filter dropdown.
type FilterOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// SubjectCategory groups subjects sharing a code prefix.
type SubjectCategory struct {
	Name     string         `json:"name"`
	Subjects []FilterOption `json:"subjects"`
}

var subjectCategories = []struct {
	prefix string
	name   string
}{
	{"CP", "Core Principles (CP)"},
	{"CM", "Core Mathematics (CM)"},
	{"CS", "Core Statistics (CS)"},
	{"CB", "Core Business (CB)"},
	{"SP", "Specialist Principles (SP)"},
	{"SA", "Specialist Advanced (SA)"},
	{"CT", "Core Technical (CT)"},
	{"ST", "Specialist Technical (ST)"},
}

// OthersCategory collects subjects that match no known prefix.
const OthersCategory = "Others"

// GroupSubjects buckets subjects by code prefix, keeping the fixed category
// order and the input order within each category. Empty categories are dropped.
func GroupSubjects(subjects []FilterOption) []SubjectCategory {
	buckets := make([][]FilterOption, len(subjectCategories)+1)
	for _, s := range subjects {
		idx := len(subjectCategories)
		for i, c := range subjectCategories {
			if strings.HasPrefix(s.Text, c.prefix) {
				idx = i
				break
			}
		}
		buckets[idx] = append(buckets[idx], s)
	}

	var out []SubjectCategory
	for i, b := range buckets {
		if len(b) == 0 {
			continue
		}
		name := OthersCategory
		if i < len(subjectCategories) {
			name = subjectCategories[i].name
		}
		out = append(out, SubjectCategory{Name: name, Subjects: b})
	}
	return out
}

// NumberSubjects flattens grouped subjects in display order. Index i of the
// result is shown to users as choice i+1.
func NumberSubjects(categories []SubjectCategory) []FilterOption {
	var out []FilterOption
	for _, c := range categories {
		out = append(out, c.Subjects...)
	}
	return out
}

// SubjectCode derives the short code used in output file names,
// e.g. "CS1: Actuarial Statistics" -> "CS1".
func SubjectCode(subjectText string) string {
	fields := strings.Fields(subjectText)
	if len(fields) == 0 {
		return ""
	}
	return strings.NewReplacer("-", "", ":", "").Replace(fields[0])
}

// FindSubject looks up a subject by value, exact text or code (case-insensitive).
func FindSubject(subjects []FilterOption, query string) (FilterOption, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return FilterOption{}, false
	}
	for _, s := range subjects {
		if s.Value == q || strings.EqualFold(s.Text, q) {
			return s, true
		}
	}
	for _, s := range subjects {
		if strings.EqualFold(SubjectCode(s.Text), q) {
			return s, true
		}
	}
	return FilterOption{}, false
}
