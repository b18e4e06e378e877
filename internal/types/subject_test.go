package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSubjects(t *testing.T) {
	subjects := []FilterOption{
		{Value: "10", Text: "CS1: Actuarial Statistics"},
		{Value: "11", Text: "CM1: Actuarial Mathematics"},
		{Value: "12", Text: "Research Paper"},
		{Value: "13", Text: "CS2: Risk Modelling"},
		{Value: "14", Text: "CP1: Actuarial Practice"},
	}

	groups := GroupSubjects(subjects)
	require.Len(t, groups, 4)

	assert.Equal(t, "Core Principles (CP)", groups[0].Name)
	assert.Equal(t, "Core Mathematics (CM)", groups[1].Name)
	assert.Equal(t, "Core Statistics (CS)", groups[2].Name)
	assert.Equal(t, OthersCategory, groups[3].Name)

	// Input order is kept within a category
	require.Len(t, groups[2].Subjects, 2)
	assert.Equal(t, "10", groups[2].Subjects[0].Value)
	assert.Equal(t, "13", groups[2].Subjects[1].Value)

	numbered := NumberSubjects(groups)
	require.Len(t, numbered, 5)
	assert.Equal(t, "14", numbered[0].Value)
	assert.Equal(t, "12", numbered[4].Value)
}

func TestGroupSubjects_Empty(t *testing.T) {
	assert.Empty(t, GroupSubjects(nil))
}

func TestSubjectCode(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"CS1: Actuarial Statistics", "CS1"},
		{"CT-1 Financial Mathematics", "CT1"},
		{"SA2", "SA2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubjectCode(tt.text))
		})
	}
}

func TestFindSubject(t *testing.T) {
	subjects := []FilterOption{
		{Value: "101", Text: "CS1: Actuarial Statistics"},
		{Value: "102", Text: "CM1: Actuarial Mathematics"},
	}

	byValue, ok := FindSubject(subjects, "102")
	require.True(t, ok)
	assert.Equal(t, "CM1: Actuarial Mathematics", byValue.Text)

	byCode, ok := FindSubject(subjects, "cs1")
	require.True(t, ok)
	assert.Equal(t, "101", byCode.Value)

	byText, ok := FindSubject(subjects, "cm1: actuarial mathematics")
	require.True(t, ok)
	assert.Equal(t, "102", byText.Value)

	_, ok = FindSubject(subjects, "SP9")
	assert.False(t, ok)

	_, ok = FindSubject(subjects, "  ")
	assert.False(t, ok)
}
