package notification

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leighmacdonald/drgwatch/internal/domain"
	"github.com/stretchr/testify/require"
)

func categoryPtr(category domain.ModCategory) *domain.ModCategory {
	return &category
}

func TestFormatModField(t *testing.T) {
	mods := []domain.ModRef{
		{ModID: 1, Category: categoryPtr(domain.ModCategoryApproved), Name: "More Mutators", URL: "https://mod.io/g/drg/m/more-mutators"},
		{ModID: 2, Category: categoryPtr(domain.ModCategoryApproved)},
		{ModID: 3, Category: categoryPtr(domain.ModCategorySandboxed), Name: "Other", URL: "https://mod.io/g/drg/m/other"},
		{ModID: 4, Category: nil, Name: "Uncategorized", URL: "https://mod.io/g/drg/m/unc"},
	}

	field := formatModField(mods, domain.ModCategoryApproved, "Approved Mods")
	require.NotNil(t, field)
	require.Equal(t, "Approved Mods", field.Name)
	require.True(t, field.Inline)
	require.Equal(t, "[More Mutators](https://mod.io/g/drg/m/more-mutators)\nHidden mod\n", field.Value)
}

func TestFormatModFieldEmptyCategory(t *testing.T) {
	mods := []domain.ModRef{
		{ModID: 1, Category: categoryPtr(domain.ModCategoryApproved), Name: "More Mutators", URL: "https://mod.io/g/drg/m/more-mutators"},
	}

	require.Nil(t, formatModField(mods, domain.ModCategorySandboxed, "Sandboxed Mods"))
	require.Nil(t, formatModField(nil, domain.ModCategoryApproved, "Approved Mods"))
}

func TestFormatModFieldOverflow(t *testing.T) {
	var mods []domain.ModRef

	for i := range 100 {
		mods = append(mods, domain.ModRef{
			ModID:    int64(i),
			Category: categoryPtr(domain.ModCategoryApproved),
			Name:     fmt.Sprintf("Some Longer Mod Name %03d", i),
			URL:      fmt.Sprintf("https://mod.io/g/drg/m/some-longer-mod-name-%03d", i),
		})
	}

	field := formatModField(mods, domain.ModCategoryApproved, "Approved Mods")
	require.NotNil(t, field)
	require.LessOrEqual(t, utf8.RuneCountInString(field.Value), fieldValueBudget)
	require.Regexp(t, `\.\.\.and \d+ more$`, field.Value)

	// Every listed entry plus the summarized remainder accounts for the whole
	// category.
	listed := strings.Count(field.Value, "\n")

	var remainder int

	_, errScan := fmt.Sscanf(field.Value[strings.LastIndex(field.Value, "...and"):], "...and %d more", &remainder)
	require.NoError(t, errScan)
	require.Equal(t, len(mods), listed+remainder)
}

func TestFormatClasses(t *testing.T) {
	require.Equal(t,
		classGlyphs[0]+classGlyphs[3]+glyphEmptySlot+glyphEmptySlot,
		formatClasses("0;3;"))
	require.Equal(t,
		glyphEmptySlot+glyphEmptySlot+glyphEmptySlot+glyphEmptySlot,
		formatClasses(""))
	require.Equal(t,
		glyphUnknown+glyphEmptySlot+glyphEmptySlot+glyphEmptySlot,
		formatClasses("9;"))
	// Never more than four glyphs, even from a malformed token string.
	require.Equal(t,
		classGlyphs[0]+classGlyphs[1]+classGlyphs[2]+classGlyphs[3],
		formatClasses("0;1;2;3;3;3;"))
}

func TestFormatDifficulty(t *testing.T) {
	require.Equal(t, "Hazard 5", formatDifficulty(4))
	require.Equal(t, "Hazard 1", formatDifficulty(0))
}

func TestBuildFields(t *testing.T) {
	snapshot := domain.LobbySnapshot{
		Region:     "EU",
		Difficulty: 3,
		Classes:    "0;3;",
		Mods: []domain.ModRef{
			{ModID: 1981468, Category: categoryPtr(domain.ModCategoryApproved), Name: "More Mutators", URL: "https://mod.io/g/drg/m/more-mutators"},
		},
	}

	fields := buildFields(snapshot)
	require.Len(t, fields, 5)

	require.Equal(t, "Region", fields[0].Name)
	require.Equal(t, "EU", fields[0].Value)
	require.Equal(t, "Difficulty", fields[1].Name)
	require.Equal(t, "Hazard 4", fields[1].Value)
	require.Equal(t, "Classes", fields[2].Name)
	require.Equal(t, classGlyphs[0]+classGlyphs[3]+glyphEmptySlot+glyphEmptySlot, fields[2].Value)
	require.Equal(t, "Status", fields[3].Name)
	require.Equal(t, "In Space Rig", fields[3].Value)
	require.False(t, fields[3].Inline)
	require.Equal(t, "Approved Mods", fields[4].Name)

	snapshot.MissionStart = "2026-08-30 11:22:33"
	fields = buildFields(snapshot)
	require.Equal(t, "In Mission", fields[3].Value)
}
