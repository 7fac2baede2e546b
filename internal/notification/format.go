// Package notification reconciles eligible lobby snapshots against the set
// of discord messages currently posted for them.
package notification

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/leighmacdonald/drgwatch/internal/domain"
)

const (
	// fieldValueBudget is the character budget of a single embed field value.
	// Discord rejects values over 1024, we stop a little earlier.
	fieldValueBudget = 1000
	// overflowReserve keeps room for the "...and N more" marker so a
	// truncated value still fits the budget.
	overflowReserve = 20

	hiddenModLabel = "Hidden mod"

	lobbySlots = 4
)

// Class glyphs are custom emoji registered in the target guild, indexed by
// the class ordinal used in the DRG_CLASSES token string.
var classGlyphs = [lobbySlots]string{ //nolint:gochecknoglobals
	"<:driller:964680901621612584>",
	"<:engineer:964680922920255548>",
	"<:gunner:964680948530704404>",
	"<:scout:964680965521813524>",
}

const (
	glyphUnknown   = "<unknown>"
	glyphEmptySlot = "<:empty:964681045347823616>"
)

var classTokenPattern = regexp.MustCompile(`\d+;`) //nolint:gochecknoglobals

// formatModField renders the mods of one category as a single embed field.
// Each resolved mod becomes a markdown link, unresolved or hidden mods render
// as a fixed label. When the budget would overflow the remaining entries are
// summarized instead. Returns nil when the category is empty since the
// webhook api rejects blank field values.
func formatModField(mods []domain.ModRef, category domain.ModCategory, name string) *discordgo.MessageEmbedField {
	var filtered []domain.ModRef

	for _, mod := range mods {
		if mod.Category != nil && *mod.Category == category {
			filtered = append(filtered, mod)
		}
	}

	var value strings.Builder

	for i, mod := range filtered {
		entry := hiddenModLabel
		if mod.Name != "" && mod.URL != "" {
			entry = fmt.Sprintf("[%s](%s)", mod.Name, mod.URL)
		}

		used := utf8.RuneCountInString(value.String())
		if used+utf8.RuneCountInString(entry)+1 > fieldValueBudget-overflowReserve {
			value.WriteString(fmt.Sprintf("...and %d more", len(filtered)-i))

			break
		}

		value.WriteString(entry)
		value.WriteString("\n")
	}

	if value.Len() == 0 {
		return nil
	}

	return &discordgo.MessageEmbedField{
		Name:   name,
		Value:  value.String(),
		Inline: true,
	}
}

// formatClasses maps the raw class token string onto exactly four glyphs,
// padding open slots with the empty glyph.
func formatClasses(classes string) string {
	var glyphs []string

	for _, token := range classTokenPattern.FindAllString(classes, -1) {
		if len(glyphs) == lobbySlots {
			break
		}

		switch token {
		case "0;":
			glyphs = append(glyphs, classGlyphs[0])
		case "1;":
			glyphs = append(glyphs, classGlyphs[1])
		case "2;":
			glyphs = append(glyphs, classGlyphs[2])
		case "3;":
			glyphs = append(glyphs, classGlyphs[3])
		default:
			glyphs = append(glyphs, glyphUnknown)
		}
	}

	for len(glyphs) < lobbySlots {
		glyphs = append(glyphs, glyphEmptySlot)
	}

	return strings.Join(glyphs, "")
}

// formatDifficulty renders the 0-based difficulty tier as the 1-indexed
// hazard level players see in game.
func formatDifficulty(tier int) string {
	return fmt.Sprintf("Hazard %d", tier+1)
}

func formatStatus(snapshot domain.LobbySnapshot) string {
	if snapshot.InMission() {
		return "In Mission"
	}

	return "In Space Rig"
}

// buildFields assembles the ordered field list of a lobby notification.
func buildFields(snapshot domain.LobbySnapshot) []*discordgo.MessageEmbedField {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Region", Value: snapshot.Region, Inline: true},
		{Name: "Difficulty", Value: formatDifficulty(snapshot.Difficulty), Inline: true},
		{Name: "Classes", Value: formatClasses(snapshot.Classes), Inline: true},
		{Name: "Status", Value: formatStatus(snapshot), Inline: false},
	}

	if field := formatModField(snapshot.Mods, domain.ModCategoryVerified, "Verified Mods"); field != nil {
		fields = append(fields, field)
	}

	if field := formatModField(snapshot.Mods, domain.ModCategoryApproved, "Approved Mods"); field != nil {
		fields = append(fields, field)
	}

	if field := formatModField(snapshot.Mods, domain.ModCategorySandboxed, "Sandboxed Mods"); field != nil {
		fields = append(fields, field)
	}

	return fields
}
