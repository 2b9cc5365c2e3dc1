// Package docparse turns uploaded document text into recipes: a structural
// section splitter plus the ingestion service that gates, extracts, and
// validates per section.
package docparse

import (
	"regexp"
	"strings"
)

// Section is one recipe-shaped slice of a document. Confidence is diagnostic
// metadata, never a pass/fail gate.
type Section struct {
	Title      string
	Content    string
	Confidence float64
}

var (
	explicitTitleRe     = regexp.MustCompile(`(?i)^(?:recipe:\s*(.+)|(.+?)\s+recipe)$`)
	ingredientsLabelRe  = regexp.MustCompile(`(?im)^\s*(?:ingredients|what you need|shopping list)\s*:?\s*$`)
	instructionsLabelRe = regexp.MustCompile(`(?im)^\s*(?:instructions|directions|method|steps|preparation)\s*:?\s*$`)
	listLineRe          = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+\S`)
)

// foodNouns and cookingParticiples mark short lines as probable recipe
// titles.
var foodNouns = []string{
	"cake", "soup", "stew", "salad", "bread", "pasta", "chicken", "beef",
	"pork", "fish", "cookie", "cookies", "pie", "sauce", "curry", "rice",
	"noodle", "noodles", "casserole", "muffin", "muffins", "pancake",
	"pancakes", "tart", "risotto", "lasagna", "chili", "burger", "tacos",
}

var cookingParticiples = []string{
	"roasted", "baked", "grilled", "fried", "braised", "glazed",
	"smoked", "steamed", "stuffed", "caramelized", "poached", "seared",
}

var sectionCookingVerbs = []string{
	"mix", "stir", "bake", "fry", "boil", "simmer", "chop", "whisk",
	"pour", "heat", "preheat", "combine", "add", "season", "serve",
}

// SplitSections splits document text into recipe sections. Title-like
// paragraphs open a section; following paragraphs accumulate until the next
// title. A section is kept only if it exhibits recipe structure. When no
// titled section qualifies, the whole document is returned as one section if
// it qualifies as a whole.
func SplitSections(text string) []Section {
	paragraphs := splitParagraphs(text)

	var sections []Section
	var current *Section

	flush := func() {
		if current != nil && hasRecipeStructure(current.Content) {
			current.Confidence = structureConfidence(current.Content)
			sections = append(sections, *current)
		}
		current = nil
	}

	for _, para := range paragraphs {
		if title, ok := titleLine(para); ok {
			flush()
			current = &Section{Title: title}
			continue
		}
		if current != nil {
			if current.Content != "" {
				current.Content += "\n\n"
			}
			current.Content += para
		}
	}
	flush()

	if len(sections) == 0 && hasRecipeStructure(text) {
		sections = append(sections, Section{
			Content:    text,
			Confidence: structureConfidence(text),
		})
	}
	return sections
}

func splitParagraphs(text string) []string {
	var out []string
	for _, para := range regexp.MustCompile(`\n\s*\n`).Split(text, -1) {
		if trimmed := strings.TrimSpace(para); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// titleLine reports whether a paragraph looks like a recipe title: a single
// short line naming a dish, or an explicit "X Recipe" / "Recipe: X" form.
func titleLine(para string) (string, bool) {
	if strings.Contains(para, "\n") {
		return "", false
	}
	line := strings.TrimSpace(para)
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 8 {
		return "", false
	}

	if m := explicitTitleRe.FindStringSubmatch(line); m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1]), true
		}
		return strings.TrimSpace(m[2]), true
	}

	lower := strings.ToLower(line)
	for _, noun := range foodNouns {
		if strings.Contains(lower, noun) {
			return line, true
		}
	}
	for _, participle := range cookingParticiples {
		if strings.Contains(lower, participle) {
			return line, true
		}
	}
	return "", false
}

// hasRecipeStructure requires both labels, or a list alongside one label.
func hasRecipeStructure(text string) bool {
	hasIngredients := ingredientsLabelRe.MatchString(text)
	hasInstructions := instructionsLabelRe.MatchString(text)
	if hasIngredients && hasInstructions {
		return true
	}
	return listLineRe.MatchString(text) && (hasIngredients || hasInstructions)
}

// structureConfidence scores a section: ingredients label 0.3, instructions
// label 0.3, list structure 0.2, cooking-verb density up to 0.2, capped at 1.
func structureConfidence(text string) float64 {
	score := 0.0
	if ingredientsLabelRe.MatchString(text) {
		score += 0.3
	}
	if instructionsLabelRe.MatchString(text) {
		score += 0.3
	}
	if listLineRe.MatchString(text) {
		score += 0.2
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) > 0 {
		verbs := 0
		for _, word := range words {
			trimmed := strings.Trim(word, ".,:;!")
			for _, verb := range sectionCookingVerbs {
				if trimmed == verb {
					verbs++
					break
				}
			}
		}
		density := float64(verbs) / float64(len(words))
		score += min(density*4, 0.2)
	}

	return min(score, 1.0)
}
