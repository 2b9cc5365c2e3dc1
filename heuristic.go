package recipebox

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/normalize"
)

// Placeholder lines substituted when video metadata carries no usable
// recipe content. Degraded output is still structurally valid.
const (
	PlaceholderIngredient  = "See video for ingredients"
	PlaceholderInstruction = "Follow along with the video"
)

// recipeKeywords gate whether page metadata looks like recipe content at all.
var recipeKeywords = []string{
	"recipe", "cooking", "ingredients", "how to make", "baking",
	"homemade", "dish", "meal prep", "easy dinner", "cook with me",
}

var (
	ingredientsLabelRe  = regexp.MustCompile(`(?im)^\s*(?:ingredients|what you need|what you'll need|shopping list)\s*:?\s*$`)
	instructionsLabelRe = regexp.MustCompile(`(?im)^\s*(?:instructions|directions|method|steps|preparation)\s*:?\s*$`)
	bulletPrefixRe      = regexp.MustCompile(`^\s*(?:[-*•▢☐]|\d+[.)])\s*`)
	numberedLineRe      = regexp.MustCompile(`^\s*\d+[.)]\s+\S`)
	hashtagRe           = regexp.MustCompile(`#([a-zA-Z][a-zA-Z0-9]*)`)
	quantityLeadRe      = regexp.MustCompile(`^\s*(?:\d+(?:[./]\d+)?|[½⅓⅔¼¾⅕⅛⅜⅝⅞])\s+\S`)
)

// cookingVerbs identify instruction-like sentences in free text.
var cookingVerbs = []string{
	"mix", "stir", "bake", "fry", "boil", "simmer", "chop", "dice",
	"whisk", "fold", "pour", "heat", "preheat", "combine", "add",
	"season", "serve", "grill", "roast", "blend", "knead", "saute",
}

// categoryKeywords maps text keywords to canonical categories.
var categoryKeywords = map[string]string{
	"breakfast":  "breakfast",
	"brunch":     "breakfast",
	"lunch":      "lunch",
	"dinner":     "main-course",
	"dessert":    "desserts",
	"cake":       "desserts",
	"cookie":     "desserts",
	"snack":      "snacks",
	"appetizer":  "appetizers",
	"salad":      "salads",
	"soup":       "soups",
	"drink":      "beverages",
	"cocktail":   "beverages",
	"smoothie":   "beverages",
	"bread":      "baking",
	"pasta":      "main-course",
	"vegan":      "vegan",
	"vegetarian": "vegetarian",
}

// descriptorTags is a fixed vocabulary scanned for tag extraction.
var descriptorTags = []string{
	"quick", "easy", "healthy", "spicy", "creamy", "crispy",
	"gluten-free", "low-carb", "keto", "vegan", "vegetarian",
	"one-pot", "5-ingredient", "comfort food",
}

// IsRecipeLike reports whether the combined title and description contain
// any recipe keyword.
func IsRecipeLike(title, description string) bool {
	combined := strings.ToLower(title + " " + description)
	for _, kw := range recipeKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// RecipeFromPageMeta runs the shared heuristic over page metadata. The second
// return is false when the content is not recipe-like; the caller decides
// whether that means a placeholder or a failure.
func RecipeFromPageMeta(meta PageMeta) (models.NormalizedContent, bool) {
	if !IsRecipeLike(meta.Title, meta.Description) {
		return models.NormalizedContent{}, false
	}

	content := models.NormalizedContent{
		Title:        meta.Title,
		Description:  meta.Description,
		Ingredients:  extractIngredientLines(meta.Description),
		Instructions: extractInstructionLines(meta.Description),
	}
	content.Metadata.Author = meta.Author
	content.Metadata.PublishedDate = meta.PublishedDate
	content.Metadata.Categories = extractCategories(meta.Title + " " + meta.Description)
	content.Metadata.Tags = extractTags(meta.Title + " " + meta.Description)
	if minutes, ok := normalize.ParseMinutes(meta.Duration); ok {
		content.Metadata.CookingTime = float64(minutes)
	}

	if len(content.Ingredients) == 0 {
		content.Ingredients = []string{PlaceholderIngredient}
	}
	if len(content.Instructions) == 0 {
		content.Instructions = []string{PlaceholderInstruction}
	}
	return content, true
}

// extractIngredientLines finds a labeled ingredients section and returns its
// cleaned lines. Without a label it falls back to quantity-led lines.
func extractIngredientLines(text string) []string {
	if section := labeledSection(text, ingredientsLabelRe, instructionsLabelRe); section != "" {
		return cleanListLines(section)
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if quantityLeadRe.MatchString(line) {
			if cleaned := cleanLine(line); cleaned != "" {
				out = append(out, cleaned)
			}
		}
	}
	return out
}

// extractInstructionLines finds a labeled instructions section, falling back
// to numbered lines, then to sentences containing cooking verbs.
func extractInstructionLines(text string) []string {
	if section := labeledSection(text, instructionsLabelRe, ingredientsLabelRe); section != "" {
		return cleanListLines(section)
	}

	var numbered []string
	for _, line := range strings.Split(text, "\n") {
		if numberedLineRe.MatchString(line) {
			if cleaned := cleanLine(line); cleaned != "" {
				numbered = append(numbered, cleaned)
			}
		}
	}
	if len(numbered) > 0 {
		return numbered
	}

	var steps []string
	for _, sentence := range strings.Split(text, ".") {
		lower := strings.ToLower(sentence)
		for _, verb := range cookingVerbs {
			if strings.Contains(lower, verb) {
				if cleaned := strings.TrimSpace(sentence); cleaned != "" {
					steps = append(steps, cleaned)
				}
				break
			}
		}
	}
	return steps
}

// labeledSection returns the text between a section label and the next blank
// line or competing label, or "" when the label is absent.
func labeledSection(text string, label, stop *regexp.Regexp) string {
	loc := label.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]

	if stopLoc := stop.FindStringIndex(rest); stopLoc != nil {
		rest = rest[:stopLoc[0]]
	}
	if blank := strings.Index(rest, "\n\n"); blank >= 0 {
		rest = rest[:blank]
	}
	return rest
}

// cleanListLines splits a section into lines, strips bullets and numbers,
// and keeps lines of plausible length.
func cleanListLines(section string) []string {
	var out []string
	for _, line := range strings.Split(section, "\n") {
		if cleaned := cleanLine(line); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func cleanLine(line string) string {
	cleaned := strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, ""))
	if len(cleaned) < 1 || len(cleaned) > 200 {
		return ""
	}
	return cleaned
}

// extractCategories maps keyword hits in the text to canonical categories.
func extractCategories(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var out []string
	for keyword, category := range categoryKeywords {
		if strings.Contains(lower, keyword) && !seen[category] {
			seen[category] = true
			out = append(out, category)
		}
	}
	return out
}

// extractTags combines hashtags with hits from the descriptor vocabulary.
func extractTags(text string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, match := range hashtagRe.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(match[1])
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}

	lower := strings.ToLower(text)
	for _, tag := range descriptorTags {
		if strings.Contains(lower, tag) && !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// extractHeuristicRecipe is the structured-data adapter's last resort: scrape
// title from the page and ingredient-hinted list items from the DOM.
func extractHeuristicRecipe(doc *html.Node) (models.NormalizedContent, bool) {
	meta := extractPageMeta(doc)

	var ingredients, instructions []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			hint := strings.ToLower(attrValue(n, "class") + " " + attrValue(n, "id"))
			text := nodeText(n)
			switch {
			case strings.Contains(hint, "ingredient"):
				if cleaned := cleanLine(text); cleaned != "" {
					ingredients = append(ingredients, cleaned)
				}
			case strings.Contains(hint, "instruction") || strings.Contains(hint, "direction") || strings.Contains(hint, "step"):
				if text = strings.TrimSpace(text); text != "" {
					instructions = append(instructions, text)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	if meta.Title == "" || len(ingredients) == 0 || len(instructions) == 0 {
		return models.NormalizedContent{}, false
	}

	content := models.NormalizedContent{
		Title:        meta.Title,
		Description:  meta.Description,
		Ingredients:  ingredients,
		Instructions: instructions,
	}
	content.Metadata.Author = meta.Author
	content.Metadata.PublishedDate = meta.PublishedDate
	return content, true
}
