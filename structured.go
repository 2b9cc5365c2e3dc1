package recipebox

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/zombar/recipebox/models"
	"github.com/zombar/recipebox/normalize"
)

// StructuredDataAdapter is the universal fallback. It handles any URL and
// extracts recipes from JSON-LD structured data, with a heuristic HTML pass
// when no usable JSON-LD is present.
type StructuredDataAdapter struct{}

func NewStructuredDataAdapter() *StructuredDataAdapter {
	return &StructuredDataAdapter{}
}

func (a *StructuredDataAdapter) CanHandle(rawURL string) bool {
	return true
}

func (a *StructuredDataAdapter) SupportedDomains() []string {
	return []string{"*"}
}

func (a *StructuredDataAdapter) Extract(ctx context.Context, pageURL string, body []byte) *models.IngestionResult {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return models.Fail(models.ErrorParsing, "failed to parse HTML")
	}

	if content, ok := extractJSONLDRecipe(doc); ok {
		return buildResult(content, pageURL, models.SourceTypeWeb, 1.0, nil)
	}

	content, ok := extractHeuristicRecipe(doc)
	if !ok {
		return models.Fail(models.ErrorParsing, "no structured recipe data found")
	}
	return buildResult(content, pageURL, models.SourceTypeWeb, 0.6,
		[]string{"no structured data found, extracted heuristically"})
}

// extractJSONLDRecipe walks every <script type="application/ld+json"> block
// and returns the first schema.org Recipe it can decode.
func extractJSONLDRecipe(doc *html.Node) (models.NormalizedContent, bool) {
	var content models.NormalizedContent
	found := false

	var f func(*html.Node)
	f = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" &&
			strings.EqualFold(attrValue(n, "type"), "application/ld+json") &&
			n.FirstChild != nil {
			if c, ok := parseJSONLDBlock(n.FirstChild.Data); ok {
				content = c
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	return content, found
}

// parseJSONLDBlock decodes one JSON-LD payload, looking for a Recipe node at
// the top level, inside a top-level array, or inside an @graph array.
func parseJSONLDBlock(raw string) (models.NormalizedContent, bool) {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return models.NormalizedContent{}, false
	}

	switch v := data.(type) {
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				if c, ok := recipeFromJSONLD(item); ok {
					return c, true
				}
			}
		}
		return recipeFromJSONLD(v)
	case []any:
		for _, item := range v {
			if c, ok := recipeFromJSONLD(item); ok {
				return c, true
			}
		}
	}
	return models.NormalizedContent{}, false
}

// recipeFromJSONLD maps a schema.org Recipe object to normalized content.
func recipeFromJSONLD(data any) (models.NormalizedContent, bool) {
	obj, ok := data.(map[string]any)
	if !ok || !isRecipeType(obj["@type"]) {
		return models.NormalizedContent{}, false
	}

	var content models.NormalizedContent
	content.Title = jsonString(obj["name"])
	if content.Title == "" {
		content.Title = jsonString(obj["headline"])
	}
	content.Title = html.UnescapeString(content.Title)
	content.Description = html.UnescapeString(jsonString(obj["description"]))

	if ingredients, ok := obj["recipeIngredient"].([]any); ok {
		for _, ing := range ingredients {
			if s := jsonString(ing); s != "" {
				content.Ingredients = append(content.Ingredients, html.UnescapeString(s))
			}
		}
	}

	content.Instructions = instructionsFromJSONLD(obj["recipeInstructions"])

	if minutes, ok := normalize.ParseMinutes(jsonString(obj["cookTime"])); ok {
		content.Metadata.CookingTime = float64(minutes)
	} else if minutes, ok := normalize.ParseMinutes(jsonString(obj["totalTime"])); ok {
		content.Metadata.CookingTime = float64(minutes)
	}
	if minutes, ok := normalize.ParseMinutes(jsonString(obj["prepTime"])); ok {
		content.Metadata.PrepTime = float64(minutes)
	}
	if servings, ok := yieldServings(obj["recipeYield"]); ok {
		content.Metadata.Servings = servings
	}

	content.Metadata.Author = authorName(obj["author"])
	content.Metadata.PublishedDate = jsonString(obj["datePublished"])
	content.Metadata.Categories = stringList(obj["recipeCategory"])
	content.Metadata.Tags = keywordList(obj["keywords"])

	if content.Title == "" || len(content.Ingredients) == 0 {
		return models.NormalizedContent{}, false
	}
	return content, true
}

// isRecipeType handles @type being a string or an array of strings.
func isRecipeType(typeVal any) bool {
	switch v := typeVal.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), "recipe")
	case []any:
		for _, t := range v {
			if s, ok := t.(string); ok && strings.Contains(strings.ToLower(s), "recipe") {
				return true
			}
		}
	}
	return false
}

// instructionsFromJSONLD flattens recipeInstructions: plain strings,
// HowToStep objects, and HowToSection groups with itemListElement children.
func instructionsFromJSONLD(instructions any) []string {
	var steps []string

	var process func(step any)
	process = func(step any) {
		switch s := step.(type) {
		case string:
			if t := strings.TrimSpace(html.UnescapeString(s)); t != "" {
				steps = append(steps, t)
			}
		case map[string]any:
			if typeVal, _ := s["@type"].(string); strings.Contains(typeVal, "Section") {
				if items, ok := s["itemListElement"].([]any); ok {
					for _, item := range items {
						process(item)
					}
				}
				return
			}
			if text := jsonString(s["text"]); text != "" {
				steps = append(steps, strings.TrimSpace(html.UnescapeString(text)))
			} else if name := jsonString(s["name"]); name != "" {
				steps = append(steps, strings.TrimSpace(html.UnescapeString(name)))
			}
		}
	}

	switch v := instructions.(type) {
	case string:
		for _, line := range strings.Split(html.UnescapeString(v), "\n") {
			if t := strings.TrimSpace(line); t != "" {
				steps = append(steps, t)
			}
		}
	case []any:
		for _, step := range v {
			process(step)
		}
	case map[string]any:
		process(v)
	}

	return steps
}

// yieldServings pulls a serving count out of recipeYield, which may be a
// number, a numeric string, or a phrase like "24 cookies".
func yieldServings(yield any) (float64, bool) {
	switch v := yield.(type) {
	case float64:
		if v > 0 {
			return v, true
		}
	case string:
		return servingsFromString(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if n, ok := servingsFromString(s); ok {
					return n, true
				}
			} else if n, ok := item.(float64); ok && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

func servingsFromString(s string) (float64, bool) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// authorName handles author being a string, a Person object, or a list.
func authorName(author any) string {
	switch v := author.(type) {
	case string:
		return v
	case map[string]any:
		return jsonString(v["name"])
	case []any:
		for _, item := range v {
			if name := authorName(item); name != "" {
				return name
			}
		}
	}
	return ""
}

func stringList(val any) []string {
	switch v := val.(type) {
	case string:
		if t := strings.TrimSpace(v); t != "" {
			return []string{t}
		}
	case []any:
		var out []string
		for _, item := range v {
			if s := jsonString(item); s != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// keywordList splits comma-separated keyword strings into tags.
func keywordList(val any) []string {
	var out []string
	for _, raw := range stringList(val) {
		for _, part := range strings.Split(raw, ",") {
			if t := strings.TrimSpace(part); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func jsonString(val any) string {
	s, _ := val.(string)
	return s
}
