package recipebox

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/zombar/recipebox/models"
)

// AllRecipesAdapter extracts from allrecipes.com pages. Structured data is
// tried first; when absent, an ordered list of site markup selectors is
// walked and the first selector yielding at least one item wins. Later
// selectors are never tried once one succeeds.
type AllRecipesAdapter struct {
	ingredientSelectors  []string
	instructionSelectors []string
}

func NewAllRecipesAdapter() *AllRecipesAdapter {
	return &AllRecipesAdapter{
		ingredientSelectors: []string{
			"li.mm-recipes-structured-ingredients__list-item",
			"span.ingredients-item-name",
			"li.checkList__line span.recipe-ingred_txt",
			"ul.ingredient-list li",
		},
		instructionSelectors: []string{
			"div.mm-recipes-steps li p",
			"div.instructions-section li p",
			"ol.recipe-directions__list li span",
			"ol.directions li",
		},
	}
}

func (a *AllRecipesAdapter) CanHandle(rawURL string) bool {
	return strings.Contains(rawURL, "allrecipes.com")
}

func (a *AllRecipesAdapter) SupportedDomains() []string {
	return []string{"allrecipes.com"}
}

func (a *AllRecipesAdapter) Extract(ctx context.Context, pageURL string, body []byte) *models.IngestionResult {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return models.Fail(models.ErrorParsing, "failed to parse HTML")
	}

	if content, ok := extractJSONLDRecipe(node); ok {
		return buildResult(content, pageURL, models.SourceTypeWeb, 1.0, nil)
	}

	doc := goquery.NewDocumentFromNode(node)

	content := models.NormalizedContent{
		Title:        strings.TrimSpace(doc.Find("h1").First().Text()),
		Ingredients:  firstSelectorHit(doc, a.ingredientSelectors),
		Instructions: firstSelectorHit(doc, a.instructionSelectors),
	}
	if content.Title == "" {
		content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		content.Description = desc
	}

	if len(content.Ingredients) == 0 && len(content.Instructions) == 0 {
		return models.Fail(models.ErrorParsing, "no recipe markup matched known allrecipes.com patterns")
	}

	return buildResult(content, pageURL, models.SourceTypeWeb, 0.8,
		[]string{"no structured data found, used site markup patterns"})
}

// firstSelectorHit walks selectors in order and returns the text items of
// the first selector matching at least one element.
func firstSelectorHit(doc *goquery.Document, selectors []string) []string {
	for _, selector := range selectors {
		var items []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			return items
		}
	}
	return nil
}
