package recipebox

import (
	"context"
	"testing"

	"github.com/zombar/recipebox/models"
)

func TestStructuredAdapterGraphAndSections(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">not even json</script>
<script type="application/ld+json">{"@type":"WebSite","name":"Food Blog"}</script>
<script type="application/ld+json">
{"@graph":[
  {"@type":"Organization","name":"Food Blog Inc"},
  {"@type":["Recipe","NewsArticle"],
   "name":"Beef Stew",
   "author":{"@type":"Person","name":"Jane Doe"},
   "recipeIngredient":["1 lb beef","2 cups broth"],
   "recipeInstructions":[
     {"@type":"HowToSection","name":"Prep","itemListElement":[
       {"@type":"HowToStep","text":"Cube the beef"}]},
     {"@type":"HowToStep","text":"Simmer for 2 hours"}],
   "recipeYield":["4 servings"],
   "keywords":"hearty, winter"}
]}
</script>
</head><body></body></html>`

	adapter := NewStructuredDataAdapter()
	result := adapter.Extract(context.Background(), "https://blog.example.com/stew", []byte(page))
	if !result.Success {
		t.Fatalf("extraction failed: %v", result.Error)
	}

	recipe := result.Recipe
	if recipe.Title != "Beef Stew" {
		t.Errorf("title = %q", recipe.Title)
	}
	if recipe.Author != "Jane Doe" {
		t.Errorf("author = %q", recipe.Author)
	}
	if len(recipe.Ingredients) != 2 {
		t.Errorf("ingredients = %+v", recipe.Ingredients)
	}
	if len(recipe.Instructions) != 2 {
		t.Fatalf("instructions = %+v, want section flattened to 2 steps", recipe.Instructions)
	}
	if recipe.Instructions[0].Description != "Cube the beef" {
		t.Errorf("step 1 = %q", recipe.Instructions[0].Description)
	}
	if recipe.Servings == nil || *recipe.Servings != 4 {
		t.Errorf("servings = %v, want 4", recipe.Servings)
	}
	if len(recipe.Tags) != 2 {
		t.Errorf("tags = %v, want keywords split", recipe.Tags)
	}
}

func TestStructuredAdapterHeuristicFallback(t *testing.T) {
	page := `<html><head><title>Grandma's Soup</title></head><body>
<ul>
  <li class="ingredient-item">2 cups stock</li>
  <li class="ingredient-item">1 carrot</li>
</ul>
<ol>
  <li class="direction-step">Chop the carrot</li>
  <li class="direction-step">Boil in stock</li>
</ol>
</body></html>`

	adapter := NewStructuredDataAdapter()
	result := adapter.Extract(context.Background(), "https://example.com/soup", []byte(page))
	if !result.Success {
		t.Fatalf("extraction failed: %v", result.Error)
	}
	if result.Recipe.Title != "Grandma's Soup" {
		t.Errorf("title = %q", result.Recipe.Title)
	}
	if len(result.Recipe.Ingredients) != 2 || len(result.Recipe.Instructions) != 2 {
		t.Errorf("got %d ingredients, %d instructions", len(result.Recipe.Ingredients), len(result.Recipe.Instructions))
	}
	if result.Confidence >= 1.0 {
		t.Errorf("confidence = %v, want below structured-data confidence", result.Confidence)
	}
	if len(result.Warnings) == 0 {
		t.Error("heuristic extraction should carry a warning")
	}
}

func TestStructuredAdapterNoRecipe(t *testing.T) {
	page := `<html><head><title>About us</title></head><body><p>We sell shoes.</p></body></html>`

	adapter := NewStructuredDataAdapter()
	result := adapter.Extract(context.Background(), "https://example.com/about", []byte(page))
	if result.Success {
		t.Fatal("expected failure on non-recipe page")
	}
	if result.Error.Kind != models.ErrorParsing {
		t.Errorf("kind = %q, want parsing", result.Error.Kind)
	}
}
