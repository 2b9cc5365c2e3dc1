package recipebox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zombar/recipebox/models"
)

const cookiePage = `<html><head>
<script type="application/ld+json">
{"@type":"Recipe","name":"Chocolate Chip Cookies",
"recipeIngredient":["2 cups flour","1 cup sugar","1/2 cup butter"],
"recipeInstructions":["Mix ingredients","Bake for 10 minutes"],
"cookTime":"PT10M","prepTime":"PT15M","recipeYield":"24"}
</script>
</head><body></body></html>`

func testService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	svc := NewService(config)
	svc.sleep = func(time.Duration) {}
	return svc, server
}

func TestExtractRecipeStructuredData(t *testing.T) {
	svc, server := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(cookiePage))
	}))

	result := svc.ExtractRecipe(context.Background(), server.URL+"/cookies")
	if !result.Success {
		t.Fatalf("extraction failed: %v", result.Error)
	}

	recipe := result.Recipe
	if recipe.Title != "Chocolate Chip Cookies" {
		t.Errorf("title = %q", recipe.Title)
	}
	if len(recipe.Ingredients) != 3 {
		t.Errorf("ingredients = %d, want 3", len(recipe.Ingredients))
	}
	if len(recipe.Instructions) != 2 {
		t.Errorf("instructions = %d, want 2", len(recipe.Instructions))
	}
	if recipe.CookingTime == nil || *recipe.CookingTime != 10 {
		t.Errorf("cooking time = %v, want 10", recipe.CookingTime)
	}
	if recipe.PrepTime == nil || *recipe.PrepTime != 15 {
		t.Errorf("prep time = %v, want 15", recipe.PrepTime)
	}
	if recipe.Servings == nil || *recipe.Servings != 24 {
		t.Errorf("servings = %v, want 24", recipe.Servings)
	}
	if recipe.SourceType != models.SourceTypeWeb {
		t.Errorf("source type = %q", recipe.SourceType)
	}
}

func TestExtractRecipeParsesQuantities(t *testing.T) {
	svc, server := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(cookiePage))
	}))

	result := svc.ExtractRecipe(context.Background(), server.URL)
	if !result.Success {
		t.Fatalf("extraction failed: %v", result.Error)
	}

	flour := result.Recipe.Ingredients[0]
	if flour.Quantity == nil || *flour.Quantity != 2 || flour.Unit != "cups" || flour.Name != "flour" {
		t.Errorf("flour parsed as %+v", flour)
	}
	butter := result.Recipe.Ingredients[2]
	if butter.Quantity == nil || *butter.Quantity != 0.5 {
		t.Errorf("butter quantity = %v, want 0.5", butter.Quantity)
	}
}

func TestExtractRecipeZeroValueConfigAttemptsOnce(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	// No MaxRetries configured; the fetch must still run exactly once and
	// return a typed failure rather than panic.
	svc := NewService(Config{HTTPTimeout: 5 * time.Second})
	svc.sleep = func(time.Duration) {}

	result := svc.ExtractRecipe(context.Background(), server.URL)
	if result.Success {
		t.Fatal("expected failure for persistent 502")
	}
	if result.Error.Kind != models.ErrorNetwork {
		t.Errorf("kind = %q, want network", result.Error.Kind)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestExtractRecipeInvalidScheme(t *testing.T) {
	svc := NewService(DefaultConfig())

	for _, rawURL := range []string{"ftp://example.com/recipe", "not a url", "file:///etc/passwd"} {
		result := svc.ExtractRecipe(context.Background(), rawURL)
		if result.Success {
			t.Errorf("%q: expected failure", rawURL)
			continue
		}
		if result.Error.Kind != models.ErrorUnsupported {
			t.Errorf("%q: kind = %q, want unsupported", rawURL, result.Error.Kind)
		}
	}
}

func TestExtractRecipeRetriesNetworkErrors(t *testing.T) {
	attempts := 0
	svc, server := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))

	var sleeps []time.Duration
	svc.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	result := svc.ExtractRecipe(context.Background(), server.URL)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error.Kind != models.ErrorNetwork {
		t.Errorf("kind = %q, want network", result.Error.Kind)
	}
	if attempts != svc.config.MaxRetries {
		t.Errorf("attempts = %d, want %d", attempts, svc.config.MaxRetries)
	}
	// Linear backoff: delay grows with each failed attempt.
	want := []time.Duration{svc.config.RetryDelay, 2 * svc.config.RetryDelay}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", sleeps, want)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestExtractRecipeDoesNotRetryTerminalErrors(t *testing.T) {
	attempts := 0
	svc, server := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))

	result := svc.ExtractRecipe(context.Background(), server.URL)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error.Kind != models.ErrorParsing {
		t.Errorf("kind = %q, want parsing", result.Error.Kind)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (parsing errors are terminal)", attempts)
	}
}

func TestAdapterDispatchOrder(t *testing.T) {
	adapters := NewAdapterChain()

	// Universal fallback must be last: it accepts everything.
	last := adapters[len(adapters)-1]
	if _, ok := last.(*StructuredDataAdapter); !ok {
		t.Fatalf("last adapter is %T, want *StructuredDataAdapter", last)
	}
	for _, a := range adapters[:len(adapters)-1] {
		if a.CanHandle("https://example.com/some-page") {
			t.Errorf("%T accepts arbitrary URLs; only the fallback may", a)
		}
	}

	// Platform URLs must be claimed before the fallback sees them.
	platformURLs := []string{
		"https://www.youtube.com/watch?v=abc123",
		"https://youtu.be/abc123",
		"https://www.tiktok.com/@cook/video/123",
		"https://www.instagram.com/reel/abc/",
	}
	for _, u := range platformURLs {
		owner := -1
		for i, a := range adapters {
			if a.CanHandle(u) {
				owner = i
				break
			}
		}
		if owner < 0 || owner >= len(adapters)-1 {
			t.Errorf("%q claimed by adapter index %d, want a platform adapter", u, owner)
		}
	}

	// Site-specific adapter sits between platforms and the fallback.
	owner := -1
	for i, a := range adapters {
		if a.CanHandle("https://www.allrecipes.com/recipe/10813/") {
			owner = i
			break
		}
	}
	if owner < 0 {
		t.Fatal("allrecipes URL unclaimed")
	}
	if _, ok := adapters[owner].(*AllRecipesAdapter); !ok {
		t.Errorf("allrecipes URL claimed by %T", adapters[owner])
	}
}

func TestExtractBatchPreservesOrder(t *testing.T) {
	svc, server := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(cookiePage))
	}))
	svc.config.MaxConcurrent = 2

	urls := []string{server.URL + "/a", server.URL + "/b", server.URL + "/c", "ftp://bad"}
	results := svc.ExtractBatch(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("results = %d, want %d", len(results), len(urls))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Errorf("result %d URL = %q, want %q", i, r.URL, urls[i])
		}
	}
	if results[3].Result.Success {
		t.Error("ftp URL should fail")
	}
	if !results[0].Result.Success {
		t.Errorf("first URL failed: %v", results[0].Result.Error)
	}
}

func TestSupportedDomains(t *testing.T) {
	svc := NewService(DefaultConfig())
	domains := svc.SupportedDomains()

	want := map[string]bool{"youtube.com": false, "tiktok.com": false, "instagram.com": false, "allrecipes.com": false, "*": false}
	for _, d := range domains {
		if _, ok := want[d]; ok {
			want[d] = true
		}
	}
	for d, found := range want {
		if !found {
			t.Errorf("domain %q missing from %v", d, domains)
		}
	}
}
