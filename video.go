package recipebox

import (
	"bytes"
	"context"
	"regexp"

	"golang.org/x/net/html"

	"github.com/zombar/recipebox/models"
)

// platformAdapter is the shared implementation behind the video-platform
// adapters. Each platform supplies a URL pattern and its domain list; parsing
// and the degraded-placeholder contract are identical across platforms.
type platformAdapter struct {
	platform string
	urlRe    *regexp.Regexp
	domains  []string
}

func (a *platformAdapter) CanHandle(rawURL string) bool {
	return a.urlRe.MatchString(rawURL)
}

func (a *platformAdapter) SupportedDomains() []string {
	return a.domains
}

// Extract pulls page metadata and runs the shared heuristic. When metadata
// is too sparse to infer recipe content it still succeeds with a placeholder
// recipe so the caller always has something reviewable. Confidence marks the
// degraded path.
func (a *platformAdapter) Extract(ctx context.Context, pageURL string, body []byte) *models.IngestionResult {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return models.Fail(models.ErrorParsing, "failed to parse HTML")
	}

	meta := extractPageMeta(doc)
	content, recipeLike := RecipeFromPageMeta(meta)
	if !recipeLike {
		content = a.placeholderContent(meta)
	}

	confidence := 0.7
	var warnings []string
	if !recipeLike || content.Ingredients[0] == PlaceholderIngredient {
		confidence = 0.2
		warnings = append(warnings, "video metadata too sparse, recipe contains placeholder content")
	}

	return buildResult(content, pageURL, models.SourceTypeVideo, confidence, warnings)
}

// placeholderContent builds the minimal valid recipe for a video page whose
// metadata carries no recipe content at all.
func (a *platformAdapter) placeholderContent(meta PageMeta) models.NormalizedContent {
	title := meta.Title
	if title == "" {
		title = "Recipe from " + a.platform
	}
	content := models.NormalizedContent{
		Title:        title,
		Description:  meta.Description,
		Ingredients:  []string{PlaceholderIngredient},
		Instructions: []string{PlaceholderInstruction},
	}
	content.Metadata.Author = meta.Author
	content.Metadata.PublishedDate = meta.PublishedDate
	return content
}

// NewYouTubeAdapter handles youtube.com watch/shorts URLs and youtu.be links.
func NewYouTubeAdapter() SourceAdapter {
	return &platformAdapter{
		platform: "YouTube",
		urlRe:    regexp.MustCompile(`^https?://(?:www\.|m\.)?(?:youtube\.com/(?:watch\?|shorts/)|youtu\.be/)`),
		domains:  []string{"youtube.com", "youtu.be"},
	}
}

// NewTikTokAdapter handles tiktok.com video URLs.
func NewTikTokAdapter() SourceAdapter {
	return &platformAdapter{
		platform: "TikTok",
		urlRe:    regexp.MustCompile(`^https?://(?:www\.|vm\.)?tiktok\.com/`),
		domains:  []string{"tiktok.com"},
	}
}

// NewInstagramAdapter handles instagram.com reel and post URLs.
func NewInstagramAdapter() SourceAdapter {
	return &platformAdapter{
		platform: "Instagram",
		urlRe:    regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/(?:reel|p|tv)/`),
		domains:  []string{"instagram.com"},
	}
}
