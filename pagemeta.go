package recipebox

import (
	"strings"

	"golang.org/x/net/html"
)

// PageMeta holds page metadata pulled from standard meta-tag conventions.
type PageMeta struct {
	Title         string
	Description   string
	Author        string
	PublishedDate string
	Duration      string
	Thumbnail     string
}

// extractPageMeta walks the parsed document collecting title and meta-tag
// metadata. Title priority: og:title > twitter:title > h1 > title tag.
func extractPageMeta(doc *html.Node) PageMeta {
	var meta PageMeta
	var ogTitle, twitterTitle, h1Title, htmlTitle string

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var property, name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property":
						property = strings.ToLower(attr.Val)
					case "name":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if content == "" {
					break
				}
				switch {
				case property == "og:title" && ogTitle == "":
					ogTitle = content
				case name == "twitter:title" && twitterTitle == "":
					twitterTitle = content
				case (name == "description" || property == "og:description") && meta.Description == "":
					meta.Description = content
				case (name == "author" || property == "article:author" || property == "og:video:director") && meta.Author == "":
					meta.Author = content
				case (property == "article:published_time" || property == "og:video:release_date" || name == "uploaddate") && meta.PublishedDate == "":
					meta.PublishedDate = content
				case (property == "og:video:duration" || name == "duration") && meta.Duration == "":
					meta.Duration = content
				case (property == "og:image" || name == "twitter:image") && meta.Thumbnail == "":
					meta.Thumbnail = content
				}
			case "h1":
				if h1Title == "" && n.FirstChild != nil {
					h1Title = nodeText(n)
				}
			case "title":
				if htmlTitle == "" && n.FirstChild != nil {
					htmlTitle = n.FirstChild.Data
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	switch {
	case ogTitle != "":
		meta.Title = strings.TrimSpace(ogTitle)
	case twitterTitle != "":
		meta.Title = strings.TrimSpace(twitterTitle)
	case h1Title != "":
		meta.Title = strings.TrimSpace(h1Title)
	default:
		meta.Title = strings.TrimSpace(htmlTitle)
	}

	return meta
}

// nodeText extracts all text content from a node and its children.
func nodeText(n *html.Node) string {
	var parts []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(parts, " ")
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
