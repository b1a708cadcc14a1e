package post

import (
	"fmt"
	"strings"

	nethtml "golang.org/x/net/html"
)

// ParseArticle parses an HTML fragment and returns its first article element.
func ParseArticle(raw string) (*nethtml.Node, error) {
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return nil, fmt.Errorf("parse post fragment: %w", err)
	}
	article := findFirst(doc, func(n *nethtml.Node) bool {
		return isElement(n, "article")
	})
	if article == nil {
		return nil, fmt.Errorf("post fragment has no article element")
	}
	return article, nil
}
