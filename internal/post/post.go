package post

import (
	"strings"
	"time"

	nethtml "golang.org/x/net/html"
)

// Labels holds the platform marker strings used to classify rendered posts.
// The host platform localizes them, so they are injected rather than fixed.
type Labels struct {
	Promoted string
	Repost   string
}

func DefaultLabels() Labels {
	return Labels{
		Promoted: "Ad",
		Repost:   "reposted",
	}
}

// View is the ephemeral classification of one rendered post. It is recomputed
// on every scan and never persisted.
type View struct {
	ID          string
	Timestamp   *time.Time
	Promoted    bool
	Retweet     bool
	ReplyParent bool
}

// Classify derives a View from a rendered post's article node.
func Classify(article *nethtml.Node, labels Labels) View {
	return View{
		ID:          ExtractID(article),
		Timestamp:   ExtractTimestamp(article),
		Promoted:    IsPromoted(article, labels),
		Retweet:     IsRetweet(article, labels),
		ReplyParent: IsReplyParent(article),
	}
}

// IsPromoted reports whether the post carries the sponsored-content label.
// Only the trailing span counts, and only on exact match, so quoted text
// mentioning the label does not trip it.
func IsPromoted(article *nethtml.Node, labels Labels) bool {
	if article == nil || labels.Promoted == "" {
		return false
	}
	var last *nethtml.Node
	walk(article, func(n *nethtml.Node) bool {
		if isElement(n, "span") {
			last = n
		}
		return true
	})
	if last == nil {
		return false
	}
	return strings.TrimSpace(textContent(last)) == labels.Promoted
}

// IsRetweet reports whether the post has a repost indicator: a role=link
// anchor whose direct span child ends with the repost label.
func IsRetweet(article *nethtml.Node, labels Labels) bool {
	if article == nil || labels.Repost == "" {
		return false
	}
	span := findFirst(article, func(n *nethtml.Node) bool {
		if !isElement(n, "span") {
			return false
		}
		parent := n.Parent
		return parent != nil && isElement(parent, "a") && attr(parent, "role") == "link"
	})
	if span == nil {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(textContent(span)), labels.Repost)
}

// IsReplyParent reports whether the post is the head of a visible thread.
// The platform renders a vertical connector as a sibling of the author
// avatar container, so more than one element child of the avatar's parent
// means descendants follow.
func IsReplyParent(article *nethtml.Node) bool {
	avatar := findFirst(article, func(n *nethtml.Node) bool {
		return isElement(n, "div") && attr(n, "data-testid") == "Tweet-User-Avatar"
	})
	if avatar == nil || avatar.Parent == nil {
		return false
	}
	return len(elementChildren(avatar.Parent)) > 1
}

// ExtractID returns the post id parsed from the permalink path segment after
// "/status/", or "" when no permalink is present.
func ExtractID(article *nethtml.Node) string {
	anchor := permalinkAnchor(article)
	if anchor == nil {
		return ""
	}
	href := attr(anchor, "href")
	idx := strings.Index(href, "/status/")
	if idx < 0 {
		return ""
	}
	id := href[idx+len("/status/"):]
	if cut := strings.IndexAny(id, "/?#"); cut >= 0 {
		id = id[:cut]
	}
	return id
}

// ExtractTimestamp returns the post time parsed from the permalink's time
// element datetime attribute, or nil when absent or malformed.
func ExtractTimestamp(article *nethtml.Node) *time.Time {
	anchor := permalinkAnchor(article)
	if anchor == nil {
		return nil
	}
	timeNode := findFirst(anchor, func(n *nethtml.Node) bool {
		return isElement(n, "time")
	})
	if timeNode == nil {
		return nil
	}
	raw := strings.TrimSpace(attr(timeNode, "datetime"))
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

// permalinkAnchor finds the status anchor that carries the post's time
// element. Falls back to any status anchor so ids survive markup drift.
func permalinkAnchor(article *nethtml.Node) *nethtml.Node {
	if article == nil {
		return nil
	}
	withTime := findFirst(article, func(n *nethtml.Node) bool {
		if !isStatusAnchor(n) {
			return false
		}
		return findFirst(n, func(c *nethtml.Node) bool { return isElement(c, "time") }) != nil
	})
	if withTime != nil {
		return withTime
	}
	return findFirst(article, isStatusAnchor)
}

func isStatusAnchor(n *nethtml.Node) bool {
	return isElement(n, "a") && strings.Contains(attr(n, "href"), "/status/")
}
