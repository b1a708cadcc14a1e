package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/gitune/twitter-list-scroller/internal/post"
)

var stripANSIForTest = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestLines_FlattensPostMarkup(t *testing.T) {
	raw := `<article data-testid="tweet">` +
		`<div><div data-testid="Tweet-User-Avatar"><img src="/avatar.png"></div></div>` +
		`<div><span>alice</span> <a href="/alice/status/42"><time datetime="2024-03-01T10:00:00Z">Mar 1</time></a></div>` +
		`<div><span>Morning coffee thoughts.</span></div>` +
		`</article>`
	article, err := post.ParseArticle(raw)
	if err != nil {
		t.Fatalf("parse article: %v", err)
	}

	lines := Lines(article, 80)
	got := stripANSIForTest.ReplaceAllString(strings.Join(lines, "\n"), "")

	header := strings.Index(got, "alice Mar 1")
	body := strings.Index(got, "Morning coffee thoughts.")
	if header == -1 || body == -1 {
		t.Fatalf("expected header and body lines, got %q", got)
	}
	if header > body {
		t.Fatalf("expected header before body, got %q", got)
	}
	if strings.Contains(got, "/avatar.png") {
		t.Fatalf("expected image sources hidden, got %q", got)
	}
}

func TestLines_WrapsLongText(t *testing.T) {
	raw := `<article><div><span>one two three four five six</span></div></article>`
	article, err := post.ParseArticle(raw)
	if err != nil {
		t.Fatalf("parse article: %v", err)
	}

	lines := Lines(article, 10)
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %+v", lines)
	}
	for _, line := range lines {
		if len(line) > 10 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestLines_NilArticle(t *testing.T) {
	if got := Lines(nil, 80); got != nil {
		t.Fatalf("expected nil output, got %+v", got)
	}
}

func TestNormalizeInlineText_CollapsesAndUnescapes(t *testing.T) {
	got := normalizeInlineText("a  &amp; b \n\n c ,")
	if got != "a & b\nc," {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
