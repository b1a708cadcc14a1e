package render

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
	nethtml "golang.org/x/net/html"
)

var snippetTimeStyle = lipgloss.NewStyle().Faint(true)

// Lines flattens a timeline article fragment into wrapped terminal lines.
// Block containers become paragraphs, images and scripts are dropped, and
// timestamps render dimmed.
func Lines(article *nethtml.Node, width int) []string {
	if article == nil {
		return nil
	}
	if width < 1 {
		width = 1
	}
	out := make([]string, 0, 4)
	renderBlocks(article, width, &out)
	return trimBlankLines(out)
}

func renderBlocks(node *nethtml.Node, width int, out *[]string) {
	inline := ""
	flush := func() {
		text := normalizeInlineText(inline)
		inline = ""
		if text == "" {
			return
		}
		*out = append(*out, wrapText(text, width)...)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if isBlock(child) {
			flush()
			renderBlocks(child, width, out)
			continue
		}
		if inline != "" {
			inline += " "
		}
		inline += renderInline(child)
	}
	flush()
}

func isBlock(node *nethtml.Node) bool {
	if node == nil || node.Type != nethtml.ElementNode {
		return false
	}
	switch strings.ToLower(node.Data) {
	case "div", "p", "article", "section", "blockquote", "ul", "ol", "li", "figure", "header", "footer":
		return true
	}
	return false
}

func renderInline(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type {
	case nethtml.TextNode:
		return node.Data
	case nethtml.ElementNode:
	default:
		return ""
	}
	switch strings.ToLower(node.Data) {
	case "script", "style", "noscript", "img", "svg":
		return ""
	case "br":
		return "\n"
	case "time":
		text := normalizeInlineText(renderInlineChildren(node))
		if text == "" {
			return ""
		}
		return snippetTimeStyle.Render(text)
	default:
		return renderInlineChildren(node)
	}
}

func renderInlineChildren(node *nethtml.Node) string {
	parts := make([]string, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if part := renderInline(child); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func normalizeInlineText(s string) string {
	s = html.UnescapeString(s)
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	normalized := strings.Join(out, "\n")
	replacer := strings.NewReplacer(
		" .", ".",
		" ,", ",",
		" ;", ";",
		" :", ":",
		" !", "!",
		" ?", "?",
		" )", ")",
		"( ", "(",
	)
	return replacer.Replace(normalized)
}

func wrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for len(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				out = append(out, word[:width])
				word = word[width:]
			}

			if line == "" {
				line = word
				continue
			}
			if len(line)+1+len(word) <= width {
				line += " " + word
				continue
			}
			out = append(out, line)
			line = word
		}
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

func trimBlankLines(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines) - 1
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return nil
	}
	out := make([]string, 0, end-start+1)
	prevBlank := false
	for i := start; i <= end; i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, lines[i])
		prevBlank = blank
	}
	return out
}
