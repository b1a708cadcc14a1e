package post

import (
	"strings"

	nethtml "golang.org/x/net/html"
)

func isElement(n *nethtml.Node, tag string) bool {
	return n != nil && n.Type == nethtml.ElementNode && strings.EqualFold(n.Data, tag)
}

func attr(n *nethtml.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func elementChildren(n *nethtml.Node) []*nethtml.Node {
	if n == nil {
		return nil
	}
	out := make([]*nethtml.Node, 0, 4)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.ElementNode {
			out = append(out, child)
		}
	}
	return out
}

// walk visits n and its descendants in document order until fn returns false.
func walk(n *nethtml.Node, fn func(*nethtml.Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if !walk(child, fn) {
			return false
		}
	}
	return true
}

func findFirst(n *nethtml.Node, pred func(*nethtml.Node) bool) *nethtml.Node {
	var found *nethtml.Node
	walk(n, func(c *nethtml.Node) bool {
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func textContent(n *nethtml.Node) string {
	var sb strings.Builder
	walk(n, func(c *nethtml.Node) bool {
		if c.Type == nethtml.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}
