package sim

import (
	"fmt"
	"strings"
	"time"

	nethtml "golang.org/x/net/html"

	"github.com/gitune/twitter-list-scroller/internal/post"
)

// Post is one simulated timeline entry. Its markup mirrors the host
// platform's article shape closely enough for the classifiers.
type Post struct {
	id          string
	ts          time.Time
	author      string
	text        string
	height      float64
	promoted    bool
	repost      bool
	replyParent bool

	article *nethtml.Node
}

type Option func(*Post)

func Promoted() Option {
	return func(p *Post) { p.promoted = true }
}

func Repost() Option {
	return func(p *Post) { p.repost = true }
}

func ReplyParent() Option {
	return func(p *Post) { p.replyParent = true }
}

func WithHeight(h float64) Option {
	return func(p *Post) { p.height = h }
}

func WithText(text string) Option {
	return func(p *Post) { p.text = text }
}

func WithAuthor(author string) Option {
	return func(p *Post) { p.author = author }
}

func NewPost(id string, ts time.Time, opts ...Option) *Post {
	p := &Post{
		id:     id,
		ts:     ts,
		author: "someone",
		text:   "post " + id,
		height: 120,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.article = p.buildArticle()
	return p
}

func (p *Post) ID() string { return p.id }

func (p *Post) Text() string { return p.text }

func (p *Post) Author() string { return p.author }

func (p *Post) buildArticle() *nethtml.Node {
	var sb strings.Builder
	sb.WriteString(`<article data-testid="tweet">`)

	if p.repost {
		fmt.Fprintf(&sb, `<a role="link" href="/%s"><span>%s reposted</span></a>`, p.author, p.author)
	}

	sb.WriteString(`<div><div data-testid="Tweet-User-Avatar"><img src="/avatar.png"></div>`)
	if p.replyParent {
		sb.WriteString(`<div class="thread-connector"></div>`)
	}
	sb.WriteString(`</div>`)

	fmt.Fprintf(&sb, `<div><span>%s</span> <a href="/%s/status/%s"><time datetime="%s">%s</time></a></div>`,
		p.author, p.author, p.id, p.ts.UTC().Format(time.RFC3339), p.ts.UTC().Format("Jan 2"))
	fmt.Fprintf(&sb, `<div><span>%s</span></div>`, p.text)

	if p.promoted {
		sb.WriteString(`<span>Ad</span>`)
	}
	sb.WriteString(`</article>`)

	article, err := post.ParseArticle(sb.String())
	if err != nil {
		// Generated markup; a parse failure is a bug in this package.
		panic(fmt.Sprintf("sim: build article for post %s: %v", p.id, err))
	}
	return article
}
