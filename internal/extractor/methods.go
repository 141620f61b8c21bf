package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"

	"newsharvest/internal/models"
)

const maxPageBytes = 5 << 20 // 5MB

// truncationMarker matches the "[+1234 chars]" suffix search providers
// append to clipped content
var truncationMarker = regexp.MustCompile(`\[\+\d+ chars\]\s*$`)

// articleSelectors are tried in order; the first one holding paragraphs wins
var articleSelectors = []string{
	"[itemprop='articleBody']",
	"article .entry-content",
	"article .article-content",
	".article-body",
	".post-content",
	".entry-content",
	"article",
	"main",
}

// boilerplateSelectors are removed before any text is read
const boilerplateSelectors = "script, style, nav, header, footer"

// ArticleMethod downloads a page and reads the paragraphs of its main
// article container
type ArticleMethod struct {
	client    *http.Client
	userAgent string
}

func NewArticleMethod(userAgent string, timeout time.Duration) *ArticleMethod {
	return &ArticleMethod{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (m *ArticleMethod) Name() string { return "article" }

func (m *ArticleMethod) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &models.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &models.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &models.FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", &models.ParseError{Source: url, Err: err}
	}

	return ArticleText(doc), nil
}

// ArticleText joins the paragraphs of the first matching article container
func ArticleText(doc *goquery.Document) string {
	doc.Find(boilerplateSelectors).Remove()

	for _, selector := range articleSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		var paragraphs []string
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := normalizeSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, " ")
		}
	}

	return ""
}

// PageMethod fetches the raw page with a browser User-Agent and keeps all
// visible body text once boilerplate elements are stripped
type PageMethod struct {
	userAgent string
	timeout   time.Duration
}

func NewPageMethod(userAgent string, timeout time.Duration) *PageMethod {
	return &PageMethod{userAgent: userAgent, timeout: timeout}
}

func (m *PageMethod) Name() string { return "page" }

func (m *PageMethod) Extract(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.UserAgent(m.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxPageBytes),
	)
	c.SetRequestTimeout(m.timeout)
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	c.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})

	var (
		text     string
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			fetchErr = &models.FetchError{URL: url, StatusCode: r.StatusCode, Err: errors.New(http.StatusText(r.StatusCode))}
			return
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchErr = &models.ParseError{Source: url, Err: err}
			return
		}
		text = PageText(doc)
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = &models.FetchError{URL: url, StatusCode: status, Err: err}
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = &models.FetchError{URL: url, Err: err}
	}
	if fetchErr != nil {
		return "", fmt.Errorf("page fetch: %w", fetchErr)
	}
	return text, nil
}

// contextTransport binds every request colly sends to ctx, so cancelling
// an extraction aborts the fetch in flight
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// PageText returns the whitespace-normalized visible text of a document
func PageText(doc *goquery.Document) string {
	doc.Find(boilerplateSelectors).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	var parts []string
	for _, node := range body.Nodes {
		collectText(node, &parts)
	}
	return normalizeSpace(strings.Join(parts, " "))
}

// collectText gathers text nodes with a separator so adjacent block
// elements do not run their words together
func collectText(node *html.Node, parts *[]string) {
	if node.Type == html.TextNode {
		*parts = append(*parts, node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}
