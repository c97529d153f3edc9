package engine

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// FetchURLContent downloads a page and extracts its main text content.
// Errors wrap ErrFetch.
func FetchURLContent(ctx context.Context, rawURL string) (title, content string, err error) {
	metrics.FetchRequests.Add(1)
	defer func() {
		if err != nil {
			metrics.FetchErrors.Add(1)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	body, err := getPage(ctx, rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}
	title, content = ExtractPageText(body, rawURL)
	return title, content, nil
}

// ExtractPageText turns an HTML document into readable text.
// Tries go-readability + html-to-markdown first, then goquery, then a
// regex tag strip. Output is capped at MaxContentChars.
func ExtractPageText(body []byte, rawURL string) (title, content string) {
	pageURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		md, mdErr := htmltomarkdown.ConvertString(article.Content)
		if mdErr != nil {
			md = article.TextContent
		}
		if text := strings.TrimSpace(md); text != "" {
			return article.Title, capContent(text)
		}
	}

	if title, content, ok := extractWithGoquery(body); ok {
		return title, content
	}
	return extractWithRegex(string(body))
}

// extractWithGoquery uses goquery for structured HTML parsing when readability fails.
func extractWithGoquery(body []byte) (title, content string, ok bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", "", false
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).First().Attr("content")
	}

	removeSelectors := []string{
		"script", "style", "noscript", "iframe", "svg",
		"header", "footer", "nav", "aside",
		".advertisement", ".ad", ".sidebar", ".comments",
		"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	}
	doc.Find(strings.Join(removeSelectors, ", ")).Remove()

	contentSel := doc.Find("article, main, .content, .post-content, .article-content, #content").First()
	if contentSel.Length() == 0 {
		contentSel = doc.Find("body")
	}

	content = collapseSpaces(contentSel.Text())
	if content == "" {
		return title, "", false
	}
	return title, capContent(content), true
}

var (
	titleRe       = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	blockStripRes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<nav[^>]*>.*?</nav>`),
	}
	spaceRe = regexp.MustCompile(`\s+`)
)

// extractWithRegex uses regex-based HTML stripping when both readability and goquery fail.
func extractWithRegex(html string) (title, content string) {
	if m := titleRe.FindStringSubmatch(html); len(m) > 1 {
		title = strings.TrimSpace(m[1])
	}
	for _, re := range blockStripRes {
		html = re.ReplaceAllString(html, "")
	}
	return title, capContent(collapseSpaces(CleanHTML(html)))
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func capContent(s string) string {
	limit := cfg.MaxContentChars
	if limit <= 0 {
		limit = 20000
	}
	return TruncateRunes(s, limit, "...")
}
