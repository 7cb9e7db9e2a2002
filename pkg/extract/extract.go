package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Extractor scans page content for contact candidates and outbound links.
// Matching is deliberately permissive: false positives are filtered by the
// validate package, false negatives on common formats are not acceptable.
type Extractor struct {
	emailRegex   *regexp.Regexp
	phoneRegexes []*regexp.Regexp
}

// PageData is everything the crawler needs from one fetched page.
// Candidate slices keep extraction order within the page.
type PageData struct {
	Text   string
	Links  []string
	Emails []string
	Phones []string
}

var phonePatterns = []string{
	// international: +CC with optional separators and parenthesized groups
	`\+\d{1,4}[-\s]?\(?\d{1,5}\)?[-\s]?\d{1,5}[-\s]?\d{1,5}[-\s]?\d{1,5}`,
	// national with leading trunk prefix, e.g. 8 (999) 123-45-67
	`8[-\s]?\(?\d{3}\)?[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2}`,
	// parenthesized area code without country indicator
	`\(?\d{3,4}\)?[-\s]?\d{2,3}[-\s]?\d{2,3}[-\s]?\d{2,4}`,
}

// New compiles the candidate patterns once.
func New() *Extractor {
	e := &Extractor{
		emailRegex: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	}
	for _, p := range phonePatterns {
		e.phoneRegexes = append(e.phoneRegexes, regexp.MustCompile(p))
	}
	return e
}

// Emails returns raw email-like candidates in match order.
func (e *Extractor) Emails(text string) []string {
	return dedupe(e.emailRegex.FindAllString(text, -1))
}

// Phones returns raw phone-like candidates in match order.
func (e *Extractor) Phones(text string) []string {
	var out []string
	for _, re := range e.phoneRegexes {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return dedupe(out)
}

// Links returns absolute, normalized same-or-cross-domain hyperlinks in
// document order. Malformed markup degrades to no links rather than an error.
func (e *Extractor) Links(body []byte, base *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || skipHref(href) {
			return
		}
		if normalized, ok := ResolveURL(href, base); ok {
			links = append(links, normalized)
		}
	})
	return dedupe(links)
}

// Text extracts readable page text, falling back to a raw node walk when the
// main extraction cannot handle the markup.
func (e *Extractor) Text(body []byte) string {
	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{})
	if err == nil && result != nil && result.ContentText != "" {
		return result.ContentText
	}
	return fallbackText(body)
}

// Page runs the full extraction pipeline over one fetched body.
// mailto: and tel: hrefs feed the candidate streams alongside the text scan,
// because pages routinely hide contacts behind anchors only.
func (e *Extractor) Page(body []byte, base *url.URL) PageData {
	text := e.Text(body)
	combined := text + "\n" + string(body)

	data := PageData{
		Text:   text,
		Links:  e.Links(body, base),
		Emails: e.Emails(combined),
		Phones: e.Phones(combined),
	}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			href = strings.TrimSpace(href)
			if rest, ok := strings.CutPrefix(href, "mailto:"); ok {
				data.Emails = append(data.Emails, stripHrefParams(rest))
			} else if rest, ok := strings.CutPrefix(href, "tel:"); ok {
				data.Phones = append(data.Phones, stripHrefParams(rest))
			}
		})
	}

	data.Emails = dedupe(data.Emails)
	data.Phones = dedupe(data.Phones)
	return data
}

// ResolveURL resolves ref against base and normalizes the result: fragment
// and query stripped, scheme and host lowercased, trailing slash trimmed.
// Two URLs with the same normalized form are the same crawl target.
func ResolveURL(ref string, base *url.URL) (string, bool) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	abs := parsed
	if base != nil {
		abs = base.ResolveReference(parsed)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}

	abs.Scheme = strings.ToLower(abs.Scheme)
	abs.Host = strings.ToLower(abs.Host)
	abs.Fragment = ""
	abs.RawQuery = ""
	abs.Path = strings.TrimSuffix(abs.Path, "/")
	return abs.String(), true
}

func skipHref(href string) bool {
	for _, prefix := range []string{"#", "javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

// stripHrefParams drops mailto:/tel: query parameters like ?subject=.
func stripHrefParams(v string) string {
	v, _, _ = strings.Cut(v, "?")
	v, _, _ = strings.Cut(v, "&")
	return strings.TrimSpace(v)
}

func fallbackText(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
