package extract

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmails(t *testing.T) {
	e := New()

	text := "Write to sales@acme.io or support@acme.io, again sales@acme.io."
	assert.Equal(t, []string{"sales@acme.io", "support@acme.io"}, e.Emails(text))

	assert.Empty(t, e.Emails("no contacts here"))
}

func TestPhones(t *testing.T) {
	e := New()

	cases := []string{
		"+79991234567",
		"+7 999 123-45-67",
		"8 (999) 123-45-67",
		"(495) 123-45-67",
	}
	for _, c := range cases {
		assert.NotEmpty(t, e.Phones("call "+c+" today"), "expected a candidate for %q", c)
	}
}

func TestLinks(t *testing.T) {
	base, err := url.Parse("https://acme.io/about/")
	require.NoError(t, err)

	body := []byte(`<html><body>
		<a href="/page2">two</a>
		<a href="team#bio">three</a>
		<a href="https://other.com/x?utm=1">cross</a>
		<a href="mailto:hi@acme.io">mail</a>
		<a href="javascript:void(0)">js</a>
		<a href="/page2">dup</a>
	</body></html>`)

	e := New()
	links := e.Links(body, base)

	assert.Equal(t, []string{
		"https://acme.io/page2",
		"https://acme.io/about/team",
		"https://other.com/x",
	}, links)
}

func TestLinksMalformedMarkup(t *testing.T) {
	base, _ := url.Parse("https://acme.io")
	e := New()
	// html parsers are forgiving; the contract is only that this never panics
	assert.NotPanics(t, func() {
		e.Links([]byte("<<<<not html >< a href='/x'"), base)
	})
}

func TestPageCollectsAnchorContacts(t *testing.T) {
	base, _ := url.Parse("https://acme.io")
	body := []byte(`<html><body>
		<p>Contact: a@b.com or call +79991234567</p>
		<a href="mailto:ceo@acme.io?subject=hello">mail us</a>
		<a href="tel:+74951234567">call us</a>
		<a href="/jobs">jobs</a>
	</body></html>`)

	e := New()
	page := e.Page(body, base)

	assert.Contains(t, page.Emails, "a@b.com")
	assert.Contains(t, page.Emails, "ceo@acme.io")
	assert.Contains(t, page.Phones, "+74951234567")
	assert.Contains(t, page.Links, "https://acme.io/jobs")
	assert.Contains(t, page.Text, "Contact")
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://Acme.IO/a/b")

	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"/x/", "https://acme.io/x", true},
		{"c", "https://acme.io/a/c", true},
		{"https://acme.io/y?q=1#frag", "https://acme.io/y", true},
		{"HTTPS://ACME.IO/Y", "https://acme.io/Y", true},
		{"ftp://acme.io/file", "", false},
		{"//cdn.acme.io/lib.js", "https://cdn.acme.io/lib.js", true},
	}

	for _, tt := range tests {
		got, ok := ResolveURL(tt.ref, base)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.want, got, tt.ref)
	}
}
