package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrontierEnqueueIdempotent(t *testing.T) {
	f := NewFrontier("example.com")

	assert.True(t, f.Enqueue("https://example.com/contact"))
	for i := 0; i < 10; i++ {
		assert.False(t, f.Enqueue("https://example.com/contact"))
	}
	assert.Equal(t, 1, f.Len())
}

func TestFrontierNormalizedIdentity(t *testing.T) {
	f := NewFrontier("example.com")

	assert.True(t, f.Enqueue("https://example.com/about/"))
	// same target after normalization: fragment, query and trailing slash
	assert.False(t, f.Enqueue("https://example.com/about"))
	assert.False(t, f.Enqueue("https://EXAMPLE.com/about#team"))
	assert.False(t, f.Enqueue("https://example.com/about?utm=x"))
	assert.Equal(t, 1, f.Len())
}

func TestFrontierRejectsOffDomain(t *testing.T) {
	f := NewFrontier("example.com")

	assert.False(t, f.Enqueue("https://other.com/page"))
	assert.False(t, f.Enqueue("ftp://example.com/file"))
	assert.False(t, f.Enqueue("not a url"))
	assert.Equal(t, 0, f.Len())

	// subdomains share the registrable domain
	assert.True(t, f.Enqueue("https://shop.example.com/items"))
}

func TestFrontierFIFO(t *testing.T) {
	f := NewFrontier("example.com")
	f.Enqueue("https://example.com/a")
	f.Enqueue("https://example.com/b")
	f.Enqueue("https://example.com/c")

	var order []string
	for {
		target, ok := f.Dequeue()
		if !ok {
			break
		}
		order = append(order, target.URL)
	}
	assert.Equal(t, []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}, order)
}

func TestFrontierSeenSurvivesDequeue(t *testing.T) {
	f := NewFrontier("example.com")
	f.Enqueue("https://example.com/a")
	_, ok := f.Dequeue()
	assert.True(t, ok)

	assert.True(t, f.Seen("https://example.com/a"))
	assert.False(t, f.Enqueue("https://example.com/a"))
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/x", "example.com"},
		{"https://sub.example.com/x", "example.com"},
		{"https://example.co.uk/x", "example.co.uk"},
		{"http://127.0.0.1:8080/x", "127.0.0.1:8080"},
		{"http://192.168.0.1/x", "192.168.0.1"},
		{"http://[::1]:9090/x", "[::1]:9090"},
	}
	for _, tt := range tests {
		got, err := RegistrableDomain(tt.url)
		assert.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestFrontierScopesIPHostsByAuthority(t *testing.T) {
	domain, err := RegistrableDomain("http://127.0.0.1:8080")
	assert.NoError(t, err)
	f := NewFrontier(domain)

	assert.True(t, f.Enqueue("http://127.0.0.1:8080/contact"))
	// a different IP sharing trailing octets is a different site
	assert.False(t, f.Enqueue("http://192.168.0.1/page"))
	// same IP on a different port is a different authority
	assert.False(t, f.Enqueue("http://127.0.0.1:9090/page"))
	assert.Equal(t, 1, f.Len())
}
