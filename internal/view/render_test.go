package view_test

import (
	"strings"
	"testing"

	"webstore/internal/loader"
	"webstore/internal/models"
	"webstore/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	r, err := view.NewRenderer()
	require.NoError(t, err)
	return r
}

func TestRenderer_ListingLoading(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Listing(loader.Loading())
	require.NoError(t, err)
	assert.Equal(t, "<p>Loading...</p>", string(out))
}

func TestRenderer_ListingError(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Listing(loader.Failure(loader.FetchFailedMessage))
	require.NoError(t, err)
	assert.Equal(t, "<p>Failed to fetch products.</p>", string(out))
	assert.NotContains(t, string(out), "card")
}

func TestRenderer_ListingEmpty(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Listing(loader.Success(nil))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<p>No products available</p>")
	assert.NotContains(t, string(out), "card-title")
}

func TestRenderer_ListingCards(t *testing.T) {
	r := newRenderer(t)
	products := []models.Product{
		{ID: "1", Name: "Widget", Price: 9.99},
		{ID: "2", Name: "Gadget", Price: 24.5},
		{ID: "3", Name: "Gizmo", Price: 14},
	}

	out, err := r.Listing(loader.Success(products))
	require.NoError(t, err)
	html := string(out)

	assert.Equal(t, len(products), strings.Count(html, `class="card mb-4"`))
	assert.Contains(t, html, `<h5 class="card-title">Widget</h5>`)
	assert.Contains(t, html, `<p class="card-text">$9.99</p>`)
	assert.Contains(t, html, `<p class="card-text">$24.5</p>`)
	assert.Contains(t, html, `<p class="card-text">$14</p>`)
	assert.NotContains(t, html, "No products available")

	// Cards keep the order of the loaded collection
	assert.Less(t, strings.Index(html, "Widget"), strings.Index(html, "Gadget"))
	assert.Less(t, strings.Index(html, "Gadget"), strings.Index(html, "Gizmo"))
}

func TestRenderer_EscapesProductNames(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Listing(loader.Success([]models.Product{{ID: "1", Name: "<b>Bold</b> & Co", Price: 1}}))
	require.NoError(t, err)
	assert.Contains(t, string(out), "&lt;b&gt;Bold&lt;/b&gt; &amp; Co")
}

func TestRenderer_Idempotent(t *testing.T) {
	r := newRenderer(t)
	states := []loader.LoadState{
		loader.Loading(),
		loader.Failure(loader.FetchFailedMessage),
		loader.Success(nil),
		loader.Success(models.SampleProducts()),
	}

	for _, s := range states {
		first, err := r.Page(s)
		require.NoError(t, err)
		second, err := r.Page(s)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestRenderer_PageWrapsListingInShell(t *testing.T) {
	r := newRenderer(t)

	page, err := r.Page(loader.Loading())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<h1>Welcome to My Webstore</h1>")
	assert.Contains(t, page, "<p>Loading...</p>")
	assert.Less(t, strings.Index(page, "<h1>"), strings.Index(page, "Loading..."))
}

func TestRenderer_ShellDoesNotEscapeOutlet(t *testing.T) {
	r := newRenderer(t)

	page, err := r.Shell(`<section id="slot">content</section>`)
	require.NoError(t, err)
	assert.Contains(t, page, `<section id="slot">content</section>`)
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		state loader.LoadState
		want  string
	}{
		{"loading", loader.Loading(), "Loading..."},
		{"error", loader.Failure(loader.FetchFailedMessage), "Failed to fetch products."},
		{"empty", loader.Success([]models.Product{}), "No products available"},
		{"single", loader.Success([]models.Product{{ID: "1", Name: "Widget", Price: 9.99}}), "Widget\t$9.99"},
		{
			"many",
			loader.Success([]models.Product{{ID: "1", Name: "Widget", Price: 9.99}, {ID: "2", Name: "Gizmo", Price: 14}}),
			"Widget\t$9.99\nGizmo\t$14",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, view.Text(tt.state))
		})
	}
}
