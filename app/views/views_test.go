package views

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/app/models"
)

func TestRenderEscapesContent(t *testing.T) {
	shop := struct {
		Featured   []models.Product
		Categories []models.Category
		Vendors    []models.Vendor
	}{
		Featured: []models.Product{{ID: 7, Title: "<script>x</script>", Price: decimal.RequireFromString("9.5")}},
	}
	out, err := Render("shop", Page{Title: "Shop", Data: shop})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, html, "<script>x")
	assert.Contains(t, html, `href="/products/7"`)
	assert.Contains(t, html, "9.50")
	assert.Contains(t, html, "Out of stock")
}

func TestRenderUnknownPage(t *testing.T) {
	_, err := Render("nope", Page{})
	assert.Error(t, err)
}

func TestRenderNotice(t *testing.T) {
	hub := struct {
		Latest     []models.Article
		Popular    []models.Article
		Categories []models.Category
	}{}
	out, err := Render("hub", Page{Title: "Hub", Notice: "Welcome back, <b>Ada</b>.", Data: hub})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<p class="notice" role="status">Welcome back, &lt;b&gt;Ada&lt;/b&gt;.</p>`)

	out, err = Render("hub", Page{Title: "Hub", Data: hub})
	require.NoError(t, err)
	assert.NotContains(t, string(out), `class="notice"`)
}
