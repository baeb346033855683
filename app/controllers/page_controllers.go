package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/app/views"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/middleware"
)

// PageController renders the HTML views from the same services as the
// JSON aggregates.
type PageController struct {
	catalog   *services.CatalogService
	articles  *services.ArticleService
	community *services.CommunityService
}

func NewPageController(catalog *services.CatalogService, articles *services.ArticleService, community *services.CommunityService) *PageController {
	return &PageController{catalog: catalog, articles: articles, community: community}
}

func (pc *PageController) Shop(c *ctx.Context) {
	shop, err := pc.catalog.Shop(c.Context())
	pc.render(c, "shop", "Shop", shop, err)
}

func (pc *PageController) Product(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		pc.render(c, "product", "", nil, apperr.NotFoundf("Product not found."))
		return
	}
	detail, err := pc.catalog.Product(c.Context(), id)
	pc.render(c, "product", detail.Product.Title, detail, err)
}

func (pc *PageController) Hub(c *ctx.Context) {
	hub, err := pc.articles.Hub(c.Context())
	pc.render(c, "hub", "WellnessHub", hub, err)
}

func (pc *PageController) Community(c *ctx.Context) {
	out, err := pc.community.Landing(c.Context(), c.Identity(), c.Query("category"))
	pc.render(c, "community", "Community", out, err)
}

func (pc *PageController) render(c *ctx.Context, page, title string, data any, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if ae, ok := apperr.As(err); ok && ae.Kind != apperr.Internal {
			status = ae.Kind.Status()
		} else {
			logger.WithCtx(c.Context()).Error("page failed", "page", page, "error", err)
		}
		c.HTML(status, []byte(http.StatusText(status)))
		return
	}
	id := c.Identity()
	p := views.Page{Title: title, LoggedIn: id.LoggedIn(), Name: id.Name, Data: data}
	s := c.Session()
	if v, ok := s.GetFlash(FlashNotice); ok {
		p.Notice, _ = v.(string)
	}
	if tok, err := middleware.IssueCSRFToken(s); err == nil {
		p.CSRFToken = tok
	}
	c.SaveSession()
	body, err := views.Render(page, p)
	if err != nil {
		logger.WithCtx(c.Context()).Error("render failed", "page", page, "error", err)
		c.HTML(http.StatusInternalServerError, []byte(http.StatusText(http.StatusInternalServerError)))
		return
	}
	c.HTML(http.StatusOK, body)
}
