package controllers

import (
	"bytes"
	"net/http"

	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
)

// ArticleController serves the WellnessHub articles.
type ArticleController struct {
	articles *services.ArticleService
}

func NewArticleController(s *services.ArticleService) *ArticleController {
	return &ArticleController{articles: s}
}

func (ac *ArticleController) Hub(c *ctx.Context) {
	hub, err := ac.articles.Hub(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(hub)
}

func (ac *ArticleController) Index(c *ctx.Context) {
	items, page, err := ac.articles.Search(c.Context(), c.Query("q"), c.QueryUint("category_id"), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, page)
}

// Show returns the article and counts one view per session.
func (ac *ArticleController) Show(c *ctx.Context) {
	id, ok := paramID(c, "id", "Article")
	if !ok {
		return
	}
	s := c.Session()
	seen := s.GetUints(SessViewedArticles)
	who := services.Viewer{CustomerID: c.Identity().CustomerID, IP: c.ClientIP()}
	a, recorded, err := ac.articles.View(c.Context(), id, who, seen)
	if err != nil {
		c.Fail(err)
		return
	}
	if recorded {
		s.Set(SessViewedArticles, append(seen, id))
		c.SaveSession()
	}
	c.Success(a)
}

func (ac *ArticleController) PDF(c *ctx.Context) {
	id, ok := paramID(c, "id", "Article")
	if !ok {
		return
	}
	a, err := ac.articles.PDF(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Inline(a.Slug+".pdf", "application/pdf", bytes.NewReader(a.Body))
}

func (ac *ArticleController) Create(c *ctx.Context) {
	var in services.ArticleInput
	if !c.BindForm(&in) {
		return
	}
	pdf, closePDF, err := formFile(c, "pdf")
	defer closePDF()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	image, closeImage, err := formFile(c, "image")
	defer closeImage()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	a, err := ac.articles.Create(c.Context(), c.Identity().CustomerID, in, pdf, image)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(a)
}

func (ac *ArticleController) Update(c *ctx.Context) {
	id, ok := paramID(c, "id", "Article")
	if !ok {
		return
	}
	var in services.ArticleInput
	if !c.BindForm(&in) {
		return
	}
	pdf, closePDF, err := formFile(c, "pdf")
	defer closePDF()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	image, closeImage, err := formFile(c, "image")
	defer closeImage()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	a, err := ac.articles.Update(c.Context(), id, in, pdf, image)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(a)
}

func (ac *ArticleController) Delete(c *ctx.Context) {
	id, ok := paramID(c, "id", "Article")
	if !ok {
		return
	}
	if err := ac.articles.Delete(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

// CommunityController serves discussions and the community landing.
type CommunityController struct {
	community *services.CommunityService
}

func NewCommunityController(s *services.CommunityService) *CommunityController {
	return &CommunityController{community: s}
}

func (cc *CommunityController) Index(c *ctx.Context) {
	out, err := cc.community.Landing(c.Context(), c.Identity(), c.Query("category"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(out)
}

func (cc *CommunityController) Discussions(c *ctx.Context) {
	items, page, err := cc.community.Discussions(c.Context(), c.Query("category"), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, page)
}

func (cc *CommunityController) Discussion(c *ctx.Context) {
	id, ok := paramID(c, "id", "Discussion")
	if !ok {
		return
	}
	d, err := cc.community.Discussion(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(d)
}

func (cc *CommunityController) Start(c *ctx.Context) {
	var in services.DiscussionInput
	if !c.BindJSON(&in) {
		return
	}
	d, err := cc.community.Start(c.Context(), c.Identity(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(d)
}

func (cc *CommunityController) Reply(c *ctx.Context) {
	id, ok := paramID(c, "id", "Discussion")
	if !ok {
		return
	}
	var in services.ReplyInput
	if !c.BindJSON(&in) {
		return
	}
	r, err := cc.community.Reply(c.Context(), c.Identity(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(r)
}

func (cc *CommunityController) Delete(c *ctx.Context) {
	id, ok := paramID(c, "id", "Discussion")
	if !ok {
		return
	}
	if err := cc.community.Delete(c.Context(), c.Identity(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

type WorkshopController struct {
	workshops *services.WorkshopService
}

func NewWorkshopController(s *services.WorkshopService) *WorkshopController {
	return &WorkshopController{workshops: s}
}

func (wc *WorkshopController) Index(c *ctx.Context) {
	items, err := wc.workshops.List(c.Context(), c.Identity())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(items)
}

func (wc *WorkshopController) Show(c *ctx.Context) {
	id, ok := paramID(c, "id", "Workshop")
	if !ok {
		return
	}
	w, err := wc.workshops.Show(c.Context(), c.Identity(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(w)
}

func (wc *WorkshopController) Mine(c *ctx.Context) {
	items, err := wc.workshops.Mine(c.Context(), c.Identity().CustomerID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(items)
}

func (wc *WorkshopController) Register(c *ctx.Context) {
	id, ok := paramID(c, "id", "Workshop")
	if !ok {
		return
	}
	w, err := wc.workshops.Register(c.Context(), c.Identity(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusCreated, "You are registered for this workshop.", w)
}

func (wc *WorkshopController) Unregister(c *ctx.Context) {
	id, ok := paramID(c, "id", "Workshop")
	if !ok {
		return
	}
	if err := wc.workshops.Unregister(c.Context(), c.Identity(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

func (wc *WorkshopController) Create(c *ctx.Context) {
	var in services.WorkshopInput
	if !c.BindForm(&in) {
		return
	}
	image, done, err := formFile(c, "image")
	defer done()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	w, err := wc.workshops.Create(c.Context(), c.Identity().CustomerID, in, image)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(w)
}

func (wc *WorkshopController) Update(c *ctx.Context) {
	id, ok := paramID(c, "id", "Workshop")
	if !ok {
		return
	}
	var in services.WorkshopInput
	if !c.BindForm(&in) {
		return
	}
	image, done, err := formFile(c, "image")
	defer done()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	w, err := wc.workshops.Update(c.Context(), id, in, image)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(w)
}

func (wc *WorkshopController) Delete(c *ctx.Context) {
	id, ok := paramID(c, "id", "Workshop")
	if !ok {
		return
	}
	if err := wc.workshops.Delete(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}
