package routes

import (
	"github.com/shashiranjanraj/wellness360/app/controllers"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
	"github.com/shashiranjanraj/wellness360/pkg/graphql"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/router"
)

// RegisterWeb mounts the HTML views and the read-only GraphQL endpoint.
func RegisterWeb(r *router.Router, a *App) {
	pages := controllers.NewPageController(a.Catalog, a.Articles, a.Community)
	r.Get("/", "web.shop", ctx.Wrap(pages.Shop))
	r.Get("/products/{id}", "web.product", ctx.Wrap(pages.Product))
	r.Get("/hub", "web.hub", ctx.Wrap(pages.Hub))
	r.Get("/community", "web.community", ctx.Wrap(pages.Community))

	schema, err := GraphQLSchema(a)
	if err != nil {
		logger.Error("graphql schema disabled", "error", err)
		return
	}
	h := graphql.Handler(schema)
	r.Get("/graphql", "graphql.query", h)
	r.Post("/graphql", "graphql", h)
}
