package routes

import (
	"time"

	gql "github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/graphql"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

const graphqlMaxLimit = 50

func money(p gql.ResolveParams) (any, error) {
	switch v := p.Source.(type) {
	case models.Product:
		return v.Price.StringFixed(2), nil
	case *models.Product:
		return v.Price.StringFixed(2), nil
	}
	return decimal.Zero.StringFixed(2), nil
}

func stamp(get func(any) time.Time) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (any, error) { return get(p.Source).Format(time.RFC3339), nil }
}

func limitArg(p gql.ResolveParams, def int) int {
	n, ok := p.Args["limit"].(int)
	if !ok || n <= 0 {
		return def
	}
	return min(n, graphqlMaxLimit)
}

// GraphQLSchema exposes the public catalog, articles and workshops.
func GraphQLSchema(a *App) (gql.Schema, error) {
	category := gql.NewObject(gql.ObjectConfig{
		Name: "Category",
		Fields: gql.Fields{
			"id":            &gql.Field{Type: gql.Int},
			"name":          &gql.Field{Type: gql.String},
			"product_count": &gql.Field{Type: gql.Int},
		},
	})
	vendor := gql.NewObject(gql.ObjectConfig{
		Name: "Vendor",
		Fields: gql.Fields{
			"id":   &gql.Field{Type: gql.Int},
			"name": &gql.Field{Type: gql.String},
		},
	})
	product := gql.NewObject(gql.ObjectConfig{
		Name: "Product",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.Int},
			"title":       &gql.Field{Type: gql.String},
			"price":       &gql.Field{Type: gql.String, Resolve: money},
			"description": &gql.Field{Type: gql.String},
			"keywords":    &gql.Field{Type: gql.String},
			"image_path":  &gql.Field{Type: gql.String},
			"stock":       &gql.Field{Type: gql.Int},
			"category_id": &gql.Field{Type: gql.Int},
			"category":    &gql.Field{Type: category},
			"vendor":      &gql.Field{Type: vendor},
		},
	})
	article := gql.NewObject(gql.ObjectConfig{
		Name: "Article",
		Fields: gql.Fields{
			"id":         &gql.Field{Type: gql.Int},
			"title":      &gql.Field{Type: gql.String},
			"slug":       &gql.Field{Type: gql.String},
			"author":     &gql.Field{Type: gql.String},
			"view_count": &gql.Field{Type: gql.Int},
			"created_at": &gql.Field{Type: gql.String, Resolve: stamp(func(s any) time.Time { return s.(models.Article).CreatedAt })},
		},
	})
	workshop := gql.NewObject(gql.ObjectConfig{
		Name: "Workshop",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.Int},
			"title":       &gql.Field{Type: gql.String},
			"description": &gql.Field{Type: gql.String},
			"location":    &gql.Field{Type: gql.String},
			"capacity":    &gql.Field{Type: gql.Int},
			"registered":  &gql.Field{Type: gql.Int},
			"seats_left":  &gql.Field{Type: gql.Int},
			"starts_at":   &gql.Field{Type: gql.String, Resolve: stamp(func(s any) time.Time { return s.(models.Workshop).StartsAt })},
		},
	})

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"products": &gql.Field{
				Type: gql.NewList(product),
				Args: gql.FieldConfigArgument{
					"q":          &gql.ArgumentConfig{Type: gql.String},
					"categoryId": &gql.ArgumentConfig{Type: gql.Int},
					"limit":      &gql.ArgumentConfig{Type: gql.Int},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					f := repositories.ProductFilter{Sort: "newest"}
					f.Query, _ = p.Args["q"].(string)
					if id, ok := p.Args["categoryId"].(int); ok && id > 0 {
						f.CategoryID = uint(id)
					}
					items, _, err := a.Catalog.Products(p.Context, f, orm.NewPage(1, limitArg(p, orm.DefaultPerPage)))
					return items, err
				},
			},
			"product": &gql.Field{
				Type: product,
				Args: gql.FieldConfigArgument{"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Int)}},
				Resolve: func(p gql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, nil
					}
					d, err := a.Catalog.Product(p.Context, uint(id))
					if err != nil {
						return nil, err
					}
					return d.Product, nil
				},
			},
			"categories": &gql.Field{
				Type: gql.NewList(category),
				Resolve: func(p gql.ResolveParams) (any, error) {
					return a.Catalog.Categories(p.Context)
				},
			},
			"articles": &gql.Field{
				Type: gql.NewList(article),
				Args: gql.FieldConfigArgument{"limit": &gql.ArgumentConfig{Type: gql.Int}},
				Resolve: func(p gql.ResolveParams) (any, error) {
					items, _, err := a.Articles.Search(p.Context, "", 0, orm.NewPage(1, limitArg(p, 10)))
					return items, err
				},
			},
			"workshops": &gql.Field{
				Type: gql.NewList(workshop),
				Resolve: func(p gql.ResolveParams) (any, error) {
					return a.Workshops.List(p.Context, auth.Identity{})
				},
			},
		},
	})
	return graphql.NewSchema(query)
}
