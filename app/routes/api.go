package routes

import (
	"github.com/shashiranjanraj/wellness360/app/controllers"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
	"github.com/shashiranjanraj/wellness360/pkg/rbac"
	"github.com/shashiranjanraj/wellness360/pkg/router"
)

// RegisterAPI mounts the JSON API under /api.
func RegisterAPI(r *router.Router, a *App) {
	var (
		authC      = controllers.NewAuthController(a.Auth)
		shopC      = controllers.NewShopController(a.Catalog)
		cartC      = controllers.NewCartController(a.Cart)
		wishlistC  = controllers.NewWishlistController(a.Wishlist)
		checkoutC  = controllers.NewCheckoutController(a.Checkout)
		orderC     = controllers.NewOrderController(a.Orders)
		articleC   = controllers.NewArticleController(a.Articles)
		communityC = controllers.NewCommunityController(a.Community)
		workshopC  = controllers.NewWorkshopController(a.Workshops)
		catalogC   = controllers.NewCatalogAdminController(a.Catalog)
		importC    = controllers.NewImportController(a.Importer)
		userC      = controllers.NewUserAdminController(a.Users)
	)
	w := ctx.Wrap

	api := r.Group("/api")
	api.Get("/csrf-token", "csrf.token", w(authC.CSRFToken))

	guest := api.Group("/auth", rbac.Guest)
	guest.Post("/register", "auth.register", w(authC.Register))
	guest.Post("/login", "auth.login", w(authC.Login))
	api.Post("/auth/refresh", "auth.refresh", w(authC.Refresh))

	// Public catalog and content.
	api.Get("/shop", "shop.index", w(shopC.Index))
	api.Get("/products", "products.index", w(shopC.Products))
	api.Get("/products/{id}", "products.show", w(shopC.Product))
	api.Get("/categories", "categories.index", w(shopC.Categories))
	api.Get("/vendors", "vendors.index", w(shopC.Vendors))

	api.Get("/cart", "cart.show", w(cartC.Show))
	api.Post("/cart", "cart.add", w(cartC.Add))
	api.Put("/cart/{product_id}", "cart.update", w(cartC.Update))
	api.Delete("/cart/{product_id}", "cart.remove", w(cartC.Remove))
	api.Delete("/cart", "cart.clear", w(cartC.Clear))

	api.Get("/hub", "hub.index", w(articleC.Hub))
	api.Get("/articles", "articles.index", w(articleC.Index))
	api.Get("/articles/{id}", "articles.show", w(articleC.Show))
	api.Get("/articles/{id}/pdf", "articles.pdf", w(articleC.PDF))

	api.Get("/community", "community.index", w(communityC.Index))
	api.Get("/discussions", "discussions.index", w(communityC.Discussions))
	api.Get("/discussions/{id}", "discussions.show", w(communityC.Discussion))
	api.Get("/workshops", "workshops.index", w(workshopC.Index))
	api.Get("/workshops/{id}", "workshops.show", w(workshopC.Show))

	// Customer.
	me := api.Group("", rbac.RequireLogin)
	me.Post("/auth/logout", "auth.logout", w(authC.Logout))
	me.Get("/auth/me", "auth.me", w(authC.Me))
	me.Put("/profile", "profile.update", w(authC.UpdateProfile))
	me.Post("/profile/image", "profile.image", w(authC.UploadImage))

	me.Get("/wishlist", "wishlist.index", w(wishlistC.Index))
	me.Post("/wishlist", "wishlist.add", w(wishlistC.Add))
	me.Delete("/wishlist/{product_id}", "wishlist.remove", w(wishlistC.Remove))

	me.Post("/checkout/paystack/initialize", "checkout.initialize", w(checkoutC.Initialize))
	me.Post("/checkout/paystack/verify", "checkout.verify", w(checkoutC.Verify))
	me.Get("/orders", "orders.index", w(orderC.Index))
	me.Get("/orders/{id}", "orders.show", w(orderC.Show))

	me.Post("/discussions", "discussions.store", w(communityC.Start))
	me.Post("/discussions/{id}/replies", "discussions.reply", w(communityC.Reply))
	me.Delete("/discussions/{id}", "discussions.destroy", w(communityC.Delete))
	me.Post("/workshops/{id}/register", "workshops.register", w(workshopC.Register))
	me.Delete("/workshops/{id}/register", "workshops.unregister", w(workshopC.Unregister))
	me.Get("/my/workshops", "workshops.mine", w(workshopC.Mine))

	// Back-office.
	admin := api.Group("/admin", rbac.RequireAdmin)
	admin.Post("/products", "admin.products.store", w(catalogC.CreateProduct))
	admin.Put("/products/{id}", "admin.products.update", w(catalogC.UpdateProduct))
	admin.Delete("/products/{id}", "admin.products.destroy", w(catalogC.DeleteProduct))
	admin.Post("/products/{id}/image", "admin.products.image", w(catalogC.ProductImage))
	admin.Post("/products/bulk-upload", "admin.products.bulk", w(importC.Upload))
	admin.Get("/products/bulk-template", "admin.products.template", w(importC.Template))
	admin.Get("/products/export", "admin.products.export", w(importC.Export))
	admin.Get("/imports", "admin.imports.index", w(importC.Reports))

	admin.Post("/categories", "admin.categories.store", w(catalogC.CreateCategory))
	admin.Put("/categories/{id}", "admin.categories.update", w(catalogC.RenameCategory))
	admin.Delete("/categories/{id}", "admin.categories.destroy", w(catalogC.DeleteCategory))
	admin.Post("/vendors", "admin.vendors.store", w(catalogC.CreateVendor))
	admin.Put("/vendors/{id}", "admin.vendors.update", w(catalogC.UpdateVendor))
	admin.Delete("/vendors/{id}", "admin.vendors.destroy", w(catalogC.DeleteVendor))

	admin.Post("/articles", "admin.articles.store", w(articleC.Create))
	admin.Put("/articles/{id}", "admin.articles.update", w(articleC.Update))
	admin.Delete("/articles/{id}", "admin.articles.destroy", w(articleC.Delete))
	admin.Post("/workshops", "admin.workshops.store", w(workshopC.Create))
	admin.Put("/workshops/{id}", "admin.workshops.update", w(workshopC.Update))
	admin.Delete("/workshops/{id}", "admin.workshops.destroy", w(workshopC.Delete))

	admin.Get("/users", "admin.users.index", w(userC.Index))
	admin.Put("/users/{id}/role", "admin.users.role", w(userC.SetRole))
	admin.Delete("/users/{id}", "admin.users.destroy", w(userC.Delete))
	admin.Get("/orders", "admin.orders.index", w(orderC.AdminIndex))
	admin.Put("/orders/{id}/status", "admin.orders.status", w(orderC.SetStatus))
}
