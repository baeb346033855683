package routes

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

// App is the service graph shared by the HTTP routes, the views and the
// CLI commands.
type App struct {
	Auth        *services.AuthService
	Cart        *services.CartService
	Catalog     *services.CatalogService
	Checkout    *services.CheckoutService
	Orders      *services.OrderService
	Users       *services.UserService
	Wishlist    *services.WishlistService
	Articles    *services.ArticleService
	Workshops   *services.WorkshopService
	Community   *services.CommunityService
	Importer    *services.Importer
	Maintenance *services.Maintenance
}

// Wire builds every repository and service on db.
func Wire(db *gorm.DB, disk func() storage.Disk, reports repositories.ImportReportStore, gw services.Gateway) *App {
	var (
		categories = repositories.NewCategoryRepository(db)
		vendors    = repositories.NewVendorRepository(db)
		products   = repositories.NewProductRepository(db)
		carts      = repositories.NewCartRepository(db)
		orders     = repositories.NewOrderRepository(db)
		customers  = repositories.NewCustomerRepository(db)
		articles   = repositories.NewArticleRepository(db)
		community  = repositories.NewCommunityRepository(db)
		workshops  = repositories.NewWorkshopRepository(db)
		wishlist   = repositories.NewWishlistRepository(db)
	)
	cart := services.NewCartService(carts, products)
	ws := services.NewWorkshopService(workshops, disk)
	return &App{
		Auth:        services.NewAuthService(customers, cart, disk),
		Cart:        cart,
		Catalog:     services.NewCatalogService(categories, vendors, products, disk),
		Checkout:    services.NewCheckoutService(cart, carts, orders, products, gw),
		Orders:      services.NewOrderService(orders),
		Users:       services.NewUserService(customers),
		Wishlist:    services.NewWishlistService(wishlist, products),
		Articles:    services.NewArticleService(articles, categories, disk),
		Workshops:   ws,
		Community:   services.NewCommunityService(community, ws),
		Importer:    services.NewImporter(categories, vendors, products, reports, disk),
		Maintenance: services.NewMaintenance(carts),
	}
}
