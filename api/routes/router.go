package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clearstock/supplychain-backend/api/controllers"
	"github.com/clearstock/supplychain-backend/api/middleware"
	"github.com/clearstock/supplychain-backend/internal/inventory"
	"github.com/clearstock/supplychain-backend/internal/orders"
	"github.com/clearstock/supplychain-backend/internal/products"
	"github.com/clearstock/supplychain-backend/internal/suppliers"
	"github.com/clearstock/supplychain-backend/internal/warehouses"
	"github.com/clearstock/supplychain-backend/pkg/config"
	"github.com/clearstock/supplychain-backend/pkg/logger"
	"github.com/clearstock/supplychain-backend/pkg/metrics"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the wired domain services the router exposes.
type Services struct {
	Products   products.Service
	Suppliers  suppliers.Service
	Warehouses warehouses.Service
	Inventory  inventory.Service
	Orders     orders.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP dbPinger,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware())
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.CreateSupplier(svcs.Suppliers, logg))
			r.Get("/", controllers.ListSuppliers(svcs.Suppliers, logg))
			r.Route("/{supplierID}", func(r chi.Router) {
				r.Get("/", controllers.GetSupplier(svcs.Suppliers, logg))
				r.Put("/", controllers.UpdateSupplier(svcs.Suppliers, logg))
				r.Delete("/", controllers.DeleteSupplier(svcs.Suppliers, logg))
				r.Get("/products", controllers.ListProductsBySupplier(svcs.Products, logg))
				r.Get("/orders", controllers.ListOrdersBySupplier(svcs.Orders, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(svcs.Products, logg))
			r.Get("/", controllers.ListProducts(svcs.Products, logg))
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(svcs.Products, logg))
				r.Put("/", controllers.UpdateProduct(svcs.Products, logg))
				r.Delete("/", controllers.DeleteProduct(svcs.Products, logg))
			})
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Post("/", controllers.CreateWarehouse(svcs.Warehouses, logg))
			r.Get("/", controllers.ListWarehouses(svcs.Warehouses, logg))
			r.Route("/{warehouseID}", func(r chi.Router) {
				r.Get("/", controllers.GetWarehouse(svcs.Warehouses, logg))
				r.Put("/", controllers.UpdateWarehouse(svcs.Warehouses, logg))
				r.Delete("/", controllers.DeleteWarehouse(svcs.Warehouses, logg))
				r.Get("/stats", controllers.GetWarehouseStats(svcs.Warehouses, logg))
				r.Get("/inventory", controllers.ListInventoryByWarehouse(svcs.Inventory, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/", controllers.AddInventory(svcs.Inventory, logg))
			r.Get("/", controllers.ListInventory(svcs.Inventory, logg))
			r.Get("/low-stock", controllers.ListLowStock(svcs.Inventory, logg))
			r.Post("/reserve", controllers.ReserveStock(svcs.Inventory, logg))
			r.Post("/release", controllers.ReleaseStock(svcs.Inventory, logg))
			r.Route("/{inventoryID}", func(r chi.Router) {
				r.Get("/", controllers.GetInventoryItem(svcs.Inventory, logg))
				r.Post("/adjust", controllers.AdjustStock(svcs.Inventory, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/pending", controllers.ListPendingOrders(svcs.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(svcs.Orders, logg))
				r.Patch("/status", controllers.UpdateOrderStatus(svcs.Orders, logg))
				r.Post("/cancel", controllers.CancelOrder(svcs.Orders, logg))
				r.Get("/total", controllers.GetOrderTotal(svcs.Orders, logg))
				r.Post("/shipment", controllers.CreateShipment(svcs.Orders, logg))
			})
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Patch("/{shipmentID}/status", controllers.UpdateShipmentStatus(svcs.Orders, logg))
		})
	})

	return r
}
