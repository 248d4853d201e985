package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"mercado/internal/catalog"
	"mercado/internal/config"
	"mercado/internal/database"
	"mercado/internal/handlers"
	"mercado/internal/ledger"
	"mercado/internal/middleware"
	"mercado/internal/refdata"
	"mercado/internal/resolver"
	"mercado/internal/sales"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureSalesIndexes(db); err != nil {
		log.Printf("sales index warning: %v", err)
	}

	ref, err := refdata.Load(config.AppEnv.ReferenceDataPath)
	if err != nil {
		log.Fatal("reference data: ", err)
	}

	cat := catalog.NewMongoCatalog(db, config.AppEnv.LookupTimeout)
	res := resolver.New(cat, cat, ref, config.AppEnv.ResolveQueryBudget, config.AppEnv.SearchLimit)
	book := ledger.New(config.AppEnv.SessionTTL)
	defer book.Close()
	store := sales.NewStore(db, config.AppEnv.LookupTimeout)

	r := gin.Default()

	tools := r.Group("/tools")
	tools.Use(middleware.ServiceAuth(config.AppEnv.ServiceJWTSecret))
	{
		tools.GET("/products", handlers.SearchProducts(db, cat, config.AppEnv.SearchLimit))
		tools.POST("/resolve", handlers.ResolveItem(db, res))
		tools.POST("/resolve-batch", handlers.ResolveBatch(db, res))

		tools.POST("/items", handlers.AddItem(book, ref))
		tools.DELETE("/items", handlers.RemoveItem(book))
		tools.GET("/orders/:sessionId", handlers.GetOrder(book))
		tools.POST("/orders/:sessionId/reset", handlers.ResetOrder(book))
		tools.POST("/orders/:sessionId/close", handlers.CloseOrder(book))

		tools.POST("/total", handlers.ComputeTotal(book))
		tools.POST("/address", handlers.SaveAddress(book))
		tools.POST("/payment", handlers.DeclarePayment(book))
		tools.POST("/finalize", handlers.FinalizeOrder(db, book, store))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.ServiceAuth(config.AppEnv.ServiceJWTSecret))
	{
		admin.POST("/products", handlers.UpsertProduct(db, ref))
		admin.PUT("/products/:ean", handlers.UpdateProduct(db, ref))
		admin.GET("/sales", handlers.GetSales(db, store))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
