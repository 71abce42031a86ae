package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/coupon"
	"github.com/noah-isme/backend-pos/internal/repo"
	"github.com/noah-isme/backend-pos/internal/settings"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		log.Fatal("FIRESTORE_PROJECT_ID is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := repo.NewClient(ctx, projectID, os.Getenv("FIRESTORE_CREDENTIALS_FILE"))
	if err != nil {
		log.Fatalf("Failed to connect to Firestore: %v", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping Firestore: %v", err)
	}

	seedSettings(ctx, &repo.Settings{Client: client.FS})
	seedProducts(ctx, &repo.Products{Client: client.FS})
	seedCoupons(ctx, &repo.Coupons{Client: client.FS})

	log.Println("Seeding completed successfully!")
}

func seedSettings(ctx context.Context, store *repo.Settings) {
	log.Println("Seeding store settings...")
	st := settings.Store{
		StoreName:      "Corner Mart",
		Address:        "12 Market Street",
		Phone:          "+91 98765 43210",
		CurrencyCode:   "INR",
		CurrencySymbol: "₹",
		TaxPercent:     18,
		PrinterEnabled: false,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := store.SaveSettings(ctx, st); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}
}

func seedProducts(ctx context.Context, store *repo.Products) {
	existing, err := store.ListProducts(ctx)
	if err != nil {
		log.Fatalf("Failed to list products: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("Products already present (%d), skipping", len(existing))
		return
	}

	log.Println("Seeding products...")
	products := []catalog.Product{
		{Title: "Basmati Rice 1kg", Price: 120, Category: "Grocery", Stock: 50, MinStock: 10},
		{Title: "Sunflower Oil 1L", Price: 150, Category: "Grocery", Stock: 30, MinStock: 5},
		{Title: "Milk 500ml", Price: 28, Category: "Dairy", Stock: 60, MinStock: 12},
		{Title: "Paneer", Price: 400, Category: "Dairy", Stock: 0, MinStock: 0, SoldByWeight: true},
		{Title: "Loose Sugar", Price: 45, Category: "Grocery", Stock: 0, MinStock: 0, SoldByWeight: true},
		{Title: "Toothpaste 100g", Price: 95, Category: "Personal Care", Stock: 25, MinStock: 5},
		{Title: "Detergent Bar", Price: 32, Category: "Household", Stock: 40, MinStock: 8},
		{Title: "Tea 250g", Price: 140, Category: "Beverages", Stock: 20, MinStock: 4},
	}
	for _, p := range products {
		created, err := store.CreateProduct(ctx, p)
		if err != nil {
			log.Fatalf("Failed to seed product %q: %v", p.Title, err)
		}
		log.Printf("  %s (%s)", created.Title, created.ID)
	}
}

func seedCoupons(ctx context.Context, store *repo.Coupons) {
	existing, err := store.ListCoupons(ctx)
	if err != nil {
		log.Fatalf("Failed to list coupons: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("Coupons already present (%d), skipping", len(existing))
		return
	}

	log.Println("Seeding coupons...")
	coupons := []coupon.Coupon{
		{Code: "WELCOME10", Type: coupon.Percentage, Value: 10, MinPurchase: 200, MaxDiscount: 100, IsActive: true},
		{Code: "FLAT50", Type: coupon.Fixed, Value: 50, MinPurchase: 500, IsActive: true},
		{Code: "FESTIVE25", Type: coupon.Percentage, Value: 25, MinPurchase: 1000, MaxDiscount: 500, IsActive: true},
	}
	for _, c := range coupons {
		created, err := store.CreateCoupon(ctx, c)
		if err != nil {
			log.Fatalf("Failed to seed coupon %q: %v", c.Code, err)
		}
		log.Printf("  %s (%s)", created.Code, created.ID)
	}
}
