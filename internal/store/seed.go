package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/core/bootstrap"
	"github.com/m3rciful/shopbot/internal/shop"
)

// DemoCatalog is inserted by the demo seeder.
var DemoCatalog = []shop.ProductDraft{
	{Name: "Blue T-Shirt", Description: "Cotton tee, regular fit", Price: 1999, Category: "Clothes", ImagePath: "https://picsum.photos/seed/blue/600/400"},
	{Name: "Red Hoodie", Description: "Warm fleece hoodie", Price: 4599, Category: "Clothes", ImagePath: "https://picsum.photos/seed/red/600/400"},
	{Name: "Sneakers", Description: "Everyday running shoes", Price: 6999, Category: "Shoes"},
	{Name: "Figure", Description: "A cool figure", Price: 1999, Category: "Figures"},
}

// DemoSeeder fills an empty catalog with DemoCatalog. A catalog that already
// has products is left alone.
func DemoSeeder() bootstrap.Seeder {
	return bootstrap.SeederFunc{Label: "demo_catalog", Fn: seedDemo}
}

func seedDemo(ctx context.Context, db *sqlx.DB) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	s := New(db)
	for i, d := range DemoCatalog {
		if _, err := s.CreateProduct(ctx, d); err != nil {
			return i, err
		}
	}
	return len(DemoCatalog), nil
}
