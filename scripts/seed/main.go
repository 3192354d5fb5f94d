package main

import (
	"context"
	"fmt"
	"log"
	"maps"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zepto-insights/dashboard/internal/app"
	"github.com/zepto-insights/dashboard/internal/platform/db"
)

var catalogue = map[string][]string{
	"Fruits & Vegetables":          {"Onion", "Tomato", "Banana", "Apple Shimla", "Coriander Leaves", "Potato"},
	"Dairy, Bread & Eggs":          {"Amul Taaza Milk", "Brown Bread", "Farm Eggs", "Paneer", "Salted Butter"},
	"Munchies":                     {"Lays Classic Salted", "Kurkure Masala Munch", "Bingo Mad Angles", "Haldiram Bhujia"},
	"Cooking Essentials":           {"Fortune Sunflower Oil", "Tata Salt", "Aashirvaad Atta", "Toor Dal", "Basmati Rice"},
	"Cold Drinks & Juices":         {"Coca-Cola", "Real Mixed Fruit Juice", "Sprite", "Paper Boat Aamras"},
	"Packaged Food":                {"Maggi Masala Noodles", "Kelloggs Corn Flakes", "MTR Poha", "Knorr Tomato Soup"},
	"Chocolates & Candies":         {"Dairy Milk Silk", "KitKat", "Ferrero Rocher", "Cadbury Gems"},
	"Home & Cleaning":              {"Surf Excel Matic", "Vim Dishwash Gel", "Harpic", "Lizol Floor Cleaner"},
	"Personal Care":                {"Dove Shampoo", "Colgate MaxFresh", "Nivea Body Lotion", "Dettol Handwash"},
	"Health & Hygiene":             {"Whisper Ultra", "Savlon Antiseptic", "Band-Aid", "Vicks VapoRub"},
	"Biscuits":                     {"Parle-G", "Good Day Cashew", "Oreo", "Marie Gold"},
	"Meats, Fish & Eggs":           {"Chicken Curry Cut", "Rohu Fish", "Mutton Boneless"},
	"Paan Corner":                  {"Rajnigandha", "Pass Pass", "Mukhwas"},
	"Ice Creams & Frozen Desserts": {"Amul Vanilla", "Kwality Walls Cornetto", "Havmor Kulfi"},
}

const createTable = `CREATE TABLE IF NOT EXISTS %s (
	sku_id SERIAL PRIMARY KEY,
	category VARCHAR(120),
	name VARCHAR(150) NOT NULL,
	mrp NUMERIC(8,2),
	discountPercent NUMERIC(5,2),
	available_quantity INTEGER,
	discountedSellingPrice NUMERIC(8,2),
	weightInGms INTEGER,
	outOfStock BOOLEAN,
	quantity INTEGER
)`

type product struct {
	category   string
	name       string
	mrp        float64
	discount   float64
	available  int32
	price      float64
	weightGms  int32
	outOfStock bool
	quantity   int32
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DBDriver != app.DriverPgx && cfg.DBDriver != app.DriverPostgres {
		log.Fatalf("seed supports postgres only, DB_DRIVER=%s", cfg.DBDriver)
	}
	copies := 12
	if v := os.Getenv("SEED_COPIES"); v != "" {
		if copies, err = strconv.Atoi(v); err != nil || copies <= 0 {
			log.Fatalf("SEED_COPIES must be a positive integer")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	pool, err := db.New(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	products := generate(copies, rand.New(rand.NewPCG(42, 2024)))
	table := pgx.Identifier{cfg.ProductTable}

	fmt.Printf("→ Seeding %s with %d products...\n", cfg.ProductTable, len(products))
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf(createTable, table.Sanitize())); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		if _, err := tx.Exec(ctx, "TRUNCATE "+table.Sanitize()+" RESTART IDENTITY"); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
		rows := make([][]any, 0, len(products))
		for _, p := range products {
			rows = append(rows, []any{p.category, p.name, p.mrp, p.discount, p.available, p.price, p.weightGms, p.outOfStock, p.quantity})
		}
		_, err := tx.CopyFrom(ctx, table,
			[]string{"category", "name", "mrp", "discountpercent", "available_quantity", "discountedsellingprice", "weightingms", "outofstock", "quantity"},
			pgx.CopyFromRows(rows))
		return err
	})
	if err != nil {
		log.Fatalf("seed products: %v", err)
	}
	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// generate produces copies rows per catalogue item with reproducible prices,
// discounts and stock levels.
func generate(copies int, rng *rand.Rand) []product {
	out := make([]product, 0, copies*64)
	for _, category := range slices.Sorted(maps.Keys(catalogue)) {
		for _, name := range catalogue[category] {
			for i := 0; i < copies; i++ {
				mrp := float64(20 + rng.IntN(980))
				discount := float64(rng.IntN(51))
				available := int32(rng.IntN(8))
				if rng.IntN(5) == 0 {
					available = 0
				}
				out = append(out, product{
					category:   category,
					name:       name,
					mrp:        mrp,
					discount:   discount,
					available:  available,
					price:      math.Round(mrp*(100-discount)) / 100,
					weightGms:  int32(50 * (1 + rng.IntN(40))),
					outOfStock: available == 0,
					quantity:   int32(1 + rng.IntN(3)),
				})
			}
		}
	}
	return out
}
