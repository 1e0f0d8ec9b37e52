// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront-labs/storefront-api/internal/domain/cart"
	"github.com/storefront-labs/storefront-api/internal/domain/order"
	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

const cartOwnerConstraint = "chk_carts_single_owner"

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// Catalog
		&product.Category{},
		&product.Product{},

		// Vouchers
		&voucher.Voucher{},

		// Carts
		&cart.Cart{},
		&cart.CartItem{},

		// Orders
		&order.Order{},
		&order.OrderItem{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return errors.Wrapf(err, "migrate model %T", model)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates the indexes and constraints AutoMigrate cannot express
func (m *Migration) CreateIndexes() error {
	m.log.Info("Creating additional database indexes")

	indexes := []string{
		// Catalog listings
		"CREATE INDEX IF NOT EXISTS idx_products_listing ON products(status, in_stock)",
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order)",

		// Order history
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",

		// Vouchers
		"CREATE INDEX IF NOT EXISTS idx_vouchers_active ON vouchers(is_active, expires_at)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("Failed to create index")
			failed++
		}
	}

	if !m.db.Migrator().HasConstraint(&cart.Cart{}, cartOwnerConstraint) {
		sql := "ALTER TABLE carts ADD CONSTRAINT " + cartOwnerConstraint +
			" CHECK ((user_id IS NULL) <> (session_id IS NULL))"
		if err := m.db.Exec(sql).Error; err != nil {
			return errors.Wrap(err, "add cart owner constraint")
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Database indexes created")
	return nil
}

// SeedInitialData inserts the demo catalog and the standard vouchers.
// Existing rows are left untouched.
func (m *Migration) SeedInitialData() error {
	m.log.Info("Seeding initial data")

	if err := m.seedCategories(); err != nil {
		return errors.Wrap(err, "seed categories")
	}
	if err := m.seedProducts(); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := m.seedVouchers(); err != nil {
		return errors.Wrap(err, "seed vouchers")
	}

	m.log.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedCategories() error {
	categories := []product.Category{
		{Name: "Electronics", Slug: "electronics", Description: "Devices, gadgets and accessories", SortOrder: 1, IsActive: true},
		{Name: "Clothing", Slug: "clothing", Description: "Apparel and accessories", SortOrder: 2, IsActive: true},
		{Name: "Books", Slug: "books", Description: "Books and educational material", SortOrder: 3, IsActive: true},
		{Name: "Home & Garden", Slug: "home-garden", Description: "Furniture, decor and garden supplies", SortOrder: 4, IsActive: true},
	}

	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&categories).Error
}

func (m *Migration) seedProducts() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.Debug("Products already seeded")
		return nil
	}

	bySlug := map[string]uint{}
	var categories []product.Category
	if err := m.db.Find(&categories).Error; err != nil {
		return err
	}
	for _, c := range categories {
		bySlug[c.Slug] = c.ID
	}
	category := func(slug string) *uint {
		if id, ok := bySlug[slug]; ok {
			return &id
		}
		return nil
	}

	products := []product.Product{
		{
			CategoryID:       category("electronics"),
			Name:             "Wireless Headphones",
			Slug:             "wireless-headphones",
			SKU:              "ELEC-HEAD-001",
			ShortDescription: "Noise-cancelling over-ear headphones",
			Price:            decimal.RequireFromString("159.99"),
			SalePrice:        decimal.NewNullDecimal(decimal.RequireFromString("129.99")),
			StockQuantity:    30,
			ManageStock:      true,
			InStock:          true,
			Status:           product.StatusPublished,
			IsFeatured:       true,
		},
		{
			CategoryID:       category("electronics"),
			Name:             "Wireless Mouse",
			Slug:             "wireless-mouse",
			SKU:              "ELEC-MOUSE-001",
			ShortDescription: "Ergonomic mouse with a precision sensor",
			Price:            decimal.RequireFromString("29.99"),
			StockQuantity:    50,
			ManageStock:      true,
			InStock:          true,
			Status:           product.StatusPublished,
		},
		{
			CategoryID:       category("clothing"),
			Name:             "Organic Cotton T-Shirt",
			Slug:             "organic-cotton-t-shirt",
			SKU:              "CLTH-TEE-001",
			ShortDescription: "Soft everyday tee",
			Price:            decimal.RequireFromString("24.00"),
			StockQuantity:    100,
			ManageStock:      true,
			InStock:          true,
			Status:           product.StatusPublished,
			IsFeatured:       true,
		},
		{
			CategoryID:       category("books"),
			Name:             "The Go Programming Language",
			Slug:             "the-go-programming-language",
			SKU:              "BOOK-GO-001",
			ShortDescription: "The classic introduction to Go",
			Price:            decimal.RequireFromString("39.50"),
			StockQuantity:    20,
			ManageStock:      true,
			InStock:          true,
			Status:           product.StatusPublished,
		},
		{
			CategoryID:       category("home-garden"),
			Name:             "Ceramic Planter",
			Slug:             "ceramic-planter",
			SKU:              "HOME-PLNT-001",
			ShortDescription: "Glazed planter with drainage tray",
			Price:            decimal.RequireFromString("18.75"),
			StockQuantity:    0,
			ManageStock:      true,
			InStock:          false,
			Status:           product.StatusPublished,
		},
	}

	if err := m.db.Create(&products).Error; err != nil {
		return err
	}

	m.log.WithField("count", len(products)).Info("Seeded products")
	return nil
}

func (m *Migration) seedVouchers() error {
	limit := 100
	vouchers := []voucher.Voucher{
		{
			Code:          "WELCOME10",
			Name:          "Welcome discount",
			Description:   "10% off your first order over $50",
			Type:          voucher.TypePercentage,
			Value:         decimal.NewFromInt(10),
			MinimumAmount: decimal.NewNullDecimal(decimal.NewFromInt(50)),
			IsActive:      true,
		},
		{
			Code:          "SAVE20",
			Name:          "Save $20",
			Description:   "$20 off orders over $100",
			Type:          voucher.TypeFixed,
			Value:         decimal.NewFromInt(20),
			MinimumAmount: decimal.NewNullDecimal(decimal.NewFromInt(100)),
			IsActive:      true,
		},
		{
			Code:        "FREESHIP",
			Name:        "Shipping on us",
			Description: "$10 off to cover shipping",
			Type:        voucher.TypeFixed,
			Value:       decimal.NewFromInt(10),
			IsActive:    true,
		},
		{
			Code:            "BIGSPENDER",
			Name:            "Big spender",
			Description:     "15% off orders over $200, up to $50",
			Type:            voucher.TypePercentage,
			Value:           decimal.NewFromInt(15),
			MinimumAmount:   decimal.NewNullDecimal(decimal.NewFromInt(200)),
			MaximumDiscount: decimal.NewNullDecimal(decimal.NewFromInt(50)),
			UsageLimit:      &limit,
			IsActive:        true,
		},
	}

	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&vouchers).Error
}

// GetTableInfo logs the row count of every table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			m.log.WithError(err).WithField("table", table).Warn("Failed to count rows")
			continue
		}
		m.log.WithFields(logrus.Fields{"table": table, "rows": count}).Debug("Table info")
	}

	return nil
}
