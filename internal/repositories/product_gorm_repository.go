package repositories

import (
	"errors"
	"fmt"

	"webstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// productRow is the stored form of a product. Position records insertion
// order so every driver lists the catalog the same way the in-memory
// repository does.
type productRow struct {
	ID       string  `gorm:"primaryKey;type:varchar(64)"`
	Name     string  `gorm:"type:varchar(255);not null"`
	Price    float64 `gorm:"not null"`
	Position int64   `gorm:"not null;index"`
}

func (productRow) TableName() string { return "products" }

func (row productRow) toModel() models.Product {
	return models.Product{ID: models.ProductID(row.ID), Name: row.Name, Price: row.Price}
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Migrate creates or updates the products table.
func (r *GORMProductRepository) Migrate() error {
	if err := r.db.AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("failed to migrate products table: %w", err)
	}
	return nil
}

// GetAll retrieves all products from the database in insertion order.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var rows []productRow
	if err := r.db.Order("position").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id models.ProductID) (*models.Product, error) {
	var row productRow
	if err := r.db.First(&row, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	product := row.toModel()
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = models.ProductID(uuid.New().String())
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&productRow{}).Select("COALESCE(MAX(position), 0)").Scan(&last).Error; err != nil {
			return err
		}
		return tx.Create(&productRow{
			ID:       string(product.ID),
			Name:     product.Name,
			Price:    product.Price,
			Position: last + 1,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}
