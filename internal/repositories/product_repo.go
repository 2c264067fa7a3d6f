package repositories

import (
	"errors"

	"webstore/internal/models"
)

// ErrProductNotFound is returned when no product matches the requested ID.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id models.ProductID) (*models.Product, error)
	Create(product *models.Product) error
}

// Seed inserts products into an empty repository. A repository that already
// holds products is left untouched.
func Seed(repo ProductRepository, products []models.Product) (int, error) {
	existing, err := repo.GetAll()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			return i, err
		}
	}
	return len(products), nil
}
