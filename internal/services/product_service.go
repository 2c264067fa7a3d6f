package services

import (
	"webstore/internal/models"
	"webstore/internal/repositories"
)

// ProductService handles catalog reads for the product API.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products. The result is never nil so it
// serialises as a JSON array.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id models.ProductID) (*models.Product, error) {
	return s.repo.GetByID(id)
}
