package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  ProductCache
	Search ProductIndex
	Events events.Publisher
}

// NewCatalogService accepts nil cache, index and publisher.
func NewCatalogService(r *repo.GormRepo, cache ProductCache, index ProductIndex, pub events.Publisher) *CatalogService {
	return &CatalogService{
		Repo:   r,
		Cache:  cacheOrNop(cache),
		Search: index,
		Events: publisherOrNop(pub),
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if p, ok := s.Cache.Get(ctx, id); ok {
		return p, nil
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product", id)
	}
	s.Cache.Set(ctx, p)
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) (int64, []models.Product, error) {
	if f.SortBy != "" && f.SortBy != "price" && f.SortBy != "name" {
		return 0, nil, apperr.Validation("sort must be price or name")
	}
	total, items, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return 0, nil, fmt.Errorf("list products: %w", err)
	}
	return total, items, nil
}

// SearchProducts asks the search index for matching ids and loads the rows.
// Without an index, or when the index fails, it falls back to SQL matching.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, apperr.Validation("search query is required")
	}

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, query, offset, limit)
		if err == nil {
			byID, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, fmt.Errorf("load search hits: %w", err)
			}
			items := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				if p, ok := byID[id]; ok {
					items = append(items, p)
				}
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "svc", "catalog", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("search products: %w", err)
	}
	return total, items, nil
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("product name is required")
	}
	if !p.Price.IsPositive() {
		return apperr.Validation("price must be greater than 0")
	}
	if p.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	if strings.TrimSpace(p.Category) == "" {
		return apperr.Validation("category is required")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		Category:    strings.TrimSpace(req.Category),
		Brand:       req.Brand,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.reindex(ctx, p)
	publish(ctx, s.Events, events.TopicProducts, "product_created", p.ID, p)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product", id)
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = req.Price.Round(2)
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("save product %d: %w", id, err)
	}

	s.Cache.Invalidate(ctx, id)
	s.reindex(ctx, p)
	publish(ctx, s.Events, events.TopicProducts, "product_updated", p.ID, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return lookupErr(err, "product", id)
	}

	s.Cache.Invalidate(ctx, id)
	if s.Search != nil {
		if err := s.Search.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "svc", "catalog", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, "product_deleted", id, map[string]uint{"id": id})
	return nil
}

// AdjustStock adds delta (which may be negative) to the product's stock.
func (s *CatalogService) AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error) {
	if err := s.Repo.AdjustStock(ctx, id, delta); err != nil {
		return nil, stockErr(err, id, "")
	}
	s.Cache.Invalidate(ctx, id)

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product", id)
	}
	publish(ctx, s.Events, events.TopicProducts, "product_stock_adjusted", id, map[string]any{"id": id, "delta": delta, "stock": p.Stock})
	return p, nil
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Search == nil {
		return
	}
	if err := s.Search.Index(ctx, *p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "svc", "catalog", "product_id", p.ID, "error", err)
	}
}

// stockErr maps repo.AdjustStock errors to service errors. name is used in
// the message when known.
func stockErr(err error, productID uint, name string) error {
	switch {
	case errors.Is(err, repo.ErrStockConflict):
		if name == "" {
			return apperr.InsufficientStock("insufficient stock for product %d", productID)
		}
		return apperr.InsufficientStock("insufficient stock for product %s", name)
	case repo.IsNotFound(err):
		return apperr.NotFound("product %d not found", productID)
	default:
		return fmt.Errorf("adjust stock for product %d: %w", productID, err)
	}
}
