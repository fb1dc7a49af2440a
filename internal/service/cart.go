package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
)

type CartService struct {
	Repo *repo.GormRepo
}

func NewCartService(r *repo.GormRepo) *CartService {
	return &CartService{Repo: r}
}

// AddToCart adds qty of a product to the user's cart. Stock is checked
// against the cumulative quantity; the price is captured on the first add.
func (s *CartService) AddToCart(ctx context.Context, username string, req transport.AddToCartRequest) (*models.CartItem, error) {
	if req.ProductID == 0 {
		return nil, apperr.Validation("product_id is required")
	}
	if req.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be greater than 0")
	}

	var item *models.CartItem
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		user, err := userByName(ctx, tx, username)
		if err != nil {
			return err
		}
		p, err := tx.GetProduct(ctx, req.ProductID)
		if err != nil {
			return lookupErr(err, "product", req.ProductID)
		}

		line, err := tx.FindCartLine(ctx, user.ID, p.ID)
		switch {
		case err == nil:
			qty := line.Quantity + req.Quantity
			if p.Stock < qty {
				return apperr.InsufficientStock("insufficient stock for product %s", p.Name)
			}
			if err := tx.SetCartQuantity(ctx, line.ID, qty); err != nil {
				return fmt.Errorf("update cart line %d: %w", line.ID, err)
			}
			line.Quantity = qty
			item = line
			return nil
		case repo.IsNotFound(err):
			if p.Stock < req.Quantity {
				return apperr.InsufficientStock("insufficient stock for product %s", p.Name)
			}
			item = &models.CartItem{
				UserID:    user.ID,
				ProductID: p.ID,
				Quantity:  req.Quantity,
				Price:     p.Price,
			}
			if err := tx.CreateCartItem(ctx, item); err != nil {
				return fmt.Errorf("create cart line: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("find cart line: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) GetCartItems(ctx context.Context, username string) ([]models.CartItem, error) {
	user, err := userByName(ctx, s.Repo, username)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.GetCart(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return items, nil
}

// GetCart returns the cart lines with product names and the snapshot total.
func (s *CartService) GetCart(ctx context.Context, username string) (transport.CartResponse, error) {
	items, err := s.GetCartItems(ctx, username)
	if err != nil {
		return transport.CartResponse{}, err
	}

	ids := make([]uint, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return transport.CartResponse{}, fmt.Errorf("load cart products: %w", err)
	}

	resp := transport.CartResponse{Items: make([]transport.CartLine, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		sub := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		resp.Items = append(resp.Items, transport.CartLine{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: products[it.ProductID].Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    sub,
		})
		resp.Total = resp.Total.Add(sub)
	}
	return resp, nil
}

// ownedCartItem loads a cart line and checks it belongs to username.
func ownedCartItem(ctx context.Context, r *repo.GormRepo, username string, itemID uint) (*models.CartItem, error) {
	item, err := r.GetCartItem(ctx, itemID)
	if err != nil {
		return nil, lookupErr(err, "cart item", itemID)
	}
	user, err := userByName(ctx, r, username)
	if err != nil {
		return nil, err
	}
	if item.UserID != user.ID {
		return nil, apperr.Unauthorized("unauthorized access to cart item")
	}
	return item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, username string, itemID uint, qty int) (*models.CartItem, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be greater than 0")
	}

	var item *models.CartItem
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		item, err = ownedCartItem(ctx, tx, username, itemID)
		if err != nil {
			return err
		}
		p, err := tx.GetProduct(ctx, item.ProductID)
		if err != nil {
			return lookupErr(err, "product", item.ProductID)
		}
		if p.Stock < qty {
			return apperr.InsufficientStock("insufficient stock for product %s", p.Name)
		}
		if err := tx.SetCartQuantity(ctx, item.ID, qty); err != nil {
			return fmt.Errorf("update cart line %d: %w", item.ID, err)
		}
		item.Quantity = qty
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, username string, itemID uint) error {
	return s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		item, err := ownedCartItem(ctx, tx, username, itemID)
		if err != nil {
			return err
		}
		if err := tx.DeleteCartItem(ctx, item.ID); err != nil {
			return lookupErr(err, "cart item", itemID)
		}
		return nil
	})
}

func (s *CartService) ClearCart(ctx context.Context, username string) error {
	user, err := userByName(ctx, s.Repo, username)
	if err != nil {
		return err
	}
	if err := s.Repo.ClearCart(ctx, user.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
