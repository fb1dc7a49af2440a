package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
)

var (
	zipRe  = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	cardRe = regexp.MustCompile(`^\d{16}$`)
	cvvRe  = regexp.MustCompile(`^\d{3,4}$`)
)

// ProfileService manages a user's saved addresses and credit cards. At most
// one of each is the default.
type ProfileService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func NewProfileService(r *repo.GormRepo) *ProfileService {
	return &ProfileService{Repo: r, Now: utcNow}
}

func validateAddress(req transport.AddressRequest) error {
	switch {
	case strings.TrimSpace(req.Street) == "":
		return apperr.Validation("street address is required")
	case strings.TrimSpace(req.City) == "":
		return apperr.Validation("city is required")
	case strings.TrimSpace(req.State) == "":
		return apperr.Validation("state is required")
	case strings.TrimSpace(req.Country) == "":
		return apperr.Validation("country is required")
	case !zipRe.MatchString(req.ZipCode):
		return apperr.Validation("invalid zip code format")
	}
	return nil
}

func (s *ProfileService) validateCard(req transport.CardRequest) error {
	switch {
	case !cardRe.MatchString(req.CardNumber):
		return apperr.Validation("card number must be 16 digits")
	case strings.TrimSpace(req.CardHolderName) == "":
		return apperr.Validation("card holder name is required")
	case req.ExpirationMonth < 1 || req.ExpirationMonth > 12:
		return apperr.Validation("invalid expiration month")
	case !cvvRe.MatchString(req.CVV):
		return apperr.Validation("cvv must be 3 or 4 digits")
	}

	now := s.Now()
	if req.ExpirationYear < now.Year() ||
		(req.ExpirationYear == now.Year() && req.ExpirationMonth < int(now.Month())) {
		return apperr.Validation("card has expired")
	}
	return nil
}

func (s *ProfileService) AddAddress(ctx context.Context, username string, req transport.AddressRequest) (*models.Address, error) {
	if err := validateAddress(req); err != nil {
		return nil, err
	}

	var a *models.Address
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		user, err := userByName(ctx, tx, username)
		if err != nil {
			return err
		}
		a = &models.Address{UserID: user.ID}
		applyAddress(a, req)
		a.IsDefault = req.IsDefault
		if err := tx.SaveAddress(ctx, a); err != nil {
			return fmt.Errorf("save address: %w", err)
		}
		if a.IsDefault {
			return tx.ClearDefaultAddress(ctx, user.ID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ProfileService) ListAddresses(ctx context.Context, username string) ([]models.Address, error) {
	user, err := userByName(ctx, s.Repo, username)
	if err != nil {
		return nil, err
	}
	out, err := s.Repo.ListAddresses(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out, nil
}

// UpdateAddress replaces the address fields. Promoting it to default clears
// the previous default; an existing default is never demoted here.
func (s *ProfileService) UpdateAddress(ctx context.Context, username string, id uint, req transport.AddressRequest) (*models.Address, error) {
	if err := validateAddress(req); err != nil {
		return nil, err
	}

	var a *models.Address
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		a, err = ownedAddress(ctx, tx, username, id)
		if err != nil {
			return err
		}
		applyAddress(a, req)
		promote := req.IsDefault && !a.IsDefault
		if promote {
			a.IsDefault = true
		}
		if err := tx.SaveAddress(ctx, a); err != nil {
			return fmt.Errorf("save address %d: %w", id, err)
		}
		if promote {
			return tx.ClearDefaultAddress(ctx, a.UserID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ProfileService) DeleteAddress(ctx context.Context, username string, id uint) error {
	return s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		a, err := ownedAddress(ctx, tx, username, id)
		if err != nil {
			return err
		}
		if a.IsDefault {
			return apperr.BusinessRule("cannot delete default address")
		}
		return tx.DeleteAddress(ctx, a.ID)
	})
}

func applyAddress(a *models.Address, req transport.AddressRequest) {
	a.Street = strings.TrimSpace(req.Street)
	a.City = strings.TrimSpace(req.City)
	a.State = strings.TrimSpace(req.State)
	a.Country = strings.TrimSpace(req.Country)
	a.ZipCode = req.ZipCode
}

func ownedAddress(ctx context.Context, r *repo.GormRepo, username string, id uint) (*models.Address, error) {
	a, err := r.GetAddress(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "address", id)
	}
	user, err := userByName(ctx, r, username)
	if err != nil {
		return nil, err
	}
	if a.UserID != user.ID {
		return nil, apperr.Unauthorized("unauthorized access to address")
	}
	return a, nil
}

func (s *ProfileService) AddCard(ctx context.Context, username string, req transport.CardRequest) (*models.CreditCard, error) {
	if err := s.validateCard(req); err != nil {
		return nil, err
	}

	var c *models.CreditCard
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		user, err := userByName(ctx, tx, username)
		if err != nil {
			return err
		}
		c = &models.CreditCard{UserID: user.ID}
		applyCard(c, req)
		c.IsDefault = req.IsDefault
		if err := tx.SaveCard(ctx, c); err != nil {
			return fmt.Errorf("save card: %w", err)
		}
		if c.IsDefault {
			return tx.ClearDefaultCard(ctx, user.ID, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ProfileService) ListCards(ctx context.Context, username string) ([]models.CreditCard, error) {
	user, err := userByName(ctx, s.Repo, username)
	if err != nil {
		return nil, err
	}
	out, err := s.Repo.ListCards(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return out, nil
}

func (s *ProfileService) UpdateCard(ctx context.Context, username string, id uint, req transport.CardRequest) (*models.CreditCard, error) {
	if err := s.validateCard(req); err != nil {
		return nil, err
	}

	var c *models.CreditCard
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		c, err = ownedCard(ctx, tx, username, id)
		if err != nil {
			return err
		}
		applyCard(c, req)
		promote := req.IsDefault && !c.IsDefault
		if promote {
			c.IsDefault = true
		}
		if err := tx.SaveCard(ctx, c); err != nil {
			return fmt.Errorf("save card %d: %w", id, err)
		}
		if promote {
			return tx.ClearDefaultCard(ctx, c.UserID, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ProfileService) DeleteCard(ctx context.Context, username string, id uint) error {
	return s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		c, err := ownedCard(ctx, tx, username, id)
		if err != nil {
			return err
		}
		if c.IsDefault {
			return apperr.BusinessRule("cannot delete default credit card")
		}
		return tx.DeleteCard(ctx, c.ID)
	})
}

func applyCard(c *models.CreditCard, req transport.CardRequest) {
	c.CardNumber = req.CardNumber
	c.CardHolderName = strings.TrimSpace(req.CardHolderName)
	c.ExpirationMonth = req.ExpirationMonth
	c.ExpirationYear = req.ExpirationYear
	c.CVV = req.CVV
}

func ownedCard(ctx context.Context, r *repo.GormRepo, username string, id uint) (*models.CreditCard, error) {
	c, err := r.GetCard(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "credit card", id)
	}
	user, err := userByName(ctx, r, username)
	if err != nil {
		return nil, err
	}
	if c.UserID != user.ID {
		return nil, apperr.Unauthorized("unauthorized access to credit card")
	}
	return c, nil
}
