package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/apperr"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const minPasswordLen = 6

type UserService struct {
	Repo      *repo.GormRepo
	Hasher    hash.Hasher
	JWTSecret []byte
	TokenTTL  time.Duration
}

func NewUserService(r *repo.GormRepo, hasher hash.Hasher, secret []byte, ttl time.Duration) *UserService {
	return &UserService{Repo: r, Hasher: hasher, JWTSecret: secret, TokenTTL: ttl}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.Validation("invalid email address")
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	return s.create(ctx, req, models.RoleCustomer)
}

// EnsureAdmin creates an admin account when no user with that name exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if _, err := s.Repo.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !repo.IsNotFound(err) {
		return fmt.Errorf("look up admin %s: %w", username, err)
	}
	_, err := s.create(ctx, transport.RegisterRequest{Username: username, Email: email, Password: password}, models.RoleAdmin)
	return err
}

func (s *UserService) create(ctx context.Context, req transport.RegisterRequest, role models.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if n := len(req.Username); n < 3 || n > 50 {
		return nil, apperr.Validation("username must be between 3 and 50 characters")
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLen {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLen)
	}

	pwHash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	u := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         role,
	}
	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		if err := checkUnique(ctx, tx, u.Username, u.Email, 0); err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.Info("user_registered", "username", u.Username, "role", u.Role)
	return u, nil
}

func checkUnique(ctx context.Context, r *repo.GormRepo, username, email string, exceptID uint) error {
	taken, err := r.UsernameTaken(ctx, username, exceptID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return apperr.BusinessRule("username already exists: %s", username)
	}
	taken, err = r.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return apperr.BusinessRule("email already exists: %s", email)
	}
	return nil
}

func (s *UserService) Login(ctx context.Context, req transport.LoginRequest) (transport.TokenResponse, error) {
	l := logging.FromContext(ctx).With("svc", "user.login", "username", req.Username)

	u, err := s.Repo.GetUserByUsername(ctx, req.Username)
	if err != nil && !repo.IsNotFound(err) {
		return transport.TokenResponse{}, fmt.Errorf("load user: %w", err)
	}
	if err != nil || !s.Hasher.Check(u.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "invalid username or password")
		return transport.TokenResponse{}, apperr.Unauthorized("invalid username or password")
	}

	token, exp, err := tokens.NewAccessToken(s.JWTSecret, u.Username, string(u.Role), s.TokenTTL)
	if err != nil {
		return transport.TokenResponse{}, fmt.Errorf("sign access token: %w", err)
	}
	return transport.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return userByName(ctx, s.Repo, username)
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	total, users, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("list users: %w", err)
	}
	return total, users, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint, req transport.UpdateUserRequest) (*models.User, error) {
	var u *models.User
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		var err error
		u, err = tx.GetUser(ctx, id)
		if err != nil {
			return lookupErr(err, "user", id)
		}

		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			if err := validateEmail(email); err != nil {
				return err
			}
			u.Email = email
		}
		if req.Role != nil {
			role := models.Role(*req.Role)
			if role != models.RoleCustomer && role != models.RoleAdmin {
				return apperr.Validation("unknown role %q", *req.Role)
			}
			u.Role = role
		}
		if req.Password != nil && *req.Password != "" {
			if len(*req.Password) < minPasswordLen {
				return apperr.Validation("password must be at least %d characters", minPasswordLen)
			}
			h, err := s.Hasher.Hash(*req.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = h
		}

		if err := checkUnique(ctx, tx, u.Username, u.Email, u.ID); err != nil {
			return err
		}
		if err := tx.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("save user %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return lookupErr(err, "user", id)
	}
	return nil
}
