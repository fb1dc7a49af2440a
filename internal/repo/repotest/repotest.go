// Package repotest opens a migrated sqlite database for tests.
package repotest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/db"
)

func New(t testing.TB) *repo.GormRepo {
	t.Helper()

	dsn := "sqlite://" + filepath.Join(t.TempDir(), "storefront.db")
	gdb, err := db.Open(context.Background(), dsn, db.Options{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return r
}

func User(t testing.TB, r *repo.GormRepo, username string) *models.User {
	t.Helper()

	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
	}
	if err := r.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func Product(t testing.TB, r *repo.GormRepo, name, price string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "general",
	}
	if err := r.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}
