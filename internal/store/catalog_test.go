// ABOUTME: Tests for category, product, and order store methods
// ABOUTME: Covers uniqueness, foreign key protection, and list ordering

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateCategoryDuplicateNameCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateCategory(ctx, &Category{ID: "cat-1", Name: "Rosas", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	err := s.CreateCategory(ctx, &Category{ID: "cat-2", Name: "rosas", CreatedAt: time.Now().UTC()})
	if !errors.Is(err, ErrCategoryExists) {
		t.Errorf("expected ErrCategoryExists for case-insensitive duplicate, got %v", err)
	}
}

func TestListCategoriesOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Tulipanes", "Girasoles", "Rosas"} {
		if err := s.CreateCategory(ctx, &Category{ID: "cat-" + name, Name: name, CreatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("CreateCategory(%s) failed: %v", name, err)
		}
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(cats))
	}
	want := []string{"Girasoles", "Rosas", "Tulipanes"}
	for i, cat := range cats {
		if cat.Name != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], cat.Name)
		}
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := &Category{ID: "cat-1", Name: "Rosas", CreatedAt: time.Now().UTC()}
	if err := s.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	p := &Product{
		ID:         "prod-1",
		Name:       "Ramo de rosas",
		Price:      24.99,
		Stock:      10,
		ImageURL:   "/img/default.jpg",
		CategoryID: cat.ID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	err := s.DeleteCategory(ctx, cat.ID)
	if !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("expected ErrCategoryInUse, got %v", err)
	}

	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Errorf("DeleteCategory after product removal failed: %v", err)
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteCategory(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProductCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := &Category{ID: "cat-1", Name: "Orquídeas", CreatedAt: time.Now().UTC()}
	if err := s.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	p := &Product{
		ID:          "prod-1",
		Name:        "Orquídea blanca",
		Description: "Una *orquídea* elegante.",
		Price:       39.50,
		Stock:       5,
		ImageURL:    "/img/flor-123.jpg",
		CategoryID:  cat.ID,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.Name != p.Name {
		t.Errorf("expected name %q, got %q", p.Name, got.Name)
	}
	if got.CategoryName != cat.Name {
		t.Errorf("expected joined category name %q, got %q", cat.Name, got.CategoryName)
	}
	if got.Price != p.Price {
		t.Errorf("expected price %v, got %v", p.Price, got.Price)
	}

	got.Name = "Orquídea rosada"
	got.Stock = 2
	got.CategoryID = ""
	if err := s.UpdateProduct(ctx, got); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	updated, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct after update failed: %v", err)
	}
	if updated.Name != "Orquídea rosada" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
	if updated.CategoryID != "" || updated.CategoryName != "" {
		t.Errorf("expected cleared category, got %q/%q", updated.CategoryID, updated.CategoryName)
	}

	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}

	_, err = s.GetProduct(ctx, p.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateProduct(context.Background(), &Product{ID: "missing", Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListProductsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"Primera", "Segunda", "Tercera"} {
		p := &Product{
			ID:        name,
			Name:      name,
			ImageURL:  "/img/default.jpg",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct(%s) failed: %v", name, err)
		}
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	if products[0].Name != "Tercera" {
		t.Errorf("expected newest product first, got %q", products[0].Name)
	}
}

func TestCreateAndListOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acct := testAccount(RoleCustomer)
	if err := s.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	guest := &Order{
		ID:           "order-guest",
		CustomerName: "Visitante",
		Total:        12.50,
		ItemsJSON:    `[{"id":"prod-1","qty":1}]`,
		CreatedAt:    time.Now().UTC().Add(-time.Minute),
	}
	if err := s.CreateOrder(ctx, guest); err != nil {
		t.Fatalf("CreateOrder (guest) failed: %v", err)
	}

	member := &Order{
		ID:           "order-member",
		AccountID:    acct.ID,
		CustomerName: acct.Name,
		Total:        30,
		ItemsJSON:    `[{"id":"prod-2","qty":2}]`,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.CreateOrder(ctx, member); err != nil {
		t.Fatalf("CreateOrder (member) failed: %v", err)
	}

	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != "order-member" {
		t.Errorf("expected newest order first, got %q", orders[0].ID)
	}
	if orders[1].AccountID != "" {
		t.Errorf("expected empty account id for guest order, got %q", orders[1].AccountID)
	}
}
