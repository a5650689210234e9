// ABOUTME: Admin catalog handlers for category and product CRUD
// ABOUTME: Product forms are multipart because they may carry an image

package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/floreria/margarita/internal/store"
)

// handleCategoryCreate adds a category from the admin form.
func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/admin", "Datos inválidos")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		redirectWithError(w, r, "/admin", "El nombre es obligatorio")
		return
	}

	cat := &store.Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateCategory(r.Context(), cat); err != nil {
		if errors.Is(err, store.ErrCategoryExists) {
			redirectWithError(w, r, "/admin", "Esa categoría ya existe")
			return
		}
		s.logger.Error("failed to create category", "error", err)
		redirectWithError(w, r, "/admin", "Ocurrió un error")
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleCategoryDelete removes a category unless products still use it.
func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrCategoryInUse):
			redirectWithError(w, r, "/admin", "La categoría tiene productos asociados")
		case errors.Is(err, store.ErrNotFound):
			redirectWithError(w, r, "/admin", "Categoría no encontrada")
		default:
			s.logger.Error("failed to delete category", "error", err)
			redirectWithError(w, r, "/admin", "Ocurrió un error")
		}
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// parseProductForm reads the shared product fields from a multipart form.
func parseProductForm(r *http.Request) (name, description, categoryID string, price float64, stock int, err error) {
	name = strings.TrimSpace(r.FormValue("name"))
	description = r.FormValue("description")
	categoryID = r.FormValue("category_id")

	if priceStr := r.FormValue("price"); priceStr != "" {
		price, err = strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return
		}
	}
	if stockStr := r.FormValue("stock"); stockStr != "" {
		stock, err = strconv.Atoi(stockStr)
		if err != nil {
			return
		}
	}
	return
}

// handleProductCreate adds a product, storing its image if one was
// uploaded.
func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		redirectWithError(w, r, "/admin", "La imagen supera el límite de 5 MB")
		return
	}

	name, description, categoryID, price, stock, err := parseProductForm(r)
	if err != nil || name == "" {
		redirectWithError(w, r, "/admin", "Datos de producto inválidos")
		return
	}

	imageURL, err := s.saveUploadedImage(r)
	if err != nil {
		s.logger.Error("failed to save image", "error", err)
		redirectWithError(w, r, "/admin", "No se pudo guardar la imagen")
		return
	}
	if imageURL == "" {
		imageURL = defaultImageURL
	}

	p := &store.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		ImageURL:    imageURL,
		CategoryID:  categoryID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateProduct(r.Context(), p); err != nil {
		s.logger.Error("failed to create product", "error", err)
		s.removeImage(imageURL)
		redirectWithError(w, r, "/admin", "Ocurrió un error")
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleProductEdit updates a product. A newly uploaded image replaces
// and unlinks the old one.
func (s *Server) handleProductEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			redirectWithError(w, r, "/admin", "Producto no encontrado")
			return
		}
		s.logger.Error("failed to get product", "error", err)
		redirectWithError(w, r, "/admin", "Ocurrió un error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		redirectWithError(w, r, "/admin", "La imagen supera el límite de 5 MB")
		return
	}

	name, description, categoryID, price, stock, err := parseProductForm(r)
	if err != nil || name == "" {
		redirectWithError(w, r, "/admin", "Datos de producto inválidos")
		return
	}

	oldImage := p.ImageURL
	newImage, err := s.saveUploadedImage(r)
	if err != nil {
		s.logger.Error("failed to save image", "error", err)
		redirectWithError(w, r, "/admin", "No se pudo guardar la imagen")
		return
	}

	p.Name = name
	p.Description = description
	p.Price = price
	p.Stock = stock
	p.CategoryID = categoryID
	if newImage != "" {
		p.ImageURL = newImage
	}

	if err := s.store.UpdateProduct(r.Context(), p); err != nil {
		s.logger.Error("failed to update product", "error", err)
		if newImage != "" {
			s.removeImage(newImage)
		}
		redirectWithError(w, r, "/admin", "Ocurrió un error")
		return
	}

	if newImage != "" && oldImage != newImage {
		s.removeImage(oldImage)
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleProductDelete removes a product and its uploaded image.
func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			redirectWithError(w, r, "/admin", "Producto no encontrado")
			return
		}
		s.logger.Error("failed to get product", "error", err)
		redirectWithError(w, r, "/admin", "Ocurrió un error")
		return
	}

	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		s.logger.Error("failed to delete product", "error", err)
		redirectWithError(w, r, "/admin", "Ocurrió un error")
		return
	}

	s.removeImage(p.ImageURL)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
