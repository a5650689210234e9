// ABOUTME: Template rendering for storefront and admin pages
// ABOUTME: Product descriptions are markdown rendered with goldmark

package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/floreria/margarita/internal/store"
)

// productView is a product prepared for rendering.
type productView struct {
	*store.Product
	DescriptionHTML template.HTML
}

type indexData struct {
	Title      string
	ShopName   string
	Account    *store.Account
	Error      string
	Products   []productView
	Categories []*store.Category
}

type adminLoginData struct {
	Title    string
	ShopName string
	Account  *store.Account
	Error    string
}

type adminData struct {
	Title      string
	ShopName   string
	Account    *store.Account
	Error      string
	HasPasskey bool
	Products   []productView
	Categories []*store.Category
	Orders     []*store.Order
}

// renderMarkdown converts a product description to HTML.
func (s *Server) renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		s.logger.Error("failed to convert markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func (s *Server) productViews(products []*store.Product) []productView {
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{Product: p, DescriptionHTML: s.renderMarkdown(p.Description)}
	}
	return views
}

// handleIndex renders the storefront.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.logger.Error("failed to list products", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	acct, _ := s.sessions.Current(r.Context(), r)

	s.renderPage(w, "index.html", indexData{
		Title:      "Inicio",
		ShopName:   s.config.ShopName,
		Account:    acct,
		Error:      r.URL.Query().Get("error"),
		Products:   s.productViews(products),
		Categories: categories,
	})
}

// handleAdminLoginPage renders the admin login page with both password
// and passkey entry points.
func (s *Server) handleAdminLoginPage(w http.ResponseWriter, r *http.Request) {
	if acct, err := s.sessions.Current(r.Context(), r); err == nil && acct.Role == store.RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	s.renderPage(w, "admin_login.html", adminLoginData{
		Title:    "Acceso administración",
		ShopName: s.config.ShopName,
		Error:    r.URL.Query().Get("error"),
	})
}

// handleAdmin renders the back-office dashboard.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	admin := adminFromContext(r)

	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.logger.Error("failed to list products", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	orders, err := s.store.ListOrders(r.Context())
	if err != nil {
		s.logger.Error("failed to list orders", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	hasPasskey := true
	if _, err := s.store.GetCredential(r.Context(), admin.ID); errors.Is(err, store.ErrCredentialNotFound) {
		hasPasskey = false
	}

	s.renderPage(w, "admin.html", adminData{
		Title:      "Administración",
		ShopName:   s.config.ShopName,
		Account:    admin,
		Error:      r.URL.Query().Get("error"),
		HasPasskey: hasPasskey,
		Products:   s.productViews(products),
		Categories: categories,
		Orders:     orders,
	})
}

// renderPage executes base.html with the named page's content block.
func (s *Server) renderPage(w http.ResponseWriter, page string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render page", "page", page, "error", err)
	}
}
