// Package handler provides the HTTP handlers for the Tonearm site.
package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/auth"
	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/service"
	"github.com/prn-tf/tonearm/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"rating": func(avg *float64) string {
		if avg == nil {
			return "no ratings yet"
		}
		return fmt.Sprintf("%.2f", *avg)
	},
	"score": func(v float64) string {
		return fmt.Sprintf("%g", v)
	},
}

// SiteHandler serves the HTML pages.
type SiteHandler struct {
	accounts  *service.AccountService
	catalog   *service.CatalogService
	reviews   *service.ReviewService
	sessions  *session.Store
	templates *template.Template
	logger    zerolog.Logger
}

// SiteConfig contains the dependencies of SiteHandler.
type SiteConfig struct {
	AccountService *service.AccountService
	CatalogService *service.CatalogService
	ReviewService  *service.ReviewService
	Sessions       *session.Store
	Logger         zerolog.Logger
}

// NewSiteHandler parses the embedded templates and creates a SiteHandler.
func NewSiteHandler(cfg SiteConfig) (*SiteHandler, error) {
	tmpl, err := template.New("site").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &SiteHandler{
		accounts:  cfg.AccountService,
		catalog:   cfg.CatalogService,
		reviews:   cfg.ReviewService,
		sessions:  cfg.Sessions,
		templates: tmpl,
		logger:    cfg.Logger.With().Str("handler", "site").Logger(),
	}, nil
}

// =============================================================================
// Template Data Structs
// =============================================================================

// PageData contains common page data.
type PageData struct {
	Title   string
	User    *auth.Identity
	Flashes []string
}

// IndexPageData lists registered users.
type IndexPageData struct {
	PageData
	Users []*domain.User
}

// AlbumsPageData lists the catalog.
type AlbumsPageData struct {
	PageData
	Albums []*domain.Album
}

// ReviewsPageData shows one album's rating.
type ReviewsPageData struct {
	PageData
	Rating *domain.AlbumRating
}

// ErrorPageData carries an error message.
type ErrorPageData struct {
	PageData
	Message string
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the site routes. Routes behind auth.RequireLogin
// expect auth.SessionMiddleware to run first.
func (h *SiteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)

	r.Get("/albums", h.handleAlbums)
	r.Post("/albums", h.handleAlbumRating)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)

		r.Get("/", h.handleIndex)
		r.Get("/passwordchange", h.handleChangePasswordPage)
		r.Post("/passwordchange", h.handleChangePassword)
		r.Get("/deleteuser", h.handleDeleteUserPage)
		r.Post("/deleteuser", h.handleDeleteUser)
		r.Get("/addalbum", h.handleAddAlbumPage)
		r.Post("/addalbum", h.handleAddAlbum)
		r.Get("/addreview", h.handleAddReviewPage)
		r.Post("/addreview", h.handleAddReview)
	})
}

// =============================================================================
// Helper Methods
// =============================================================================

// page builds the common page data and takes the pending flashes.
func (h *SiteHandler) page(r *http.Request, title string) PageData {
	return PageData{
		Title:   title,
		User:    auth.IdentityFromContext(r.Context()),
		Flashes: session.FromContext(r.Context()).PopFlashes(),
	}
}

func (h *SiteHandler) flash(r *http.Request, message string) {
	session.FromContext(r.Context()).AddFlash(message)
}

// saveSession writes the session cookie. An empty session only produces a
// cookie when the browser still holds one that must be expired.
func (h *SiteHandler) saveSession(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.IsEmpty() {
		if _, err := r.Cookie(h.sessions.Name()); err != nil {
			return
		}
	}
	if err := h.sessions.Save(w, sess); err != nil {
		h.logger.Error().Err(err).Msg("failed to save session")
	}
}

func (h *SiteHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.saveSession(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *SiteHandler) redirect(w http.ResponseWriter, r *http.Request, url string) {
	h.saveSession(w, r)
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *SiteHandler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error.html", ErrorPageData{
		PageData: h.page(r, http.StatusText(status)),
		Message:  message,
	})
}

// renderServiceError renders the error page for an unexpected service failure.
func (h *SiteHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsNotFound(err) {
		h.renderError(w, r, http.StatusNotFound, "Not found.")
		return
	}
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}
