package handler

import (
	"errors"
	"net/http"

	"github.com/prn-tf/tonearm/internal/auth"
	"github.com/prn-tf/tonearm/internal/service"
)

// =============================================================================
// Catalog and Review Handlers
// =============================================================================

func (h *SiteHandler) handleAddAlbumPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "addalbum.html", h.page(r, "Add Album"))
}

func (h *SiteHandler) handleAddAlbum(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, err := h.catalog.AddAlbum(r.Context(), service.AddAlbumInput{
		AlbumName:  r.PostForm.Get("album_title"),
		SongCount:  r.PostForm.Get("song_count"),
		ArtistName: r.PostForm.Get("artist"),
	})
	if err != nil {
		if verr, ok := service.IsValidationError(err); ok {
			h.flash(r, verr.Message)
			h.handleAddAlbumPage(w, r)
			return
		}
		h.renderServiceError(w, r, err)
		return
	}

	h.redirect(w, r, "/")
}

// renderAlbumPicker renders tmpl with the album list.
func (h *SiteHandler) renderAlbumPicker(w http.ResponseWriter, r *http.Request, status int, tmpl, title string) {
	albums, err := h.catalog.ListAlbums(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.render(w, r, status, tmpl, AlbumsPageData{
		PageData: h.page(r, title),
		Albums:   albums,
	})
}

func (h *SiteHandler) handleAddReviewPage(w http.ResponseWriter, r *http.Request) {
	h.renderAlbumPicker(w, r, http.StatusOK, "addreview.html", "Add Review")
}

func (h *SiteHandler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	id, err := auth.RequireIdentity(r.Context())
	if err != nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, err = h.reviews.AddReview(r.Context(), id.UserID, service.AddReviewInput{
		AlbumName: r.PostForm.Get("album_name"),
		Rating:    r.PostForm.Get("rating"),
		Text:      r.PostForm.Get("text"),
	})
	if err != nil {
		if verr, ok := service.IsValidationError(err); ok {
			h.flash(r, verr.Message)
			h.renderAlbumPicker(w, r, http.StatusOK, "addreview.html", "Add Review")
			return
		}
		if errors.Is(err, service.ErrAlbumNotFound) {
			h.flash(r, service.MsgAlbumNotFound)
			h.renderAlbumPicker(w, r, http.StatusNotFound, "addreview.html", "Add Review")
			return
		}
		h.renderServiceError(w, r, err)
		return
	}

	h.redirect(w, r, "/")
}

func (h *SiteHandler) handleAlbums(w http.ResponseWriter, r *http.Request) {
	h.renderAlbumPicker(w, r, http.StatusOK, "albums.html", "Albums")
}

func (h *SiteHandler) handleAlbumRating(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	albumName := r.PostForm.Get("album_name")
	rating, err := h.reviews.AlbumRating(r.Context(), albumName)
	if err != nil {
		if verr, ok := service.IsValidationError(err); ok {
			h.flash(r, verr.Message)
			h.handleAlbums(w, r)
			return
		}
		if errors.Is(err, service.ErrAlbumNotFound) {
			h.flash(r, service.MsgAlbumNotFound)
			h.renderAlbumPicker(w, r, http.StatusNotFound, "albums.html", "Albums")
			return
		}
		h.renderServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "reviews.html", ReviewsPageData{
		PageData: h.page(r, albumName),
		Rating:   rating,
	})
}
