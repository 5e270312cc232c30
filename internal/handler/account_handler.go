package handler

import (
	"errors"
	"net/http"

	"github.com/prn-tf/tonearm/internal/auth"
	"github.com/prn-tf/tonearm/internal/service"
	"github.com/prn-tf/tonearm/internal/session"
)

// =============================================================================
// Account Handlers
// =============================================================================

func (h *SiteHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "index.html", IndexPageData{
		PageData: h.page(r, "Users"),
		Users:    users,
	})
}

func (h *SiteHandler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", h.page(r, "Register"))
}

func (h *SiteHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		if verr, ok := service.IsValidationError(err); ok {
			h.flash(r, verr.Message)
			h.handleRegisterPage(w, r)
			return
		}
		if errors.Is(err, service.ErrUserAlreadyExists) {
			h.flash(r, service.MsgUserExists)
			h.redirect(w, r, "/register")
			return
		}
		h.renderServiceError(w, r, err)
		return
	}

	h.redirect(w, r, "/login")
}

func (h *SiteHandler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", h.page(r, "Log In"))
}

func (h *SiteHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	user, err := h.accounts.Authenticate(r.Context(),
		r.PostForm.Get("username"),
		r.PostForm.Get("password"),
	)
	switch {
	case errors.Is(err, service.ErrUnknownUsername):
		h.flash(r, service.MsgIncorrectUsername)
		h.handleLoginPage(w, r)
		return
	case errors.Is(err, service.ErrIncorrectPassword):
		h.flash(r, service.MsgIncorrectPassword)
		h.handleLoginPage(w, r)
		return
	case err != nil:
		h.renderServiceError(w, r, err)
		return
	}

	session.FromContext(r.Context()).Login(user.ID)
	h.redirect(w, r, "/")
}

func (h *SiteHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Clear()
	h.redirect(w, r, "/")
}

func (h *SiteHandler) handleChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "change.html", h.page(r, "Change Password"))
}

func (h *SiteHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := auth.RequireIdentity(r.Context())
	if err != nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	err = h.accounts.ChangePassword(r.Context(), id.UserID, r.PostForm.Get("newpassword"))
	if err != nil {
		if verr, ok := service.IsValidationError(err); ok {
			h.flash(r, verr.Message)
			h.handleChangePasswordPage(w, r)
			return
		}
		h.renderServiceError(w, r, err)
		return
	}

	h.redirect(w, r, "/")
}

func (h *SiteHandler) handleDeleteUserPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "delete.html", h.page(r, "Delete Account"))
}

func (h *SiteHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := auth.RequireIdentity(r.Context())
	if err != nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}

	if _, err := h.accounts.DeleteUser(r.Context(), id.UserID); err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	session.FromContext(r.Context()).Clear()
	h.redirect(w, r, "/")
}
