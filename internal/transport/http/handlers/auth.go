package handlers

import (
	"net/http"
	"time"

	"github.com/invitame/auth-service/internal/service"
	apierrors "github.com/invitame/auth-service/internal/transport/http/errors"
	"github.com/invitame/auth-service/internal/transport/http/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type loginResponse struct {
	AccessToken     string          `json:"access_token"`
	AccessExpiresAt time.Time       `json:"access_expires_at"`
	Account         accountResponse `json:"account"`
}

type refreshResponse struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type validateResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Login — POST /auth/login. Успех: access-токен в теле, refresh-токен
// в HttpOnly-куке.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil || in.Email == "" || in.Password == "" {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, account, err := h.svc.Login(r.Context(), in.Email, in.Password, clientKey(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
		Account: accountResponse{
			ID:          account.ID.String(),
			Email:       account.Email,
			DisplayName: account.DisplayName,
			Role:        string(account.Role),
		},
	})
}

// Refresh — POST /auth/refresh. Новый access-токен по куке; сама кука
// не переустанавливается — refresh-токен не ротируется.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refresh := refreshFromCookie(r)
	if refresh == "" {
		apierrors.WriteError(w, r, service.ErrSessionExpired)
		return
	}

	at, err := h.svc.Refresh(r.Context(), refresh)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:     at.Token,
		AccessExpiresAt: at.ExpiresAt,
	})
}

// Logout — POST /auth/logout. Идемпотентен: без куки или с мёртвой
// кукой всё равно 204, кука в любом случае затирается.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), refreshFromCookie(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword — POST /auth/change-password. Идентичность — из
// Bearer access-токена; сессия из сопутствующей куки переживает смену,
// остальные сессии аккаунта снимаются.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	uid, _, _, err := h.svc.ValidateToken(r.Context(), token)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	err = h.svc.ChangePassword(r.Context(), uid, in.CurrentPassword, in.NewPassword, refreshFromCookie(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Validate — POST /auth/validate. Проверка access-токена для
// соседних сервисов: 200 с идентичностью либо 401.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	uid, email, role, err := h.svc.ValidateToken(r.Context(), token)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		AccountID: uid.String(),
		Email:     email,
		Role:      string(role),
	})
}
