package handlers

import (
	"errors"
	"io"
	"net/http"

	"itemcatalog/internal/db"
	"itemcatalog/internal/oauth"
	"itemcatalog/internal/security"

	"github.com/charmbracelet/log"
)

type AuthHandler struct {
	db       *db.DB
	sessions *security.SessionStore
	google   *oauth.Client
	clientID string
	logger   *log.Logger
}

func NewAuthHandler(db *db.DB, sessions *security.SessionStore, google *oauth.Client, clientID string, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		db:       db,
		sessions: sessions,
		google:   google,
		clientID: clientID,
		logger:   logger,
	}
}

// GoogleConnect exchanges the authorization code posted by the sign-in
// button for an access token, verifies it, and binds the resulting identity
// to the session.
func (h *AuthHandler) GoogleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	state := h.sessions.State(sess)
	if state == "" || r.URL.Query().Get("state") != state {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	code, err := io.ReadAll(r.Body)
	if err != nil {
		respond(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	token, err := h.google.Exchange(ctx, string(code))
	if err != nil {
		h.logger.Warn("auth code exchange failed", "err", err)
		respond(w, http.StatusUnauthorized, "Failed to upgrade auth code")
		return
	}

	info, err := h.google.TokenInfo(ctx, token.AccessToken)
	if err != nil {
		serverError(w, h.logger, "tokeninfo request failed", err)
		return
	}
	if info.Error != "" {
		// Provider-side error payload passes through as-is.
		respond(w, http.StatusInternalServerError, info.Error)
		return
	}

	if info.UserID != token.GoogleID {
		respond(w, http.StatusUnauthorized, "Token's user ID doesn't match given user ID.")
		return
	}

	// Re-submitting a token for the identity already bound to this session
	// is a no-op.
	if h.sessions.AccessToken(sess) != "" && h.sessions.GoogleID(sess) == token.GoogleID {
		respond(w, http.StatusOK, "Current user is already connected.")
		return
	}

	if info.IssuedTo != h.clientID {
		respond(w, http.StatusUnauthorized, "Token's client ID does not match app's.")
		return
	}

	profile, err := h.google.Profile(ctx, token.AccessToken)
	if err != nil {
		serverError(w, h.logger, "userinfo request failed", err)
		return
	}

	user, err := h.db.GetUserByEmail(ctx, profile.Email)
	if errors.Is(err, db.ErrNotFound) {
		user, err = h.db.CreateUser(ctx, profile.Name, profile.Picture, profile.Email)
	}
	if err != nil {
		serverError(w, h.logger, "finding or creating user", err)
		return
	}

	h.sessions.BindIdentity(sess, user, token.AccessToken, token.GoogleID)
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	h.logger.Info("user connected", "user_id", user.ID, "email", user.Email)
	respond(w, http.StatusOK, map[string]string{"name": user.Username})
}

// GoogleDisconnect revokes the stored access token. Session state is cleared
// only when the provider confirms the revocation.
func (h *AuthHandler) GoogleDisconnect(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)

	accessToken := h.sessions.AccessToken(sess)
	if accessToken == "" {
		respond(w, http.StatusUnauthorized, "Current user not connected.")
		return
	}

	if err := h.google.Revoke(r.Context(), accessToken); err != nil {
		h.logger.Warn("token revocation failed", "username", h.sessions.Username(sess), "err", err)
		respond(w, http.StatusOK, map[string]string{"message": "Could not log out successfully"})
		return
	}

	h.sessions.Clear(sess)
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	h.logger.Info("user disconnected")
	respond(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
