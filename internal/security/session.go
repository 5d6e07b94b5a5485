// Package security manages the per-browser session: the anti-forgery state
// token handed to each rendered page and the identity bound after login.
package security

import (
	"crypto/rand"
	"net/http"

	"itemcatalog/internal/models"

	"github.com/gorilla/sessions"
)

const sessionName = "catalog_session"

// State tokens are 32 characters drawn from uppercase letters and digits.
const (
	stateLength   = 32
	stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Session value keys. Values round-trip through the cookie store's gob
// encoding, so everything stored here is a string or an int.
const (
	keyState       = "state"
	keyUserID      = "user_id"
	keyAccessToken = "access_token"
	keyGoogleID    = "google_id"
	keyUsername    = "username"
	keyPicture     = "picture"
	keyEmail       = "email"
)

type SessionStore struct {
	store *sessions.CookieStore
}

func NewSessionStore(secret string) *SessionStore {
	return &SessionStore{
		store: sessions.NewCookieStore([]byte(secret)),
	}
}

// Get returns the request's session, or a fresh one if the cookie is absent
// or fails to decode.
func (s *SessionStore) Get(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	return s.store.Save(r, w, sess)
}

// IssueState generates a fresh state token and stores it as the session's
// expected value, overwriting any previous token. Only the most recently
// rendered page's token is valid: two open tabs invalidate each other's
// pending forms. Known limitation, kept on purpose.
func (s *SessionStore) IssueState(sess *sessions.Session) (string, error) {
	token, err := NewStateToken()
	if err != nil {
		return "", err
	}
	sess.Values[keyState] = token
	return token, nil
}

func (s *SessionStore) State(sess *sessions.Session) string {
	v, _ := sess.Values[keyState].(string)
	return v
}

func (s *SessionStore) IsAuthenticated(sess *sessions.Session) bool {
	_, ok := sess.Values[keyUserID].(int)
	return ok
}

// UserID returns the bound user id, with ok false when no identity is bound.
func (s *SessionStore) UserID(sess *sessions.Session) (int, bool) {
	id, ok := sess.Values[keyUserID].(int)
	return id, ok
}

func (s *SessionStore) AccessToken(sess *sessions.Session) string {
	v, _ := sess.Values[keyAccessToken].(string)
	return v
}

func (s *SessionStore) GoogleID(sess *sessions.Session) string {
	v, _ := sess.Values[keyGoogleID].(string)
	return v
}

func (s *SessionStore) Username(sess *sessions.Session) string {
	v, _ := sess.Values[keyUsername].(string)
	return v
}

// BindIdentity stores the logged-in user and provider token on the session.
func (s *SessionStore) BindIdentity(sess *sessions.Session, user *models.User, accessToken, googleID string) {
	sess.Values[keyUserID] = user.ID
	sess.Values[keyUsername] = user.Username
	sess.Values[keyPicture] = user.Picture
	sess.Values[keyEmail] = user.Email
	sess.Values[keyAccessToken] = accessToken
	sess.Values[keyGoogleID] = googleID
}

// Clear drops identity and token state, used on logout.
func (s *SessionStore) Clear(sess *sessions.Session) {
	for _, key := range []string{keyState, keyUserID, keyAccessToken, keyGoogleID, keyUsername, keyPicture, keyEmail} {
		delete(sess.Values, key)
	}
}

// NewStateToken returns a random token of stateLength characters drawn
// uniformly from stateAlphabet. Bytes at or above the largest multiple of
// the alphabet size are rejected so no character is favored.
func NewStateToken() (string, error) {
	const limit = 256 - 256%len(stateAlphabet)

	token := make([]byte, 0, stateLength)
	buf := make([]byte, 2*stateLength)
	for len(token) < stateLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			token = append(token, stateAlphabet[int(b)%len(stateAlphabet)])
			if len(token) == stateLength {
				break
			}
		}
	}
	return string(token), nil
}
