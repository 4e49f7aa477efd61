// Package session binds browser cookies to in-memory calendar sessions.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"

	"gitea.jw6.us/james/calplanner/internal/config"
	"gitea.jw6.us/james/calplanner/internal/state"
)

const (
	cookieName   = "calplanner_session"
	cookieMaxAge = 30 * 24 * time.Hour
	monthLayout  = "2006-01"
)

// Sessions looks up or creates the stores for a session id.
type Sessions interface {
	Get(id string) (*state.Session, bool)
}

// cookieValue is the signed payload. View and Month let a session that was
// dropped from memory come back on the same view and month.
type cookieValue struct {
	SID   string `json:"sid"`
	View  string `json:"view,omitempty"`
	Month string `json:"month,omitempty"`
	Exp   int64  `json:"exp"`
}

// Manager issues and reads the session cookie.
type Manager struct {
	sessions Sessions
	codec    *securecookie.SecureCookie
	secure   bool
	now      func() time.Time
}

func NewManager(cfg *config.Config, sessions Sessions) *Manager {
	hash := sha256.Sum256([]byte(cfg.Session.Secret))
	sc := securecookie.New(hash[:], hash[:])
	sc.MaxAge(int(cookieMaxAge / time.Second))
	sc.SetSerializer(securecookie.JSONEncoder{})

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return &Manager{sessions: sessions, codec: sc, secure: secure, now: time.Now}
}

// Middleware attaches the caller's session to the request context, starting
// a new one when the cookie is missing, forged or expired.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value, ok := m.read(r)
		if !ok {
			sid, err := newSessionID()
			if err != nil {
				http.Error(w, "failed to start session", http.StatusInternalServerError)
				return
			}
			value = cookieValue{SID: sid}
		}

		sess, existed := m.sessions.Get(value.SID)
		if !existed {
			restore(sess, value)
		}
		if !ok {
			if err := m.Persist(w, sess); err != nil {
				log.Printf("[ERROR] issue session cookie: %v", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(state.WithSession(r.Context(), sess)))
	})
}

// Persist writes the session id and the current view and month to the
// cookie.
func (m *Manager) Persist(w http.ResponseWriter, sess *state.Session) error {
	value := cookieValue{
		SID:   sess.ID,
		View:  string(sess.View.View()),
		Month: sess.Date.Snapshot().Month.Format(monthLayout),
		Exp:   m.now().Add(cookieMaxAge).Unix(),
	}

	encoded, err := m.codec.Encode(cookieName, value)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  time.Unix(value.Exp, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) read(r *http.Request) (cookieValue, bool) {
	var value cookieValue

	c, err := r.Cookie(cookieName)
	if err != nil {
		return value, false
	}
	if err := m.codec.Decode(cookieName, c.Value, &value); err != nil {
		return value, false
	}
	if value.SID == "" || time.Unix(value.Exp, 0).Before(m.now()) {
		return value, false
	}
	return value, true
}

func restore(sess *state.Session, value cookieValue) {
	if v, ok := state.ParseView(value.View); ok {
		sess.View.SetView(v)
	}
	if value.Month == "" {
		return
	}
	month, err := time.ParseInLocation(monthLayout, value.Month, sess.Date.Location())
	if err != nil {
		return
	}
	sess.Date.SetMonthOf(month)
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
