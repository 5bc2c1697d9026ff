package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/BerylCAtieno/invoice-checker/internal/form"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

const SessionCookie = "ic_session"

type session struct {
	form     *form.Form
	lastSeen time.Time
}

// SessionStore keeps one Form per browser session in memory.
type SessionStore struct {
	newForm func() *form.Form
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewSessionStore(newForm func() *form.Form) *SessionStore {
	return &SessionStore{
		newForm:  newForm,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Get returns the caller's form, starting a session and setting the cookie
// when the request carries none or an unknown one.
func (s *SessionStore) Get(w http.ResponseWriter, r *http.Request) *form.Form {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.RLock()
		sess, ok := s.sessions[c.Value]
		s.mu.RUnlock()
		if ok {
			s.mu.Lock()
			sess.lastSeen = s.now()
			s.mu.Unlock()
			return sess.form
		}
	}

	id := utils.GenerateID()
	sess := &session{form: s.newForm(), lastSeen: s.now()}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess.form
}

// Sweep drops sessions idle for longer than maxIdle, except those with a
// comparison still running. It returns how many were removed.
func (s *SessionStore) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) && !sess.form.Loading() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len is the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
