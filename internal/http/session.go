package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"budgetdash/internal/cache"
	"budgetdash/internal/dashboard"
	"budgetdash/internal/log"
	"budgetdash/internal/render"
)

// SessionCookie identifies a browser's dashboard. It is not authentication.
const SessionCookie = "budgetdash_session"

// session is one open dashboard: its controller and the charts the browser
// currently draws.
type session struct {
	id     string
	ctrl   *dashboard.Controller
	charts *render.ChartSet
}

// sessionStore keeps sessions in a sliding-TTL LRU cache keyed by cookie value.
type sessionStore struct {
	cache   *cache.LRUCache[*session]
	ttl     time.Duration
	newCtrl func() *dashboard.Controller
	logger  *log.Logger
}

func newSessionStore(maxSessions int, ttl time.Duration, newCtrl func() *dashboard.Controller, logger *log.Logger) *sessionStore {
	st := &sessionStore{ttl: ttl, newCtrl: newCtrl, logger: logger}
	st.cache = cache.NewLRUCache[*session](maxSessions, ttl,
		cache.WithSlidingExpiration[*session](),
		cache.WithOnEvict(func(key string, _ *session) {
			st.logger.Debug("Session evicted", log.FieldSessionID, key)
		}),
	)
	return st
}

// lookup returns the session named by the request cookie, if it is still live.
func (st *sessionStore) lookup(r *http.Request) (*session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return nil, false
	}
	return st.cache.Get(c.Value)
}

// open starts a fresh dashboard for the browser, reusing its cookie id when it
// has one. A full page load resets the dashboard the same way a reload does.
func (st *sessionStore) open(w http.ResponseWriter, r *http.Request) *session {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	sess := &session{id: id, ctrl: st.newCtrl(), charts: render.NewChartSet()}
	st.cache.Set(id, sess)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(st.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// resume returns the live session, or opens and loads a new one when the old
// one expired. fresh reports the latter; toasts are its load notifications.
func (st *sessionStore) resume(ctx context.Context, w http.ResponseWriter, r *http.Request) (sess *session, toasts []dashboard.Toast, fresh bool) {
	if sess, ok := st.lookup(r); ok {
		return sess, nil, false
	}
	sess = st.open(w, r)
	st.logger.InfoContext(ctx, "Session expired, starting a new one", log.FieldSessionID, sess.id)
	return sess, sess.ctrl.Load(ctx), true
}

// Size is the number of live sessions.
func (st *sessionStore) Size() int {
	return st.cache.Size()
}
