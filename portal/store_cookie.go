package portal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"employee-portal/core"
)

// SessionName is the gorilla session the bundle is kept in.
const SessionName = "portal_session"

// CookieStore keeps the bundle in a gorilla session bound to one request and
// its response writer. Build one per request.
type CookieStore struct {
	store sessions.Store
	r     *http.Request
	w     http.ResponseWriter
}

func NewCookieStore(store sessions.Store, r *http.Request, w http.ResponseWriter) *CookieStore {
	return &CookieStore{store: store, r: r, w: w}
}

func (s *CookieStore) Get(context.Context) Lookup {
	sess, err := s.store.Get(s.r, SessionName)
	if err != nil {
		// gorilla hands back a fresh session when the cookie fails to decode.
		return Lookup{State: Malformed, Err: fmt.Errorf("%w: %v", ErrMalformedLocalState, err)}
	}
	raw, ok := sess.Values[StorageKey].(string)
	if !ok {
		if _, exists := sess.Values[StorageKey]; exists {
			return Lookup{State: Malformed, Err: fmt.Errorf("%w: unexpected value type", ErrMalformedLocalState)}
		}
		return Lookup{State: Missing}
	}
	return decodeLookup([]byte(raw), true)
}

func (s *CookieStore) Set(_ context.Context, bundle core.TokenBundle) error {
	data, err := encodeBundle(bundle)
	if err != nil {
		return err
	}
	sess, err := s.session()
	if err != nil {
		return err
	}
	sess.Values[StorageKey] = string(data)
	return sess.Save(s.r, s.w)
}

func (s *CookieStore) Clear(context.Context) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	delete(sess.Values, StorageKey)
	return sess.Save(s.r, s.w)
}

// session returns the request's session for writing. A cookie that failed
// to decode still yields a fresh session, which a write replaces.
func (s *CookieStore) session() (*sessions.Session, error) {
	sess, err := s.store.Get(s.r, SessionName)
	if sess == nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}
