// Package portal is the client half of the employee portal: it keeps the
// token bundle returned by login, attaches it to gateway calls, and binds
// session state into the shared page header.
package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"employee-portal/core"
)

// StorageKey is the fixed key the token bundle is stored under.
const StorageKey = "portal.jwt"

// ErrMalformedLocalState marks a stored blob that could not be parsed.
var ErrMalformedLocalState = errors.New("malformed local session state")

// LookupState says what a store found under StorageKey.
type LookupState int

const (
	// Missing means nothing is stored.
	Missing LookupState = iota
	// Present means a bundle was stored and parsed.
	Present
	// Malformed means a blob is stored but does not parse.
	Malformed
	// Unreadable means the backing storage itself failed.
	Unreadable
)

func (s LookupState) String() string {
	switch s {
	case Missing:
		return "missing"
	case Present:
		return "present"
	case Malformed:
		return "malformed"
	case Unreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("LookupState(%d)", int(s))
	}
}

// Lookup is the result of reading the session. Only Present carries a
// bundle; every other state reads as logged out, with Err kept for diagnostics.
type Lookup struct {
	State  LookupState
	Bundle core.TokenBundle
	Err    error
}

// Token returns the stored bundle when one is present.
func (l Lookup) Token() (core.TokenBundle, bool) {
	if l.State != Present {
		return core.TokenBundle{}, false
	}
	return l.Bundle, true
}

// LoggedIn reports whether a bundle with an ID token is stored.
func (l Lookup) LoggedIn() bool {
	b, ok := l.Token()
	return ok && b.IDToken != ""
}

// SessionStore persists one token bundle. Set overwrites whatever is stored
// without merging; concurrent writers race and the last write wins.
type SessionStore interface {
	Get(ctx context.Context) Lookup
	Set(ctx context.Context, bundle core.TokenBundle) error
	Clear(ctx context.Context) error
}

func encodeBundle(b core.TokenBundle) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// decodeLookup turns a stored blob into a Lookup. found=false means nothing
// was stored under the key.
func decodeLookup(raw []byte, found bool) Lookup {
	if !found {
		return Lookup{State: Missing}
	}
	var b core.TokenBundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return Lookup{State: Malformed, Err: fmt.Errorf("%w: %v", ErrMalformedLocalState, err)}
	}
	return Lookup{State: Present, Bundle: b}
}

func unreadable(err error) Lookup {
	return Lookup{State: Unreadable, Err: err}
}
