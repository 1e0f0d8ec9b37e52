package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNoIdentity is returned when a request has neither a user nor a session
var ErrNoIdentity = errors.New("request has no cart identity")

// Identity is what a request knows about who is shopping
type Identity interface {
	CurrentUserID() (uint, bool)
	CurrentSessionID() string
}

// RequestIdentity is the plain Identity built by the transport layer
type RequestIdentity struct {
	UserID    uint
	SessionID string
}

// CurrentUserID returns the authenticated user, if any
func (r RequestIdentity) CurrentUserID() (uint, bool) {
	return r.UserID, r.UserID != 0
}

// CurrentSessionID returns the guest session id
func (r RequestIdentity) CurrentSessionID() string {
	return r.SessionID
}

// Owner keys a cart by user or, for guests, by session
type Owner struct {
	UserID    uint
	SessionID string
}

// UserOwner returns the owner of an authenticated user's cart
func UserOwner(userID uint) Owner {
	return Owner{UserID: userID}
}

// SessionOwner returns the owner of a guest cart
func SessionOwner(sessionID string) Owner {
	return Owner{SessionID: sessionID}
}

// OwnerOf resolves the owner for a request. An authenticated user always
// wins over the session.
func OwnerOf(id Identity) Owner {
	if userID, ok := id.CurrentUserID(); ok {
		return UserOwner(userID)
	}
	return SessionOwner(id.CurrentSessionID())
}

// IsUser reports whether this is an authenticated user's cart
func (o Owner) IsUser() bool {
	return o.UserID != 0
}

// Validate fails for an owner with no user and no session
func (o Owner) Validate() error {
	if o.UserID == 0 && o.SessionID == "" {
		return ErrNoIdentity
	}
	return nil
}

// Key identifies the owner in session scoped stores
func (o Owner) Key() string {
	if o.IsUser() {
		return fmt.Sprintf("user:%d", o.UserID)
	}
	return "session:" + o.SessionID
}

// NewCart returns an unsaved cart for the owner
func (o Owner) NewCart() *Cart {
	c := &Cart{}
	if o.IsUser() {
		userID := o.UserID
		c.UserID = &userID
	} else {
		sessionID := o.SessionID
		c.SessionID = &sessionID
	}
	return c
}
