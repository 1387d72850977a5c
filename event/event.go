// Package event defines the typed notifications the engine produces and the
// per-handle FIFO they wait in until the host polls.
//
// One event type exists per upcall slot. The queue preserves the order
// events occurred inside the engine; the pump drains it on demand and the
// dispatcher converts each event into exactly one upcall.
package event

import (
	"github.com/finchsend/gap/transaction"
	"github.com/finchsend/gap/user"
)

// Event is one pending upcall. The interface is sealed: only the types in
// this package cross the queue.
type Event interface {
	event()
}

// Critical signals an unrecoverable engine fault.
type Critical struct{}

// Connection signals a server session state change. Connected true means
// the session is authenticated. Connected false with StillTrying true is a
// transient failure the engine is still retrying; with StillTrying false
// the failure is terminal and a new login attempt is permitted.
type Connection struct {
	Connected   bool
	StillTrying bool
	LastError   string
}

// UpdateUser signals that a user appeared or changed.
type UpdateUser struct {
	User user.User
}

// NewSwagger signals that a user joined the swagger set.
type NewSwagger struct {
	User user.User
}

// DeletedSwagger signals that a user left the swagger set.
type DeletedSwagger struct {
	UserID int32
}

// DeletedFavorite signals that a user was removed from the favorites.
type DeletedFavorite struct {
	UserID int32
}

// UserStatus signals a presence flip.
type UserStatus struct {
	UserID int32
	Online bool
}

// AvatarAvailable signals that avatar bytes for a user are ready.
type AvatarAvailable struct {
	UserID int32
}

// PeerTransaction carries the whole peer transaction record at its new
// state.
type PeerTransaction struct {
	Transaction transaction.Peer
}

// LinkTransaction carries the whole link transaction record at its new
// state.
type LinkTransaction struct {
	Transaction transaction.Link
}

func (Critical) event()        {}
func (Connection) event()      {}
func (UpdateUser) event()      {}
func (NewSwagger) event()      {}
func (DeletedSwagger) event()  {}
func (DeletedFavorite) event() {}
func (UserStatus) event()      {}
func (AvatarAvailable) event() {}
func (PeerTransaction) event() {}
func (LinkTransaction) event() {}
