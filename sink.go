package gap

import (
	"github.com/finchsend/gap/transaction"
	"github.com/finchsend/gap/user"
)

// Sink carries the host's callback slots. Every upcall fires on the
// goroutine that called Poll; a sink that only cares about some slots
// embeds NoopSink for the rest.
type Sink interface {
	// OnCritical fires on an unrecoverable engine fault.
	OnCritical()
	// OnConnection fires when the server session state changes. Connected
	// true means the session is authenticated. Connected false with
	// stillTrying true is transient: do not call Login again. Connected
	// false with stillTrying false is terminal: a new Login is permitted.
	OnConnection(connected, stillTrying bool, lastError string)
	// OnUpdateUser fires when a user appeared or changed.
	OnUpdateUser(u user.User)
	// OnNewSwagger fires when a user joins the swagger set.
	OnNewSwagger(u user.User)
	// OnDeletedSwagger fires when a user is removed from the swagger set.
	OnDeletedSwagger(userID int32)
	// OnDeletedFavorite fires when a user is removed from the favorites.
	OnDeletedFavorite(userID int32)
	// OnUserStatus fires on a presence flip.
	OnUserStatus(userID int32, online bool)
	// OnAvatarAvailable fires when avatar bytes for a user are ready.
	OnAvatarAvailable(userID int32)
	// OnPeerTransaction fires with the whole record each time a peer
	// transaction changes. Callers must not assume only the status moved.
	OnPeerTransaction(t transaction.Peer)
	// OnLink fires with the whole record each time a link transaction
	// changes.
	OnLink(l transaction.Link)
}

// NoopSink implements every slot as a no-op. Embed it to implement only
// the slots a host cares about.
type NoopSink struct{}

var _ Sink = NoopSink{}

func (NoopSink) OnCritical()                                                {}
func (NoopSink) OnConnection(connected, stillTrying bool, lastError string) {}
func (NoopSink) OnUpdateUser(u user.User)                                   {}
func (NoopSink) OnNewSwagger(u user.User)                                   {}
func (NoopSink) OnDeletedSwagger(userID int32)                              {}
func (NoopSink) OnDeletedFavorite(userID int32)                             {}
func (NoopSink) OnUserStatus(userID int32, online bool)                     {}
func (NoopSink) OnAvatarAvailable(userID int32)                             {}
func (NoopSink) OnPeerTransaction(t transaction.Peer)                       {}
func (NoopSink) OnLink(l transaction.Link)                                  {}
