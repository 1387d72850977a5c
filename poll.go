package gap

import (
	"github.com/sirupsen/logrus"

	"github.com/finchsend/gap/event"
)

// Poll pumps the engine and dispatches every notification pending at
// entry as a typed upcall on the sink, in the order the events occurred.
// Upcalls run on the calling goroutine; without Poll no upcall ever fires.
//
// Events enqueued while dispatching are delivered by the next Poll, which
// preserves FIFO order. Calling Poll from inside an upcall is a programmer
// error and fails with ErrReentrantPoll. A Finalize issued from inside an
// upcall stops further dispatch and defers the actual teardown until this
// call unwinds.
func (s *State) Poll() error {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return ErrInvalidHandle
	}
	if s.polling {
		s.mu.Unlock()
		return ErrReentrantPoll
	}
	s.polling = true
	eng := s.eng
	sink := s.sink
	s.mu.Unlock()

	defer s.pollDone()

	if code := eng.Pump(); !code.OK() {
		// Pending events stay queued for the next poll.
		logrus.WithFields(logrus.Fields{
			"function": "Poll",
			"handle":   s.handle,
			"status":   code.String(),
		}).Error("Engine pump failed")
		return translate("poll", code)
	}

	events := s.queue.Drain()
	for i, ev := range events {
		s.mu.Lock()
		stopped := s.finalized
		s.mu.Unlock()
		if stopped {
			// Finalize from inside a handler: drop the rest, teardown runs
			// in pollDone.
			logrus.WithFields(logrus.Fields{
				"function": "Poll",
				"handle":   s.handle,
				"dropped":  len(events) - i,
			}).Debug("Dispatch stopped by finalize")
			return nil
		}
		s.dispatch(sink, ev)
	}
	return nil
}

// pollDone clears the reentrancy guard and runs a teardown deferred by a
// mid-dispatch Finalize.
func (s *State) pollDone() {
	s.mu.Lock()
	s.polling = false
	deferred := s.finalizeDeferred
	s.finalizeDeferred = false
	s.mu.Unlock()
	if deferred {
		s.teardown()
	}
}

// dispatch converts one event into its upcall. A panicking handler must
// not drop the remaining queue: the panic is recovered, reported through
// OnCritical, and dispatch continues.
func (s *State) dispatch(sink Sink, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function": "dispatch",
				"handle":   s.handle,
				"event":    eventName(ev),
				"panic":    r,
			}).Error("Upcall panicked")
			s.reportCritical(sink)
		}
	}()

	switch e := ev.(type) {
	case event.Critical:
		sink.OnCritical()
	case event.Connection:
		sink.OnConnection(e.Connected, e.StillTrying, e.LastError)
	case event.UpdateUser:
		sink.OnUpdateUser(e.User)
	case event.NewSwagger:
		sink.OnNewSwagger(e.User)
	case event.DeletedSwagger:
		sink.OnDeletedSwagger(e.UserID)
	case event.DeletedFavorite:
		sink.OnDeletedFavorite(e.UserID)
	case event.UserStatus:
		sink.OnUserStatus(e.UserID, e.Online)
	case event.AvatarAvailable:
		sink.OnAvatarAvailable(e.UserID)
	case event.PeerTransaction:
		sink.OnPeerTransaction(e.Transaction)
	case event.LinkTransaction:
		sink.OnLink(e.Transaction)
	}
}

// reportCritical invokes OnCritical while shielding the dispatcher from a
// second panic.
func (s *State) reportCritical(sink Sink) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function": "reportCritical",
				"handle":   s.handle,
				"panic":    r,
			}).Error("OnCritical panicked")
		}
	}()
	sink.OnCritical()
}

func eventName(ev event.Event) string {
	switch ev.(type) {
	case event.Critical:
		return "critical"
	case event.Connection:
		return "connection"
	case event.UpdateUser:
		return "update_user"
	case event.NewSwagger:
		return "new_swagger"
	case event.DeletedSwagger:
		return "deleted_swagger"
	case event.DeletedFavorite:
		return "deleted_favorite"
	case event.UserStatus:
		return "user_status"
	case event.AvatarAvailable:
		return "avatar_available"
	case event.PeerTransaction:
		return "peer_transaction"
	case event.LinkTransaction:
		return "link_transaction"
	}
	return "unknown"
}
