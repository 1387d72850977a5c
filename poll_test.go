package gap

import (
	"errors"
	"testing"

	"github.com/finchsend/gap/transaction"
	"github.com/finchsend/gap/user"
)

// hookSink forwards each slot to an optional closure, which lets a test
// react from inside an upcall.
type hookSink struct {
	NoopSink
	onCritical        func()
	onConnection      func(connected, stillTrying bool, lastError string)
	onUserStatus      func(userID int32, online bool)
	onPeerTransaction func(t transaction.Peer)
	onLink            func(l transaction.Link)
	onUpdateUser      func(u user.User)
}

func (h *hookSink) OnCritical() {
	if h.onCritical != nil {
		h.onCritical()
	}
}

func (h *hookSink) OnConnection(connected, stillTrying bool, lastError string) {
	if h.onConnection != nil {
		h.onConnection(connected, stillTrying, lastError)
	}
}

func (h *hookSink) OnUserStatus(userID int32, online bool) {
	if h.onUserStatus != nil {
		h.onUserStatus(userID, online)
	}
}

func (h *hookSink) OnPeerTransaction(t transaction.Peer) {
	if h.onPeerTransaction != nil {
		h.onPeerTransaction(t)
	}
}

func (h *hookSink) OnLink(l transaction.Link) {
	if h.onLink != nil {
		h.onLink(l)
	}
}

func (h *hookSink) OnUpdateUser(u user.User) {
	if h.onUpdateUser != nil {
		h.onUpdateUser(u)
	}
}

func TestPollDispatchesInFIFOOrder(t *testing.T) {
	type flip struct {
		id     int32
		online bool
	}
	var got []flip
	sink := &hookSink{
		onUserStatus: func(id int32, online bool) {
			got = append(got, flip{id, online})
		},
	}
	s, eng := newTestState(t, sink)
	loginState(t, s)

	eng.SetUserOnline(7, true)
	eng.SetUserOnline(8, true)
	eng.SetUserOnline(7, false)
	if err := s.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	want := []flip{{7, true}, {8, true}, {7, false}}
	if len(got) != len(want) {
		t.Fatalf("dispatched %d flips, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("flip[%d] = %v, want %v", i, got[i], w)
		}
	}
}

func TestPollWithoutEventsIsQuiet(t *testing.T) {
	called := false
	sink := &hookSink{onUserStatus: func(int32, bool) { called = true }}
	s, _ := newTestState(t, sink)
	loginState(t, s)

	if err := s.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if called {
		t.Error("no upcall expected on an empty queue")
	}
}

func TestEventsDuringDispatchDeferToNextPoll(t *testing.T) {
	var polls [][]int32
	var current []int32
	sink := &hookSink{}
	s, eng := newTestState(t, sink)
	sink.onUserStatus = func(id int32, online bool) {
		current = append(current, id)
		if id == 7 {
			// Enqueued mid-dispatch; must not appear in this poll.
			eng.SetUserOnline(9, true)
		}
	}
	loginState(t, s)

	eng.SetUserOnline(7, true)
	eng.SetUserOnline(8, true)
	if err := s.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	polls = append(polls, current)
	current = nil
	if err := s.Poll(); err != nil {
		t.Fatalf("second Poll failed: %v", err)
	}
	polls = append(polls, current)

	if len(polls[0]) != 2 || polls[0][0] != 7 || polls[0][1] != 8 {
		t.Errorf("first poll dispatched %v, want [7 8]", polls[0])
	}
	if len(polls[1]) != 1 || polls[1][0] != 9 {
		t.Errorf("second poll dispatched %v, want [9]", polls[1])
	}
}

func TestReentrantPollFails(t *testing.T) {
	var inner error
	sink := &hookSink{}
	s, eng := newTestState(t, sink)
	sink.onUserStatus = func(int32, bool) {
		inner = s.Poll()
	}
	loginState(t, s)

	eng.SetUserOnline(7, true)
	if err := s.Poll(); err != nil {
		t.Fatalf("outer Poll failed: %v", err)
	}
	if !errors.Is(inner, ErrReentrantPoll) {
		t.Errorf("inner Poll = %v, want ErrReentrantPoll", inner)
	}
}

func TestPanickingUpcallReportsCriticalAndContinues(t *testing.T) {
	criticals := 0
	var delivered []int32
	sink := &hookSink{
		onCritical: func() { criticals++ },
		onUserStatus: func(id int32, online bool) {
			if id == 7 {
				panic("handler exploded")
			}
			delivered = append(delivered, id)
		},
	}
	s, eng := newTestState(t, sink)
	loginState(t, s)

	eng.SetUserOnline(7, true)
	eng.SetUserOnline(8, true)
	if err := s.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	if criticals != 1 {
		t.Errorf("OnCritical fired %d times, want 1", criticals)
	}
	if len(delivered) != 1 || delivered[0] != 8 {
		t.Errorf("delivered %v after the panic, want [8]", delivered)
	}
}

func TestPanickingCriticalHandlerIsContained(t *testing.T) {
	sink := &hookSink{
		onCritical:   func() { panic("critical handler also broken") },
		onUserStatus: func(int32, bool) { panic("handler exploded") },
	}
	s, eng := newTestState(t, sink)
	loginState(t, s)

	eng.SetUserOnline(7, true)
	if err := s.Poll(); err != nil {
		t.Fatalf("Poll should survive a double panic, got %v", err)
	}
}

func TestFinalizeFromUpcallStopsDispatch(t *testing.T) {
	var delivered []int32
	var finalizeErr error
	sink := &hookSink{}
	s, eng := newTestState(t, sink)
	sink.onUserStatus = func(id int32, online bool) {
		delivered = append(delivered, id)
		if id == 7 {
			finalizeErr = s.Finalize()
		}
	}
	loginState(t, s)

	eng.SetUserOnline(7, true)
	eng.SetUserOnline(8, true)
	if err := s.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	if finalizeErr != nil {
		t.Errorf("Finalize from upcall = %v, want nil", finalizeErr)
	}
	if len(delivered) != 1 || delivered[0] != 7 {
		t.Errorf("delivered %v, want only [7]", delivered)
	}
	if s.Handle() != 0 {
		t.Error("handle should be invalid as soon as Finalize returns")
	}
	if err := s.Poll(); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Poll after mid-dispatch finalize = %v, want ErrInvalidHandle", err)
	}
}
