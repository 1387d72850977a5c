// Package gap projects a peer-to-peer file-transfer engine into a host
// application through a handle-based bridge.
//
// One State is one engine instance. The host drives everything
// cooperatively: bridge calls return quickly, asynchronous engine progress
// waits in a per-handle queue, and Poll drains that queue into typed
// upcalls on the host-supplied Sink. No upcall ever fires outside Poll.
//
// Example:
//
//	type mySink struct {
//	    gap.NoopSink
//	}
//
//	func (mySink) OnConnection(connected, stillTrying bool, lastError string) {
//	    fmt.Printf("connected=%v\n", connected)
//	}
//
//	func (mySink) OnPeerTransaction(t transaction.Peer) {
//	    fmt.Printf("transaction %d is now %s\n", t.ID, t.Status)
//	}
//
//	state, err := gap.Initialize(gap.DefaultOptions("/var/lib/finch"), mySink{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Finalize()
//
//	err = state.Login("alice@example.com", gap.HashPassword("alice@example.com", "secret"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    if err := state.Poll(); err != nil {
//	        log.Fatal(err)
//	    }
//	    time.Sleep(200 * time.Millisecond)
//	}
//
// Status-coded operations translate engine failures into a typed
// *StateError carrying the operation name and the status enumerator.
// Lookups never fail: an unknown user comes back as the absent sentinel, a
// record with an empty fullname.
package gap
