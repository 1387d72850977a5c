// Package transaction defines the transaction records crossing the bridge
// boundary and the shared status graph both transaction families obey.
//
// Peer transactions (directed user to user) and link transactions (sender to
// shareable URL) draw their ids from one monotonic id space and carry a
// status from the same twelve-valued enumeration. Five of the states are
// terminal; once a transaction reaches one of them no further forward
// progress is possible.
package transaction

import "fmt"

// Status is the state tag attached to every transaction. Wire values are
// fixed and stable across versions.
type Status int32

const (
	StatusNew           Status = 0
	StatusOnOtherDevice Status = 1
	StatusWaitingAccept Status = 2
	StatusWaitingData   Status = 3
	StatusConnecting    Status = 4
	StatusTransferring  Status = 5
	StatusCloudBuffered Status = 6
	StatusFinished      Status = 7
	StatusFailed        Status = 8
	StatusCanceled      Status = 9
	StatusRejected      Status = 10
	StatusDeleted       Status = 11
	StatusPaused        Status = 12

	// StatusUnknown is the mapping target for undefined wire values.
	StatusUnknown Status = -1
)

var statusNames = map[Status]string{
	StatusNew:           "new",
	StatusOnOtherDevice: "on_other_device",
	StatusWaitingAccept: "waiting_accept",
	StatusWaitingData:   "waiting_data",
	StatusConnecting:    "connecting",
	StatusTransferring:  "transferring",
	StatusCloudBuffered: "cloud_buffered",
	StatusFinished:      "finished",
	StatusFailed:        "failed",
	StatusCanceled:      "canceled",
	StatusRejected:      "rejected",
	StatusDeleted:       "deleted",
	StatusPaused:        "paused",
	StatusUnknown:       "unknown",
}

// StatusFromWire maps an integer wire value to its enumerator. Undefined
// values map to StatusUnknown rather than panicking.
func StatusFromWire(v int32) Status {
	s := Status(v)
	if _, ok := statusNames[s]; !ok || s == StatusUnknown {
		return StatusUnknown
	}
	return s
}

// Wire carries the wire value back.
func (s Status) Wire() int32 {
	return int32(s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// IsFinal reports whether s is one of the five terminal states.
func (s Status) IsFinal() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusCanceled, StatusRejected, StatusDeleted:
		return true
	}
	return false
}

// transitions is the permitted status graph. A missing entry means the
// source state admits no further transitions. Deleted is reachable only
// from the other terminal states, so two events for one id stay monotonic.
var transitions = map[Status][]Status{
	StatusNew: {
		StatusOnOtherDevice, StatusWaitingAccept, StatusWaitingData,
		StatusConnecting, StatusCanceled, StatusFailed,
	},
	StatusOnOtherDevice: {
		StatusFinished, StatusCanceled, StatusFailed,
	},
	StatusWaitingAccept: {
		StatusOnOtherDevice, StatusConnecting, StatusTransferring,
		StatusRejected, StatusCanceled, StatusFailed,
	},
	StatusWaitingData: {
		StatusConnecting, StatusTransferring, StatusCloudBuffered,
		StatusCanceled, StatusFailed,
	},
	StatusConnecting: {
		StatusTransferring, StatusCloudBuffered, StatusPaused,
		StatusCanceled, StatusFailed,
	},
	StatusTransferring: {
		StatusCloudBuffered, StatusFinished, StatusPaused,
		StatusCanceled, StatusFailed,
	},
	StatusCloudBuffered: {
		StatusFinished, StatusCanceled, StatusFailed,
	},
	StatusPaused: {
		StatusConnecting, StatusTransferring, StatusCanceled, StatusFailed,
	},
	StatusFinished: {StatusDeleted},
	StatusFailed:   {StatusDeleted},
	StatusCanceled: {StatusDeleted},
	StatusRejected: {StatusDeleted},
}

// CanTransition reports whether the status graph permits moving a
// transaction from one state to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
