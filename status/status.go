// Package status defines the closed set of outcome codes shared between the
// bridge and the engine.
//
// Every status-coded operation on the bridge surface returns one of these
// codes on the wire. Ok is the single success value; everything else is a
// distinct error kind. Integer values received from the engine that fall
// outside the closed set map to Unknown rather than panicking.
package status

import "fmt"

// Code is one outcome of a status-coded bridge or engine operation.
type Code int32

const (
	// Unknown is the mapping target for wire values outside the closed set.
	Unknown Code = 0
	// Ok is the single success value.
	Ok Code = 1

	Error                   Code = 2
	NetworkError            Code = 3
	InternalError           Code = 4
	APIError                Code = 5
	NoDevice                Code = 6
	WrongPassport           Code = 7
	NoFile                  Code = 8
	FileNotFound            Code = 9
	NotLoggedIn             Code = 10
	EmailAlreadyRegistered  Code = 11
	HandleAlreadyRegistered Code = 12
	TransactionNotPermitted Code = 13
	BadPassword             Code = 14
	UnknownUser             Code = 15
	DataNotFetchedYet       Code = 16
)

var names = map[Code]string{
	Unknown:                 "unknown",
	Ok:                      "ok",
	Error:                   "error",
	NetworkError:            "network error",
	InternalError:           "internal error",
	APIError:                "api error",
	NoDevice:                "no device",
	WrongPassport:           "wrong passport",
	NoFile:                  "no file",
	FileNotFound:            "file not found",
	NotLoggedIn:             "not logged in",
	EmailAlreadyRegistered:  "email already registered",
	HandleAlreadyRegistered: "handle already registered",
	TransactionNotPermitted: "transaction operation not permitted",
	BadPassword:             "bad password",
	UnknownUser:             "unknown user",
	DataNotFetchedYet:       "data not fetched yet",
}

// FromWire maps an integer wire value to its enumerator. Values outside the
// closed set map to Unknown.
func FromWire(v int32) Code {
	c := Code(v)
	if _, ok := names[c]; !ok {
		return Unknown
	}
	return c
}

// Wire carries the wire value back.
func (c Code) Wire() int32 {
	return int32(c)
}

// OK reports whether c is the success value.
func (c Code) OK() bool {
	return c == Ok
}

func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int32(c))
}

// Kind groups codes into the coarse error taxonomy the bridge exposes.
type Kind uint8

const (
	KindNone Kind = iota
	KindGeneric
	KindSession
	KindState
	KindNetwork
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindGeneric:
		return "generic"
	case KindSession:
		return "session"
	case KindState:
		return "state"
	case KindNetwork:
		return "network"
	case KindInternal:
		return "internal"
	}
	return "invalid"
}

// Kind classifies the code. Ok classifies as KindNone.
func (c Code) Kind() Kind {
	switch c {
	case Ok:
		return KindNone
	case NotLoggedIn, WrongPassport, BadPassword:
		return KindSession
	case TransactionNotPermitted:
		return KindState
	case NetworkError:
		return KindNetwork
	case InternalError:
		return KindInternal
	default:
		return KindGeneric
	}
}
