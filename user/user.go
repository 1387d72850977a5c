// Package user defines the user record the bridge hands across the
// boundary.
//
// Lookups never fail with an error: a user that the engine does not know is
// represented by the absent sentinel, a record whose Fullname is empty.
package user

// User is the identity and cached server metadata for one user.
type User struct {
	ID          int32
	Fullname    string
	Handle      string
	Online      bool
	Swagger     bool
	Deleted     bool
	Ghost       bool
	PhoneNumber string
	MetaID      string
}

// Absent reports whether u is the not-found sentinel.
func (u User) Absent() bool {
	return u.Fullname == ""
}
