package gap

import "github.com/finchsend/gap/user"

// UserByID is an exact-match lookup. A record with empty Fullname is the
// absent sentinel, not an error.
func (s *State) UserByID(id int32) user.User {
	eng, ok := s.liveEngine()
	if !ok {
		return user.User{}
	}
	return eng.UserByID(id)
}

// UserByEmail is an exact-match lookup by email address.
func (s *State) UserByEmail(email string) user.User {
	eng, ok := s.liveEngine()
	if !ok {
		return user.User{}
	}
	return eng.UserByEmail(email)
}

// UserByHandle is an exact-match lookup by handle.
func (s *State) UserByHandle(handle string) user.User {
	eng, ok := s.liveEngine()
	if !ok {
		return user.User{}
	}
	return eng.UserByHandle(handle)
}

// UsersSearch is a case-insensitive substring search over fullname and
// handle.
func (s *State) UsersSearch(query string) []user.User {
	eng, ok := s.liveEngine()
	if !ok {
		return nil
	}
	return eng.UsersSearch(query)
}

// Swaggers returns the users the local self has exchanged files with.
func (s *State) Swaggers() []user.User {
	eng, ok := s.liveEngine()
	if !ok {
		return nil
	}
	return eng.Swaggers()
}

// Favorites returns the explicitly pinned user ids.
func (s *State) Favorites() []int32 {
	eng, ok := s.liveEngine()
	if !ok {
		return nil
	}
	return eng.Favorites()
}

// Favorite pins a user. The add is announced through OnUpdateUser.
func (s *State) Favorite(id int32) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("favorite", eng.Favorite(id))
}

// Unfavorite unpins a user. The removal is announced through
// OnDeletedFavorite.
func (s *State) Unfavorite(id int32) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("unfavorite", eng.Unfavorite(id))
}

// IsFavorite reports whether the user is pinned.
func (s *State) IsFavorite(id int32) bool {
	eng, ok := s.liveEngine()
	if !ok {
		return false
	}
	return eng.IsFavorite(id)
}

// UserStatus reports whether the user is currently online. Presence flips
// arrive asynchronously through OnUserStatus.
func (s *State) UserStatus(id int32) bool {
	eng, ok := s.liveEngine()
	if !ok {
		return false
	}
	return eng.UserStatus(id)
}

// Avatar returns the last-known avatar bytes, possibly empty.
func (s *State) Avatar(id int32) []byte {
	eng, ok := s.liveEngine()
	if !ok {
		return nil
	}
	return eng.Avatar(id)
}

// RefreshAvatar asks the engine for a fresher copy; completion arrives as
// OnAvatarAvailable.
func (s *State) RefreshAvatar(id int32) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("refresh avatar", eng.RefreshAvatar(id))
}
