package gap

// Onboarding is a thin capability over one synthetic transaction. It
// carries the parent handle and its own transaction id and revalidates the
// parent through the handle registry on every call, so a finalized State
// invalidates its onboardings with it.
type Onboarding struct {
	handle Handle
	id     int32
}

// NewOnboarding fabricates an incoming transaction for UX rehearsal. The
// transfer phase lasts roughly durationSec. Onboarding transaction ids
// live in the ordinary id space.
func (s *State) NewOnboarding(path string, durationSec int) (*Onboarding, error) {
	eng, err := s.engineRef()
	if err != nil {
		return nil, err
	}
	id, err := translateID("new onboarding", eng.OnboardingReceive(path, durationSec))
	if err != nil {
		return nil, err
	}
	return &Onboarding{handle: s.Handle(), id: id}, nil
}

// ID returns the onboarding transaction's id.
func (o *Onboarding) ID() int32 {
	return o.id
}

func (o *Onboarding) parent() (*State, error) {
	s := lookupState(o.handle)
	if s == nil {
		return nil, ErrInvalidHandle
	}
	return s, nil
}

// SetPeerStatus flips the fake peer's online presence.
func (o *Onboarding) SetPeerStatus(online bool) error {
	s, err := o.parent()
	if err != nil {
		return err
	}
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("onboarding peer status", eng.OnboardingSetPeerStatus(o.id, online))
}

// SetPeerAvailability flips the fake peer's peer-to-peer reachability.
func (o *Onboarding) SetPeerAvailability(available bool) error {
	s, err := o.parent()
	if err != nil {
		return err
	}
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("onboarding peer availability", eng.OnboardingSetPeerAvailability(o.id, available))
}
