package gap

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/finchsend/gap/engine"
	"github.com/finchsend/gap/event"
	"github.com/finchsend/gap/sim"
	"github.com/finchsend/gap/status"
	"github.com/finchsend/gap/user"
)

// State projects one engine instance into the host. All bridge calls and
// all upcalls happen on the goroutine that owns the State; internal locking
// only keeps accidental cross-goroutine use memory-safe.
type State struct {
	mu     sync.Mutex
	handle Handle
	opts   Options
	eng    engine.Engine
	sink   Sink
	queue  *event.Queue

	outputDir string

	polling          bool
	finalized        bool
	finalizeDeferred bool
}

// Initialize creates one engine instance and returns its live State. The
// three directories are created if absent; failing that, the call fails
// and no handle is issued.
func Initialize(opts Options, sink Sink) (*State, error) {
	dirs := map[string]string{
		"download":              opts.DownloadDir,
		"persistent config":     opts.PersistentConfigDir,
		"non-persistent config": opts.NonPersistentConfigDir,
	}
	for name, dir := range dirs {
		if dir == "" {
			return nil, fmt.Errorf("gap: initialize: %s directory not set", name)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("gap: initialize: create %s directory: %w", name, err)
		}
	}

	if sink == nil {
		sink = NoopSink{}
	}
	eng := opts.Engine
	if eng == nil {
		eng = sim.New(sim.DefaultOptions())
	}

	s := &State{
		opts:      opts,
		eng:       eng,
		sink:      sink,
		queue:     event.NewQueue(),
		outputDir: opts.DownloadDir,
	}

	cfg := engine.Config{
		Production:             opts.Production,
		DownloadDir:            opts.DownloadDir,
		PersistentConfigDir:    opts.PersistentConfigDir,
		NonPersistentConfigDir: opts.NonPersistentConfigDir,
	}
	if code := eng.Start(cfg, s.queue); !code.OK() {
		return nil, translate("initialize", code)
	}

	// A user-chosen output directory from an earlier session wins over the
	// host default.
	if persisted := loadOutputDir(opts.PersistentConfigDir); persisted != "" {
		s.outputDir = persisted
		eng.SetOutputDir(persisted)
	}

	s.handle = registerState(s)
	logrus.WithFields(logrus.Fields{
		"function":     "Initialize",
		"handle":       s.handle,
		"production":   opts.Production,
		"download_dir": opts.DownloadDir,
		"mirroring":    opts.EnableMirroring,
	}).Info("Engine instance initialized")
	return s, nil
}

// Handle returns the opaque token naming this instance, zero after
// Finalize.
func (s *State) Handle() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return 0
	}
	return s.handle
}

// Finalize releases every resource owned by the handle. A nil receiver
// (the "no handle" value) is a no-op; a second Finalize on the same live
// State is a programmer error. Called from inside an upcall, the actual
// teardown is deferred until the running Poll unwinds, but the handle is
// invalid as soon as Finalize returns.
func (s *State) Finalize() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return ErrInvalidHandle
	}
	s.finalized = true
	h := s.handle
	deferred := s.polling
	s.finalizeDeferred = deferred
	s.mu.Unlock()

	unregisterState(h)
	logrus.WithFields(logrus.Fields{
		"function": "Finalize",
		"handle":   h,
		"deferred": deferred,
	}).Info("Engine instance finalized")
	if deferred {
		return nil
	}
	return s.teardown()
}

func (s *State) teardown() error {
	s.queue.Clear()
	if err := s.eng.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "teardown",
			"error":    err.Error(),
		}).Error("Engine close failed")
		return err
	}
	return nil
}

// engineRef returns the engine behind a live handle.
func (s *State) engineRef() (engine.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, ErrInvalidHandle
	}
	return s.eng, nil
}

// liveEngine is engineRef for accessors, which return value-domain
// sentinels instead of errors.
func (s *State) liveEngine() (engine.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, false
	}
	return s.eng, true
}

// Login starts an authentication attempt. A nil error means the attempt
// was accepted for processing; the authenticated session is announced by
// OnConnection(true, _, _).
func (s *State) Login(email, hashedPassword string, devicePushToken ...string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	token := ""
	if len(devicePushToken) > 0 {
		token = devicePushToken[0]
	}
	return translate("login", eng.Login(email, hashedPassword, token))
}

// FacebookConnect starts a token-based session in place of an email
// login. Completion follows the login dispatch rule. The preferred email
// is attached to accounts created through this path.
func (s *State) FacebookConnect(facebookToken, preferredEmail string, devicePushToken ...string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	token := ""
	if len(devicePushToken) > 0 {
		token = devicePushToken[0]
	}
	return translate("facebook connect", eng.FacebookConnect(facebookToken, preferredEmail, token))
}

// FacebookAppID returns the application id the host needs to start the
// Facebook login flow, empty after Finalize.
func (s *State) FacebookAppID() string {
	eng, ok := s.liveEngine()
	if !ok {
		return ""
	}
	return eng.FacebookAppID()
}

// Register creates a new account. Completion follows the login dispatch
// rule.
func (s *State) Register(fullname, email, hashedPassword string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("register", eng.Register(fullname, email, hashedPassword))
}

// Logout tears down the session but keeps the handle; another Login may
// follow.
func (s *State) Logout() error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("logout", eng.Logout())
}

// CleanState logs out and drops every pending notification.
func (s *State) CleanState() error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	eng.Logout()
	s.queue.Clear()
	return nil
}

// LoggedIn is a synchronous snapshot of the session state.
func (s *State) LoggedIn() bool {
	eng, ok := s.liveEngine()
	if !ok {
		return false
	}
	return eng.LoggedIn()
}

// Features returns the server's feature-flag map for the session, nil
// before the session is authenticated.
func (s *State) Features() map[string]string {
	eng, ok := s.liveEngine()
	if !ok {
		return nil
	}
	return eng.Features()
}

// DeviceStatus reports this device's connection standing as a status
// code.
func (s *State) DeviceStatus() status.Code {
	eng, ok := s.liveEngine()
	if !ok {
		return status.Unknown
	}
	return eng.DeviceStatus()
}

func (s *State) SelfID() int32 {
	eng, ok := s.liveEngine()
	if !ok {
		return 0
	}
	return eng.Self().ID
}

func (s *State) SelfEmail() string {
	eng, ok := s.liveEngine()
	if !ok {
		return ""
	}
	return eng.SelfEmail()
}

func (s *State) SelfFullname() string {
	eng, ok := s.liveEngine()
	if !ok {
		return ""
	}
	return eng.Self().Fullname
}

func (s *State) SelfHandle() string {
	eng, ok := s.liveEngine()
	if !ok {
		return ""
	}
	return eng.Self().Handle
}

func (s *State) SelfDeviceID() string {
	eng, ok := s.liveEngine()
	if !ok {
		return ""
	}
	return eng.SelfDeviceID()
}

// Self returns the cached record for the local user.
func (s *State) Self() user.User {
	eng, ok := s.liveEngine()
	if !ok {
		return user.User{}
	}
	return eng.Self()
}

func (s *State) SetEmail(email, password string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("set email", eng.SetEmail(email, password))
}

func (s *State) SetSelfFullname(name string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("set fullname", eng.SetFullname(name))
}

func (s *State) SetSelfHandle(handle string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("set handle", eng.SetHandle(handle))
}

func (s *State) ChangePassword(oldPassword, newPassword string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("change password", eng.ChangePassword(oldPassword, newPassword))
}

func (s *State) SetDeviceName(name string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("set device name", eng.SetDeviceName(name))
}

// UpdateAvatar uploads a new avatar for the local user.
func (s *State) UpdateAvatar(data []byte) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("update avatar", eng.UpdateAvatar(data))
}

// SetProxy configures an outbound proxy.
func (s *State) SetProxy(t engine.ProxyType, host string, port uint16, username, password string) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("set proxy", eng.SetProxy(engine.Proxy{
		Type:     t,
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
	}))
}

// UnsetProxy removes the outbound proxy of the given category.
func (s *State) UnsetProxy(t engine.ProxyType) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("unset proxy", eng.UnsetProxy(t))
}

// InternetConnection tells the engine the host OS reported a network-state
// change; the engine may accelerate reconnection.
func (s *State) InternetConnection(connected bool) error {
	eng, err := s.engineRef()
	if err != nil {
		return err
	}
	return translate("internet connection", eng.InternetConnection(connected))
}
