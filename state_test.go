package gap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/finchsend/gap/sim"
	"github.com/finchsend/gap/status"
	"github.com/finchsend/gap/user"
)

func newTestState(t *testing.T, sink Sink) (*State, *sim.Sim) {
	t.Helper()
	eng := sim.New(sim.DefaultOptions())
	opts := DefaultOptions(t.TempDir())
	opts.Engine = eng
	s, err := Initialize(opts, sink)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { s.Finalize() })
	return s, eng
}

func loginState(t *testing.T, s *State) {
	t.Helper()
	if err := s.Login("self@example.com", HashPassword("self@example.com", "secret")); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := s.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if !s.LoggedIn() {
		t.Fatal("state should be logged in after the connection poll")
	}
}

func TestInitializeCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	opts := DefaultOptions(base)
	s, err := Initialize(opts, nil)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer s.Finalize()

	for _, dir := range []string{opts.DownloadDir, opts.PersistentConfigDir, opts.NonPersistentConfigDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
	if s.Handle() == 0 {
		t.Error("live state should carry a non-zero handle")
	}
	if got := s.OutputDir(); got != opts.DownloadDir {
		t.Errorf("OutputDir = %q, want %q", got, opts.DownloadDir)
	}
}

func TestInitializeRejectsMissingDirectories(t *testing.T) {
	opts := DefaultOptions(t.TempDir())
	opts.PersistentConfigDir = ""
	if _, err := Initialize(opts, nil); err == nil {
		t.Fatal("Initialize should fail without a persistent config dir")
	}
}

func TestHandlesAreUniqueAcrossInstances(t *testing.T) {
	a, _ := newTestState(t, nil)
	b, _ := newTestState(t, nil)
	if a.Handle() == b.Handle() {
		t.Errorf("two live states share handle %d", a.Handle())
	}
}

func TestFinalizeInvalidatesHandle(t *testing.T) {
	s, _ := newTestState(t, nil)
	loginState(t, s)
	h := s.Handle()
	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if s.Handle() != 0 {
		t.Error("finalized state should report the zero handle")
	}
	if lookupState(h) != nil {
		t.Error("finalized handle should not resolve in the registry")
	}
	if err := s.Login("self@example.com", "hash"); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Login after finalize = %v, want ErrInvalidHandle", err)
	}
	if err := s.Poll(); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Poll after finalize = %v, want ErrInvalidHandle", err)
	}

	// Accessors return value-domain sentinels, never errors.
	if s.LoggedIn() {
		t.Error("LoggedIn after finalize should be false")
	}
	if !s.Self().Absent() {
		t.Error("Self after finalize should be the absent record")
	}
	if s.OutputDir() != "" {
		t.Error("OutputDir after finalize should be empty")
	}
	if got := s.PeerTransactions(); got != nil {
		t.Errorf("PeerTransactions after finalize = %v, want nil", got)
	}
}

func TestFinalizeTwiceIsProgrammerError(t *testing.T) {
	s, _ := newTestState(t, nil)
	if err := s.Finalize(); err != nil {
		t.Fatalf("first Finalize failed: %v", err)
	}
	if err := s.Finalize(); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("second Finalize = %v, want ErrInvalidHandle", err)
	}
}

func TestFinalizeNilStateIsNoop(t *testing.T) {
	var s *State
	if err := s.Finalize(); err != nil {
		t.Errorf("Finalize on nil state = %v, want nil", err)
	}
}

func TestSelfAccessors(t *testing.T) {
	s, _ := newTestState(t, nil)
	loginState(t, s)

	if s.SelfID() == 0 {
		t.Error("SelfID should be non-zero")
	}
	if s.SelfEmail() != "self@example.com" {
		t.Errorf("SelfEmail = %q", s.SelfEmail())
	}
	if s.SelfFullname() == "" || s.SelfHandle() == "" {
		t.Error("self fullname and handle should be seeded")
	}
	if s.SelfDeviceID() == "" {
		t.Error("SelfDeviceID should be non-empty")
	}

	if err := s.SetSelfFullname("Alice Doe"); err != nil {
		t.Fatalf("SetSelfFullname failed: %v", err)
	}
	if s.SelfFullname() != "Alice Doe" {
		t.Errorf("SelfFullname = %q after update", s.SelfFullname())
	}
}

func TestFacebookSession(t *testing.T) {
	s, _ := newTestState(t, nil)

	if s.FacebookAppID() == "" {
		t.Error("FacebookAppID should be available before login")
	}
	if err := s.FacebookConnect("fb-token", "alice@example.com"); err != nil {
		t.Fatalf("FacebookConnect failed: %v", err)
	}
	if s.LoggedIn() {
		t.Fatal("token session must not complete synchronously")
	}
	if err := s.Poll(); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if !s.LoggedIn() {
		t.Error("state should be logged in after the connection poll")
	}
	if s.SelfEmail() != "alice@example.com" {
		t.Errorf("SelfEmail = %q, want the preferred email", s.SelfEmail())
	}

	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if s.FacebookAppID() != "" {
		t.Error("FacebookAppID after finalize should be empty")
	}
	if err := s.FacebookConnect("fb-token", ""); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("FacebookConnect after finalize = %v, want ErrInvalidHandle", err)
	}
}

func TestFeaturesAndDeviceStatus(t *testing.T) {
	s, eng := newTestState(t, nil)
	eng.SetFeature("send_to_self", "enabled")

	if got := s.Features(); got != nil {
		t.Errorf("Features before login = %v, want nil", got)
	}
	if got := s.DeviceStatus(); got != status.NotLoggedIn {
		t.Errorf("DeviceStatus before login = %v, want NotLoggedIn", got)
	}

	loginState(t, s)
	if got := s.Features(); got["send_to_self"] != "enabled" {
		t.Errorf("Features = %v, want send_to_self=enabled", got)
	}
	if got := s.DeviceStatus(); got != status.Ok {
		t.Errorf("DeviceStatus after login = %v, want Ok", got)
	}

	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if got := s.Features(); got != nil {
		t.Errorf("Features after finalize = %v, want nil", got)
	}
	if got := s.DeviceStatus(); got != status.Unknown {
		t.Errorf("DeviceStatus after finalize = %v, want Unknown", got)
	}
}

func TestDirectoryThroughBridge(t *testing.T) {
	s, eng := newTestState(t, nil)
	eng.AddUser(user.User{ID: 42, Fullname: "Bob", Handle: "bob", Online: true})
	loginState(t, s)

	if u := s.UserByID(42); u.Absent() {
		t.Error("UserByID(42) should resolve")
	}
	if u := s.UserByID(404); !u.Absent() {
		t.Errorf("UserByID(404) = %#v, want absent", u)
	}
	if !s.UserStatus(42) {
		t.Error("user 42 should be online")
	}
	if err := s.Favorite(42); err != nil {
		t.Fatalf("Favorite failed: %v", err)
	}
	if !s.IsFavorite(42) {
		t.Error("user 42 should be favorite")
	}
	if err := s.Favorite(404); err == nil {
		t.Error("Favorite of unknown user should fail")
	}
	var se *StateError
	if err := s.Favorite(404); !errors.As(err, &se) {
		t.Errorf("Favorite error = %T, want *StateError", err)
	}
}

func TestOutputDirPersistsAcrossSessions(t *testing.T) {
	base := t.TempDir()
	opts := DefaultOptions(base)
	opts.Engine = sim.New(sim.DefaultOptions())
	s, err := Initialize(opts, nil)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	chosen := filepath.Join(base, "chosen")
	if err := s.SetOutputDir(chosen, false); err != nil {
		t.Fatalf("SetOutputDir failed: %v", err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	opts.Engine = sim.New(sim.DefaultOptions())
	s2, err := Initialize(opts, nil)
	if err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	defer s2.Finalize()
	if got := s2.OutputDir(); got != chosen {
		t.Errorf("OutputDir after restart = %q, want %q", got, chosen)
	}
}

func TestAppActionOutputDirNotPersisted(t *testing.T) {
	base := t.TempDir()
	opts := DefaultOptions(base)
	opts.Engine = sim.New(sim.DefaultOptions())
	s, err := Initialize(opts, nil)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	shellDefault := filepath.Join(base, "shell-default")
	if err := s.SetOutputDir(shellDefault, true); err != nil {
		t.Fatalf("SetOutputDir failed: %v", err)
	}
	if got := s.OutputDir(); got != shellDefault {
		t.Errorf("OutputDir = %q, want %q", got, shellDefault)
	}
	s.Finalize()

	opts.Engine = sim.New(sim.DefaultOptions())
	s2, err := Initialize(opts, nil)
	if err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	defer s2.Finalize()
	if got := s2.OutputDir(); got != opts.DownloadDir {
		t.Errorf("OutputDir after restart = %q, want host default %q", got, opts.DownloadDir)
	}
}

func TestCleanStateDropsPendingEvents(t *testing.T) {
	s, eng := newTestState(t, nil)
	loginState(t, s)
	eng.SetUserOnline(42, true)

	if err := s.CleanState(); err != nil {
		t.Fatalf("CleanState failed: %v", err)
	}
	if s.LoggedIn() {
		t.Error("CleanState should log out")
	}
	if n := s.queue.Len(); n != 0 {
		t.Errorf("queue holds %d events after CleanState, want 0", n)
	}
}

func TestHashPassword(t *testing.T) {
	a := HashPassword("alice@example.com", "secret")
	b := HashPassword("alice@example.com", "secret")
	if a != b {
		t.Error("hash should be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if HashPassword("bob@example.com", "secret") == a {
		t.Error("different emails should salt differently")
	}
	if HashPassword(" Alice@Example.COM ", "secret") != a {
		t.Error("email normalization should ignore case and padding")
	}
}
