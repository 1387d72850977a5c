// Package sim implements an in-memory, deterministic engine.
//
// The simulated engine backs the onboarding facility and every end-to-end
// test of the bridge: it keeps a seeded user directory, advances
// transactions along the permitted status graph one step per pump, and
// mints link URLs the way the cloud side would. All progress happens inside
// Pump, so notification order is fully reproducible.
//
// Example:
//
//	eng := sim.New(sim.Options{SelfFullname: "Alice"})
//	eng.AddUser(user.User{ID: 42, Fullname: "Bob", Handle: "bob"})
package sim

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finchsend/gap/engine"
	"github.com/finchsend/gap/event"
	"github.com/finchsend/gap/status"
	"github.com/finchsend/gap/transaction"
	"github.com/finchsend/gap/user"
)

// Options seeds the simulated self identity.
type Options struct {
	SelfID        int32
	SelfFullname  string
	SelfEmail     string
	SelfHandle    string
	FacebookAppID string
}

// DefaultOptions returns the identity used when none is supplied.
func DefaultOptions() Options {
	return Options{
		SelfID:        1,
		SelfFullname:  "Self",
		SelfHandle:    "self",
		FacebookAppID: "finch-facebook-app",
	}
}

// Metric is one recorded telemetry event.
type Metric struct {
	ID     int64
	Extras map[string]string
}

// Report is one recorded user report or crash log.
type Report struct {
	UserName string
	Message  string
	Files    []string
}

type peerSim struct {
	rec  transaction.Peer
	plan []transaction.Status

	// Transfer pacing: pumps spent in StatusTransferring before the plan
	// continues.
	stepsTotal int
	stepsDone  int

	onboarding    bool
	peerOnline    bool
	peerAvailable bool
	acceptedTo    string
}

type linkSim struct {
	rec  transaction.Link
	plan []transaction.Status
}

// Sim is the simulated engine. It implements engine.Engine.
type Sim struct {
	mu       sync.Mutex
	notifier engine.Notifier
	cfg      engine.Config

	self          user.User
	selfEmail     string
	deviceID      string
	deviceName    string
	loggedIn      bool
	online        bool
	facebookAppID string
	features      map[string]string

	users       map[int32]*user.User
	userDevices map[int32]string
	nextUserID  int32

	swaggers  map[int32]bool
	favorites map[int32]bool
	avatars   map[int32][]byte
	refreshes []int32

	connScript []event.Connection

	peers  map[int32]*peerSim
	links  map[int32]*linkSim
	nextID int32

	proxies   map[engine.ProxyType]engine.Proxy
	outputDir string

	metrics   []Metric
	reports   []Report
	crashLogs []Report

	closed bool
}

var _ engine.Engine = (*Sim)(nil)

// New creates a simulated engine with the given self identity.
func New(opts Options) *Sim {
	if opts.SelfID == 0 {
		opts = DefaultOptions()
	}
	if opts.FacebookAppID == "" {
		opts.FacebookAppID = DefaultOptions().FacebookAppID
	}
	s := &Sim{
		self: user.User{
			ID:       opts.SelfID,
			Fullname: opts.SelfFullname,
			Handle:   opts.SelfHandle,
			Online:   true,
			MetaID:   uuid.NewString(),
		},
		selfEmail:     opts.SelfEmail,
		facebookAppID: opts.FacebookAppID,
		features:      make(map[string]string),
		deviceID:      uuid.NewString(),
		users:         make(map[int32]*user.User),
		userDevices:   make(map[int32]string),
		nextUserID:    opts.SelfID + 1,
		swaggers:      make(map[int32]bool),
		favorites:     make(map[int32]bool),
		avatars:       make(map[int32][]byte),
		peers:         make(map[int32]*peerSim),
		links:         make(map[int32]*linkSim),
		proxies:       make(map[engine.ProxyType]engine.Proxy),
	}
	s.users[s.self.ID] = &s.self
	return s
}

// AddUser seeds the directory. Intended for rehearsal scripts and tests.
func (s *Sim) AddUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID >= s.nextUserID {
		s.nextUserID = u.ID + 1
	}
	copied := u
	s.users[u.ID] = &copied
}

// SetFeature seeds one server feature flag.
func (s *Sim) SetFeature(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features[key] = value
}

// SetAvatar seeds avatar bytes for a user.
func (s *Sim) SetAvatar(id int32, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avatars[id] = data
}

// QueueConnection scripts the next connection outcome. One queued outcome
// is delivered per pump, which lets rehearsals interleave transient
// failures before the authenticated connection.
func (s *Sim) QueueConnection(connected, stillTrying bool, lastError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connScript = append(s.connScript, event.Connection{
		Connected:   connected,
		StillTrying: stillTrying,
		LastError:   lastError,
	})
}

// ReceiveIncoming fabricates an inbound transfer from a seeded user, the
// way the server would announce one. The transaction waits in
// StatusWaitingAccept until accepted or rejected.
func (s *Sim) ReceiveIncoming(senderID int32, files []string, message string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[senderID]; !ok || len(files) == 0 {
		return 0
	}
	s.nextID++
	id := s.nextID
	p := &peerSim{
		rec: transaction.Peer{
			ID:                id,
			Status:            transaction.StatusNew,
			SenderID:          senderID,
			SenderDeviceID:    s.deviceOf(senderID),
			RecipientID:       s.self.ID,
			RecipientDeviceID: s.deviceID,
			Mtime:             float64(time.Now().UnixNano()) / float64(time.Second),
			FileNames:         baseNames(files),
			Message:           message,
			MetaID:            uuid.NewString(),
		},
		plan:       []transaction.Status{transaction.StatusWaitingAccept},
		stepsTotal: 1,
	}
	s.peers[id] = p
	s.notify(event.PeerTransaction{Transaction: p.rec})
	s.addSwagger(senderID)
	return id
}

// SetUserOnline flips a directory user's presence and notifies.
func (s *Sim) SetUserOnline(id int32, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Online = online
	}
	s.notify(event.UserStatus{UserID: id, Online: online})
}

// Metrics returns the telemetry recorded so far.
func (s *Sim) Metrics() []Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Metric{}, s.metrics...)
}

// Reports returns the user reports recorded so far.
func (s *Sim) Reports() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Report{}, s.reports...)
}

// CrashLogs returns the crash logs recorded so far.
func (s *Sim) CrashLogs() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Report{}, s.crashLogs...)
}

func (s *Sim) notify(ev event.Event) {
	if s.notifier != nil {
		s.notifier.Notify(ev)
	}
}

// Start binds the engine to the bridge's queue.
func (s *Sim) Start(cfg engine.Config, n engine.Notifier) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return status.InternalError
	}
	s.cfg = cfg
	s.notifier = n
	s.outputDir = cfg.DownloadDir
	logrus.WithFields(logrus.Fields{
		"function":   "Start",
		"production": cfg.Production,
		"device_id":  s.deviceID,
	}).Debug("Simulated engine started")
	return status.Ok
}

// Close releases the engine. Further pumps are rejected by the bridge.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.loggedIn = false
	s.notifier = nil
	return nil
}

// Pump flushes one step of pending work: at most one scripted connection
// outcome, completed avatar fetches, and one status advance per
// transaction.
func (s *Sim) Pump() status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return status.InternalError
	}

	if len(s.connScript) > 0 {
		ev := s.connScript[0]
		s.connScript = s.connScript[1:]
		s.loggedIn = ev.Connected
		s.notify(ev)
	}

	for _, id := range s.refreshes {
		s.notify(event.AvatarAvailable{UserID: id})
	}
	s.refreshes = nil

	for _, id := range sortedKeys(s.peers) {
		s.advancePeer(s.peers[id])
	}
	for _, id := range sortedKeys(s.links) {
		s.advanceLink(s.links[id])
	}
	return status.Ok
}

func sortedKeys[V any](m map[int32]V) []int32 {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s *Sim) advancePeer(p *peerSim) {
	if p.onboarding && !(p.peerOnline && p.peerAvailable) {
		return
	}
	if p.rec.Status == transaction.StatusTransferring && p.stepsDone < p.stepsTotal {
		p.stepsDone++
		if p.stepsDone < p.stepsTotal {
			return
		}
	}
	if len(p.plan) == 0 {
		return
	}
	next := p.plan[0]
	p.plan = p.plan[1:]
	if !transaction.CanTransition(p.rec.Status, next) {
		p.plan = nil
		return
	}
	p.rec.Status = next
	if next == transaction.StatusTransferring {
		p.stepsDone = 0
	}
	s.notify(event.PeerTransaction{Transaction: p.rec})
}

func (s *Sim) advanceLink(l *linkSim) {
	if len(l.plan) == 0 {
		return
	}
	next := l.plan[0]
	l.plan = l.plan[1:]
	if !transaction.CanTransition(l.rec.Status, next) {
		l.plan = nil
		return
	}
	l.rec.Status = next
	if next == transaction.StatusCloudBuffered && l.rec.Link == "" {
		l.rec.Link = "https://finch.sh/_/" + uuid.NewString()
	}
	s.notify(event.LinkTransaction{Transaction: l.rec})
}

// Login records credentials and schedules the connection outcome. Success
// means the attempt was accepted; the authenticated state arrives through
// the Connection notification.
func (s *Sim) Login(email, hashedPassword, devicePushToken string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return status.InternalError
	}
	if email == "" || hashedPassword == "" {
		return status.BadPassword
	}
	s.selfEmail = email
	if len(s.connScript) == 0 {
		s.connScript = append(s.connScript, event.Connection{Connected: true})
	}
	logrus.WithFields(logrus.Fields{
		"function": "Login",
		"email":    email,
	}).Info("Login attempt accepted")
	return status.Ok
}

// FacebookConnect records the token-based session and schedules the
// connection outcome the same way Login does. The preferred email, when
// given, becomes the session's email.
func (s *Sim) FacebookConnect(facebookToken, preferredEmail, devicePushToken string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return status.InternalError
	}
	if facebookToken == "" {
		return status.Error
	}
	if preferredEmail != "" {
		s.selfEmail = preferredEmail
	}
	if len(s.connScript) == 0 {
		s.connScript = append(s.connScript, event.Connection{Connected: true})
	}
	logrus.WithFields(logrus.Fields{
		"function":        "FacebookConnect",
		"preferred_email": preferredEmail,
	}).Info("Facebook session attempt accepted")
	return status.Ok
}

// FacebookAppID returns the application id the host needs to start the
// Facebook login flow.
func (s *Sim) FacebookAppID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facebookAppID
}

// Register creates the self account and schedules the connection outcome.
func (s *Sim) Register(fullname, email, hashedPassword string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fullname == "" || email == "" || hashedPassword == "" {
		return status.Error
	}
	for _, u := range s.users {
		if u.ID != s.self.ID && strings.EqualFold(u.Handle, fullname) {
			return status.HandleAlreadyRegistered
		}
	}
	s.self.Fullname = fullname
	s.selfEmail = email
	if len(s.connScript) == 0 {
		s.connScript = append(s.connScript, event.Connection{Connected: true})
	}
	return status.Ok
}

func (s *Sim) Logout() status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return status.NotLoggedIn
	}
	s.loggedIn = false
	s.connScript = nil
	return status.Ok
}

func (s *Sim) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Features returns a copy of the seeded feature-flag map, nil before the
// session is authenticated.
func (s *Sim) Features() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return nil
	}
	copied := make(map[string]string, len(s.features))
	for k, v := range s.features {
		copied[k] = v
	}
	return copied
}

// DeviceStatus reports this device's connection standing.
func (s *Sim) DeviceStatus() status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return status.InternalError
	}
	if !s.loggedIn {
		return status.NotLoggedIn
	}
	return status.Ok
}

func (s *Sim) SetProxy(p engine.Proxy) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proxies[p.Type] = p
	return status.Ok
}

func (s *Sim) UnsetProxy(t engine.ProxyType) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.proxies, t)
	return status.Ok
}

// InternetConnection accelerates reconnection: coming back online with
// credentials on file schedules a fresh authenticated connection.
func (s *Sim) InternetConnection(connected bool) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = connected
	if !connected && s.loggedIn {
		s.connScript = append(s.connScript, event.Connection{
			StillTrying: true,
			LastError:   "connectivity lost",
		})
	}
	if connected && !s.loggedIn && s.selfEmail != "" {
		s.connScript = append(s.connScript, event.Connection{Connected: true})
	}
	return status.Ok
}

func (s *Sim) Self() user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

func (s *Sim) SelfEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selfEmail
}

func (s *Sim) SelfDeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

func (s *Sim) SetEmail(email, password string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return status.NotLoggedIn
	}
	if password == "" {
		return status.BadPassword
	}
	s.selfEmail = email
	return status.Ok
}

func (s *Sim) SetFullname(name string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return status.NotLoggedIn
	}
	s.self.Fullname = name
	s.users[s.self.ID].Fullname = name
	s.notify(event.UpdateUser{User: s.self})
	return status.Ok
}

func (s *Sim) SetHandle(handle string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return status.NotLoggedIn
	}
	for _, u := range s.users {
		if u.ID != s.self.ID && strings.EqualFold(u.Handle, handle) {
			return status.HandleAlreadyRegistered
		}
	}
	s.self.Handle = handle
	s.users[s.self.ID].Handle = handle
	s.notify(event.UpdateUser{User: s.self})
	return status.Ok
}

func (s *Sim) ChangePassword(oldPassword, newPassword string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return status.NotLoggedIn
	}
	if oldPassword == "" || newPassword == "" {
		return status.BadPassword
	}
	return status.Ok
}

func (s *Sim) SetDeviceName(name string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return status.Error
	}
	s.deviceName = name
	return status.Ok
}

func (s *Sim) UpdateAvatar(data []byte) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return status.NotLoggedIn
	}
	s.avatars[s.self.ID] = append([]byte{}, data...)
	return status.Ok
}

func (s *Sim) UserByID(id int32) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return *u
	}
	return user.User{}
}

func (s *Sim) UserByEmail(email string) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.EqualFold(email, s.selfEmail) && s.selfEmail != "" {
		return s.self
	}
	if id, ok := s.emailOf(email); ok {
		return *s.users[id]
	}
	return user.User{}
}

// emailOf resolves a directory user by the synthetic address derived from
// its handle. Seeded users are reachable as <handle>@<anything>.
func (s *Sim) emailOf(email string) (int32, bool) {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return 0, false
	}
	for _, id := range sortedKeys(s.users) {
		if strings.EqualFold(s.users[id].Handle, local) {
			return id, true
		}
	}
	return 0, false
}

func (s *Sim) UserByHandle(handle string) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sortedKeys(s.users) {
		if strings.EqualFold(s.users[id].Handle, handle) {
			return *s.users[id]
		}
	}
	return user.User{}
}

func (s *Sim) UsersSearch(query string) []user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var out []user.User
	for _, id := range sortedKeys(s.users) {
		u := s.users[id]
		if strings.Contains(strings.ToLower(u.Fullname), q) ||
			strings.Contains(strings.ToLower(u.Handle), q) {
			out = append(out, *u)
		}
	}
	return out
}

func (s *Sim) Swaggers() []user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []user.User
	for _, id := range sortedKeys(s.swaggers) {
		if u, ok := s.users[id]; ok {
			swagger := *u
			swagger.Swagger = true
			out = append(out, swagger)
		}
	}
	return out
}

func (s *Sim) Favorites() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.favorites)
}

func (s *Sim) Favorite(id int32) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return status.UnknownUser
	}
	s.favorites[id] = true
	s.notify(event.UpdateUser{User: *u})
	return status.Ok
}

func (s *Sim) Unfavorite(id int32) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.favorites[id] {
		return status.UnknownUser
	}
	delete(s.favorites, id)
	s.notify(event.DeletedFavorite{UserID: id})
	return status.Ok
}

func (s *Sim) IsFavorite(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites[id]
}

func (s *Sim) UserStatus(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Online
	}
	return false
}

func (s *Sim) Avatar(id int32) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avatars[id]
}

func (s *Sim) RefreshAvatar(id int32) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return status.UnknownUser
	}
	s.refreshes = append(s.refreshes, id)
	return status.Ok
}

func (s *Sim) deviceOf(id int32) string {
	if id == s.self.ID {
		return s.deviceID
	}
	if d, ok := s.userDevices[id]; ok {
		return d
	}
	d := uuid.NewString()
	s.userDevices[id] = d
	return d
}

// addSwagger records a file exchange with the user and notifies on the
// first one.
func (s *Sim) addSwagger(id int32) {
	if id == s.self.ID || s.swaggers[id] {
		return
	}
	s.swaggers[id] = true
	if u, ok := s.users[id]; ok {
		swagger := *u
		swagger.Swagger = true
		s.notify(event.NewSwagger{User: swagger})
	}
}

func statFiles(files []string) (total uint64, isDir bool) {
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.IsDir() {
			isDir = true
			continue
		}
		total += uint64(info.Size())
	}
	return total, isDir && len(files) == 1
}

func baseNames(files []string) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	return names
}

func (s *Sim) SendFiles(recipientID int32, files []string, message string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn || len(files) == 0 {
		return 0
	}
	if _, ok := s.users[recipientID]; !ok {
		return 0
	}
	return s.createPeer(recipientID, files, message)
}

func (s *Sim) createPeer(recipientID int32, files []string, message string) int32 {
	s.nextID++
	id := s.nextID
	total, isDir := statFiles(files)
	p := &peerSim{
		rec: transaction.Peer{
			ID:                id,
			Status:            transaction.StatusNew,
			SenderID:          s.self.ID,
			SenderDeviceID:    s.deviceID,
			RecipientID:       recipientID,
			RecipientDeviceID: s.deviceOf(recipientID),
			Mtime:             float64(time.Now().UnixNano()) / float64(time.Second),
			FileNames:         baseNames(files),
			TotalSize:         total,
			IsDirectory:       isDir,
			Message:           message,
			MetaID:            uuid.NewString(),
		},
		plan: []transaction.Status{
			transaction.StatusConnecting,
			transaction.StatusTransferring,
			transaction.StatusFinished,
		},
		stepsTotal: 1,
	}
	s.peers[id] = p
	s.notify(event.PeerTransaction{Transaction: p.rec})
	s.addSwagger(recipientID)
	logrus.WithFields(logrus.Fields{
		"function":       "createPeer",
		"transaction_id": id,
		"recipient_id":   recipientID,
		"files":          len(files),
		"total_size":     total,
	}).Info("Peer transaction created")
	return id
}

// SendFilesByEmail resolves the address, creating a ghost user for unknown
// recipients the way the server side would.
func (s *Sim) SendFilesByEmail(email string, files []string, message string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn || len(files) == 0 || !strings.Contains(email, "@") {
		return 0
	}
	id, ok := s.emailOf(email)
	if !ok {
		id = s.nextUserID
		s.nextUserID++
		local, _, _ := strings.Cut(email, "@")
		s.users[id] = &user.User{
			ID:       id,
			Fullname: email,
			Handle:   local,
			Ghost:    true,
			MetaID:   uuid.NewString(),
		}
		s.notify(event.UpdateUser{User: *s.users[id]})
	}
	return s.createPeer(id, files, message)
}

func (s *Sim) CreateLinkTransaction(files []string, message string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn || len(files) == 0 {
		return 0
	}
	s.nextID++
	id := s.nextID
	l := &linkSim{
		rec: transaction.Link{
			ID:             id,
			Status:         transaction.StatusNew,
			Name:           filepath.Base(files[0]),
			Mtime:          float64(time.Now().UnixNano()) / float64(time.Second),
			Message:        message,
			SenderDeviceID: s.deviceID,
			MetaID:         uuid.NewString(),
		},
		plan: []transaction.Status{
			transaction.StatusWaitingData,
			transaction.StatusCloudBuffered,
			transaction.StatusFinished,
		},
	}
	s.links[id] = l
	s.notify(event.LinkTransaction{Transaction: l.rec})
	return id
}

func (s *Sim) PeerTransactionByID(id int32) (transaction.Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.peers[id]; ok {
		return p.rec, true
	}
	return transaction.Peer{}, false
}

func (s *Sim) PeerTransactions() []transaction.Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transaction.Peer, 0, len(s.peers))
	for _, id := range sortedKeys(s.peers) {
		out = append(out, s.peers[id].rec)
	}
	return out
}

func (s *Sim) LinkTransactionByID(id int32) (transaction.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.links[id]; ok {
		return l.rec, true
	}
	return transaction.Link{}, false
}

func (s *Sim) LinkTransactions() []transaction.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transaction.Link, 0, len(s.links))
	for _, id := range sortedKeys(s.links) {
		out = append(out, s.links[id].rec)
	}
	return out
}

func (s *Sim) IsLinkTransaction(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.links[id]
	return ok
}

func (s *Sim) TransactionProgress(id int32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.peers[id]; ok {
		switch p.rec.Status {
		case transaction.StatusFinished:
			return 1
		case transaction.StatusTransferring:
			if p.stepsTotal == 0 {
				return 0
			}
			return float32(p.stepsDone) / float32(p.stepsTotal)
		default:
			return 0
		}
	}
	if l, ok := s.links[id]; ok {
		switch l.rec.Status {
		case transaction.StatusCloudBuffered, transaction.StatusFinished:
			return 1
		default:
			return 0
		}
	}
	return 0
}

// schedule replaces a transaction's plan so that the next pumps move it
// toward the target, provided the status graph permits the first hop.
func schedule(cur transaction.Status, steps ...transaction.Status) ([]transaction.Status, bool) {
	if len(steps) == 0 || !transaction.CanTransition(cur, steps[0]) {
		return nil, false
	}
	return steps, true
}

func (s *Sim) PauseTransaction(id int32) int32 {
	return s.applyVerb(id, "pause", transaction.StatusPaused)
}

func (s *Sim) ResumeTransaction(id int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	if !ok || p.rec.Status != transaction.StatusPaused {
		return 0
	}
	p.plan = []transaction.Status{transaction.StatusTransferring, transaction.StatusFinished}
	return id
}

func (s *Sim) CancelTransaction(id int32) int32 {
	return s.applyVerb(id, "cancel", transaction.StatusCanceled)
}

func (s *Sim) DeleteTransaction(id int32) int32 {
	return s.applyVerb(id, "delete", transaction.StatusDeleted)
}

func (s *Sim) RejectTransaction(id int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	if !ok || p.rec.Status != transaction.StatusWaitingAccept {
		return 0
	}
	if p.rec.RecipientID != s.self.ID {
		return 0
	}
	p.plan = []transaction.Status{transaction.StatusRejected}
	return id
}

func (s *Sim) AcceptTransaction(id int32) int32 {
	return s.AcceptTransactionTo(id, "")
}

func (s *Sim) AcceptTransactionTo(id int32, relativePath string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	if !ok || p.rec.Status != transaction.StatusWaitingAccept {
		return 0
	}
	if p.rec.RecipientID != s.self.ID {
		return 0
	}
	p.acceptedTo = relativePath
	p.plan = []transaction.Status{transaction.StatusTransferring, transaction.StatusFinished}
	logrus.WithFields(logrus.Fields{
		"function":       "AcceptTransactionTo",
		"transaction_id": id,
		"relative_path":  relativePath,
	}).Info("Transaction accepted")
	return id
}

// applyVerb schedules a single-hop state change on either transaction
// family. Zero means the verb is not applicable in the current status.
func (s *Sim) applyVerb(id int32, verb string, target transaction.Status) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.peers[id]; ok {
		plan, ok := schedule(p.rec.Status, target)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"function":       "applyVerb",
				"verb":           verb,
				"transaction_id": id,
				"status":         p.rec.Status.String(),
			}).Warn("State change not permitted")
			return 0
		}
		p.plan = plan
		return id
	}
	if l, ok := s.links[id]; ok {
		plan, ok := schedule(l.rec.Status, target)
		if !ok {
			return 0
		}
		l.plan = plan
		return id
	}
	return 0
}

// OnboardingReceive fabricates an incoming transaction from a synthetic
// peer. The transaction shares the ordinary id space and is paced so the
// rehearsal lasts roughly durationSec pumps of transfer.
func (s *Sim) OnboardingReceive(path string, durationSec int) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		return 0
	}
	peerID := s.nextUserID
	s.nextUserID++
	s.users[peerID] = &user.User{
		ID:       peerID,
		Fullname: "Finch Guide",
		Handle:   "finch-guide",
		Online:   true,
		MetaID:   uuid.NewString(),
	}
	s.nextID++
	id := s.nextID
	steps := durationSec
	if steps < 1 {
		steps = 1
	}
	total, isDir := statFiles([]string{path})
	p := &peerSim{
		rec: transaction.Peer{
			ID:                id,
			Status:            transaction.StatusNew,
			SenderID:          peerID,
			SenderDeviceID:    s.deviceOf(peerID),
			RecipientID:       s.self.ID,
			RecipientDeviceID: s.deviceID,
			Mtime:             float64(time.Now().UnixNano()) / float64(time.Second),
			FileNames:         baseNames([]string{path}),
			TotalSize:         total,
			IsDirectory:       isDir,
			MetaID:            uuid.NewString(),
		},
		plan:          []transaction.Status{transaction.StatusWaitingAccept},
		stepsTotal:    steps,
		onboarding:    true,
		peerOnline:    true,
		peerAvailable: true,
	}
	s.peers[id] = p
	s.notify(event.PeerTransaction{Transaction: p.rec})
	return id
}

func (s *Sim) OnboardingSetPeerStatus(id int32, online bool) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	if !ok || !p.onboarding {
		return status.Error
	}
	p.peerOnline = online
	s.notify(event.UserStatus{UserID: p.rec.SenderID, Online: online})
	return status.Ok
}

func (s *Sim) OnboardingSetPeerAvailability(id int32, available bool) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	if !ok || !p.onboarding {
		return status.Error
	}
	p.peerAvailable = available
	return status.Ok
}

func (s *Sim) SetOutputDir(path string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		return status.Error
	}
	s.outputDir = path
	return status.Ok
}

func (s *Sim) OutputDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputDir
}

func (s *Sim) SendMetric(metricID int64, extras map[string]string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]string, len(extras))
	for k, v := range extras {
		copied[k] = v
	}
	s.metrics = append(s.metrics, Metric{ID: metricID, Extras: copied})
	return status.Ok
}

func (s *Sim) SendUserReport(userName, message, file string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, Report{
		UserName: userName,
		Message:  message,
		Files:    []string{file},
	})
	return status.Ok
}

func (s *Sim) SendLastCrashLogs(userName, crashReport, stateLog, extra string) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crashLogs = append(s.crashLogs, Report{
		UserName: userName,
		Message:  extra,
		Files:    []string{crashReport, stateLog},
	})
	return status.Ok
}
