// Package engine declares the interface the bridge consumes from the
// file-transfer engine.
//
// The engine itself, with its transport, crypto and cloud buffering, is an
// external collaborator; the bridge only depends on this surface. Engine
// methods follow the wire contract the bridge re-exposes: status-coded
// operations return a status.Code, id-returning operations use zero as the
// failure sentinel, and accessors return value-domain sentinels instead of
// errors.
//
// Engines communicate asynchronous progress exclusively through the
// Notifier they are bound to: server round-trips are fire-and-enqueue, and
// all pending work is flushed inside Pump so that no notification appears
// outside a host-driven poll.
package engine

import (
	"github.com/finchsend/gap/event"
	"github.com/finchsend/gap/status"
	"github.com/finchsend/gap/transaction"
	"github.com/finchsend/gap/user"
)

// Notifier receives the engine's asynchronous events. The bridge hands the
// engine its per-handle queue through this interface.
type Notifier interface {
	Notify(ev event.Event)
}

// Config carries the environment the bridge resolved during initialize.
type Config struct {
	Production             bool
	DownloadDir            string
	PersistentConfigDir    string
	NonPersistentConfigDir string
}

// ProxyType distinguishes the outbound proxy categories.
type ProxyType int32

const (
	ProxyHTTP ProxyType = iota
	ProxyHTTPS
	ProxySOCKS
)

func (p ProxyType) String() string {
	switch p {
	case ProxyHTTP:
		return "http"
	case ProxyHTTPS:
		return "https"
	case ProxySOCKS:
		return "socks"
	}
	return "invalid"
}

// Proxy is one outbound proxy configuration.
type Proxy struct {
	Type     ProxyType
	Host     string
	Port     uint16
	Username string
	Password string
}

// Engine is the full surface the bridge consumes.
type Engine interface {
	// Start binds the engine to its notifier and environment. Called once,
	// from initialize.
	Start(cfg Config, n Notifier) status.Code
	// Pump flushes pending engine work into the notifier. Called from the
	// host's poll; the engine must not notify outside of it.
	Pump() status.Code
	// Close releases every engine resource. Called once, from finalize.
	Close() error

	// Session.
	Login(email, hashedPassword, devicePushToken string) status.Code
	FacebookConnect(facebookToken, preferredEmail, devicePushToken string) status.Code
	FacebookAppID() string
	Register(fullname, email, hashedPassword string) status.Code
	Logout() status.Code
	LoggedIn() bool
	// Features returns the server's feature-flag map for the session, nil
	// before the session is authenticated.
	Features() map[string]string
	// DeviceStatus reports this device's connection standing as a status
	// code.
	DeviceStatus() status.Code
	SetProxy(p Proxy) status.Code
	UnsetProxy(t ProxyType) status.Code
	InternetConnection(connected bool) status.Code

	// Identity.
	Self() user.User
	SelfEmail() string
	SelfDeviceID() string
	SetEmail(email, password string) status.Code
	SetFullname(name string) status.Code
	SetHandle(handle string) status.Code
	ChangePassword(oldPassword, newPassword string) status.Code
	SetDeviceName(name string) status.Code
	UpdateAvatar(data []byte) status.Code

	// Directory.
	UserByID(id int32) user.User
	UserByEmail(email string) user.User
	UserByHandle(handle string) user.User
	UsersSearch(query string) []user.User
	Swaggers() []user.User
	Favorites() []int32
	Favorite(id int32) status.Code
	Unfavorite(id int32) status.Code
	IsFavorite(id int32) bool
	UserStatus(id int32) bool
	Avatar(id int32) []byte
	RefreshAvatar(id int32) status.Code

	// Transactions. Id-returning operations yield zero when the operation
	// could not be applied; state-change verbs yield zero when the verb is
	// not permitted in the transaction's current status.
	SendFiles(recipientID int32, files []string, message string) int32
	SendFilesByEmail(email string, files []string, message string) int32
	CreateLinkTransaction(files []string, message string) int32
	PeerTransactionByID(id int32) (transaction.Peer, bool)
	PeerTransactions() []transaction.Peer
	LinkTransactionByID(id int32) (transaction.Link, bool)
	LinkTransactions() []transaction.Link
	IsLinkTransaction(id int32) bool
	TransactionProgress(id int32) float32
	PauseTransaction(id int32) int32
	ResumeTransaction(id int32) int32
	CancelTransaction(id int32) int32
	DeleteTransaction(id int32) int32
	RejectTransaction(id int32) int32
	AcceptTransaction(id int32) int32
	AcceptTransactionTo(id int32, relativePath string) int32

	// Onboarding.
	OnboardingReceive(path string, durationSec int) int32
	OnboardingSetPeerStatus(id int32, online bool) status.Code
	OnboardingSetPeerAvailability(id int32, available bool) status.Code

	// Output directory.
	SetOutputDir(path string) status.Code
	OutputDir() string

	// Telemetry. Best effort; must never block a transaction.
	SendMetric(metricID int64, extras map[string]string) status.Code
	SendUserReport(userName, message, file string) status.Code
	SendLastCrashLogs(userName, crashReport, stateLog, extra string) status.Code
}
