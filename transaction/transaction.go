package transaction

// Peer is a directed user-to-user transfer. Notifications carry the whole
// record at its new state, not a delta.
type Peer struct {
	ID                int32
	Status            Status
	SenderID          int32
	SenderDeviceID    string
	RecipientID       int32
	RecipientDeviceID string
	Mtime             float64
	FileNames         []string
	TotalSize         uint64
	IsDirectory       bool
	Message           string
	MetaID            string
}

// Link is a transfer whose output is a shareable URL. Link stays empty
// until the server has minted the URL.
type Link struct {
	ID             int32
	Status         Status
	Name           string
	Mtime          float64
	Link           string
	ClickCount     int32
	Message        string
	SenderDeviceID string
	MetaID         string
}

// ConcernsDevice reports whether the given device is the sending or
// receiving device of the peer transaction.
func (p Peer) ConcernsDevice(deviceID string) bool {
	return deviceID != "" &&
		(p.SenderDeviceID == deviceID || p.RecipientDeviceID == deviceID)
}

// ConcernsDevice reports whether the given device created the link.
func (l Link) ConcernsDevice(deviceID string) bool {
	return deviceID != "" && l.SenderDeviceID == deviceID
}
