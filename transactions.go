package gap

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finchsend/gap/status"
	"github.com/finchsend/gap/transaction"
)

// SendFiles creates a peer transaction toward a registered user and
// returns its id. Progress arrives through OnPeerTransaction.
func (s *State) SendFiles(recipientID int32, files []string, message string) (int32, error) {
	eng, err := s.engineRef()
	if err != nil {
		return 0, err
	}
	staged, err := s.mirrorFiles("send files", files)
	if err != nil {
		return 0, err
	}
	return translateID("send files", eng.SendFiles(recipientID, staged, message))
}

// SendFilesByEmail creates a peer transaction toward an email address that
// may not belong to a registered user yet.
func (s *State) SendFilesByEmail(email string, files []string, message string) (int32, error) {
	eng, err := s.engineRef()
	if err != nil {
		return 0, err
	}
	staged, err := s.mirrorFiles("send files by email", files)
	if err != nil {
		return 0, err
	}
	return translateID("send files by email", eng.SendFilesByEmail(email, staged, message))
}

// CreateLinkTransaction uploads files to the cloud and mints a shareable
// URL. The URL is empty in notifications until the server has minted it.
func (s *State) CreateLinkTransaction(files []string, message string) (int32, error) {
	eng, err := s.engineRef()
	if err != nil {
		return 0, err
	}
	staged, err := s.mirrorFiles("create link transaction", files)
	if err != nil {
		return 0, err
	}
	return translateID("create link transaction", eng.CreateLinkTransaction(staged, message))
}

// mirrorFiles copies outgoing files into a staging area under the
// non-persistent config dir, so the send survives later edits to the
// originals. A total size above the configured cap skips mirroring for
// this send; a copy failure fails the send before the engine is invoked.
func (s *State) mirrorFiles(op string, files []string) ([]string, error) {
	s.mu.Lock()
	opts := s.opts
	s.mu.Unlock()
	if !opts.EnableMirroring || len(files) == 0 {
		return files, nil
	}

	var total uint64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, &StateError{Op: op, Status: status.FileNotFound}
		}
		if !info.IsDir() {
			total += uint64(info.Size())
		}
	}
	if opts.MaxMirroringSize > 0 && total > opts.MaxMirroringSize {
		logrus.WithFields(logrus.Fields{
			"function":   "mirrorFiles",
			"total_size": total,
			"cap":        opts.MaxMirroringSize,
		}).Debug("Mirroring skipped, send exceeds cap")
		return files, nil
	}

	staging := filepath.Join(opts.NonPersistentConfigDir, "mirror", uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, &StateError{Op: op, Status: status.Error}
	}
	staged := make([]string, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, &StateError{Op: op, Status: status.FileNotFound}
		}
		if info.IsDir() {
			// Directories are sent in place; only regular files are staged.
			staged = append(staged, f)
			continue
		}
		dst := filepath.Join(staging, filepath.Base(f))
		if err := copyFile(f, dst); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "mirrorFiles",
				"file":     f,
				"error":    err.Error(),
			}).Error("Mirroring copy failed")
			return nil, &StateError{Op: op, Status: status.NoFile}
		}
		staged = append(staged, dst)
	}
	return staged, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// PeerTransactionByID returns the record, or false for an unknown id.
func (s *State) PeerTransactionByID(id int32) (transaction.Peer, bool) {
	eng, ok := s.liveEngine()
	if !ok {
		return transaction.Peer{}, false
	}
	return eng.PeerTransactionByID(id)
}

// PeerTransactions returns every peer transaction of the session.
func (s *State) PeerTransactions() []transaction.Peer {
	eng, ok := s.liveEngine()
	if !ok {
		return nil
	}
	return eng.PeerTransactions()
}

// LinkTransactionByID returns the record, or false for an unknown id.
func (s *State) LinkTransactionByID(id int32) (transaction.Link, bool) {
	eng, ok := s.liveEngine()
	if !ok {
		return transaction.Link{}, false
	}
	return eng.LinkTransactionByID(id)
}

// LinkTransactions returns every link transaction of the session.
func (s *State) LinkTransactions() []transaction.Link {
	eng, ok := s.liveEngine()
	if !ok {
		return nil
	}
	return eng.LinkTransactions()
}

// IsLinkTransaction disambiguates the shared id space.
func (s *State) IsLinkTransaction(id int32) bool {
	eng, ok := s.liveEngine()
	if !ok {
		return false
	}
	return eng.IsLinkTransaction(id)
}

// TransactionProgress returns the transfer progress in [0, 1].
func (s *State) TransactionProgress(id int32) float32 {
	eng, ok := s.liveEngine()
	if !ok {
		return 0
	}
	return eng.TransactionProgress(id)
}

// TransactionIsFinal reports whether the transaction reached a terminal
// status.
func (s *State) TransactionIsFinal(id int32) bool {
	eng, ok := s.liveEngine()
	if !ok {
		return false
	}
	if p, found := eng.PeerTransactionByID(id); found {
		return p.Status.IsFinal()
	}
	if l, found := eng.LinkTransactionByID(id); found {
		return l.Status.IsFinal()
	}
	return false
}

// TransactionConcernDevice reports whether this device is the sending or
// receiving device of the transaction.
func (s *State) TransactionConcernDevice(id int32) bool {
	eng, ok := s.liveEngine()
	if !ok {
		return false
	}
	device := eng.SelfDeviceID()
	if p, found := eng.PeerTransactionByID(id); found {
		return p.ConcernsDevice(device)
	}
	if l, found := eng.LinkTransactionByID(id); found {
		return l.ConcernsDevice(device)
	}
	return false
}

// PauseTransaction pauses a running transfer.
func (s *State) PauseTransaction(id int32) error {
	return s.verb("pause transaction", id, func() int32 { return s.eng.PauseTransaction(id) })
}

// ResumeTransaction resumes a paused transfer.
func (s *State) ResumeTransaction(id int32) error {
	return s.verb("resume transaction", id, func() int32 { return s.eng.ResumeTransaction(id) })
}

// CancelTransaction cancels an active transfer.
func (s *State) CancelTransaction(id int32) error {
	return s.verb("cancel transaction", id, func() int32 { return s.eng.CancelTransaction(id) })
}

// DeleteTransaction removes a terminal transaction from the session.
func (s *State) DeleteTransaction(id int32) error {
	return s.verb("delete transaction", id, func() int32 { return s.eng.DeleteTransaction(id) })
}

// RejectTransaction declines an incoming transfer waiting for acceptance.
func (s *State) RejectTransaction(id int32) error {
	return s.verb("reject transaction", id, func() int32 { return s.eng.RejectTransaction(id) })
}

// AcceptTransaction accepts an incoming transfer into the output
// directory.
func (s *State) AcceptTransaction(id int32) error {
	return s.verb("accept transaction", id, func() int32 { return s.eng.AcceptTransaction(id) })
}

// AcceptTransactionTo accepts an incoming transfer into a directory given
// relative to the output directory. A path resolving outside the output
// directory fails before any I/O.
func (s *State) AcceptTransactionTo(id int32, relativePath string) error {
	s.mu.Lock()
	outputDir := s.outputDir
	s.mu.Unlock()
	if !pathWithin(outputDir, relativePath) {
		return ErrPathEscapesOutputDir
	}
	return s.verb("accept transaction to", id, func() int32 {
		return s.eng.AcceptTransactionTo(id, relativePath)
	})
}

// verb runs one state-change operation. A zero id from the engine means
// the verb is not applicable in the transaction's current status; that
// surfaces as a state error and no upcall is emitted.
func (s *State) verb(op string, id int32, apply func() int32) error {
	if _, err := s.engineRef(); err != nil {
		return err
	}
	if apply() == 0 {
		logrus.WithFields(logrus.Fields{
			"function":       "verb",
			"operation":      op,
			"transaction_id": id,
		}).Warn("State change not applicable")
		return &StateError{Op: op, Status: status.TransactionNotPermitted}
	}
	return nil
}

// pathWithin reports whether relative, resolved against root, stays inside
// root. Absolute paths and any path whose cleaned form climbs out are
// rejected.
func pathWithin(root, relative string) bool {
	if relative == "" {
		return true
	}
	if filepath.IsAbs(relative) {
		return false
	}
	cleaned := filepath.Clean(filepath.Join(root, relative))
	rootClean := filepath.Clean(root)
	if cleaned == rootClean {
		return true
	}
	return strings.HasPrefix(cleaned, rootClean+string(filepath.Separator))
}
