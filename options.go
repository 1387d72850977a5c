package gap

import (
	"path/filepath"

	"github.com/finchsend/gap/engine"
)

// Options configures one engine instance.
type Options struct {
	// Production selects the production endpoints instead of staging.
	Production bool
	// DownloadDir receives accepted transfers. Created if absent.
	DownloadDir string
	// PersistentConfigDir holds state that survives sessions, such as a
	// user-chosen output directory. Created if absent.
	PersistentConfigDir string
	// NonPersistentConfigDir holds scratch state, including the mirroring
	// staging area. Created if absent.
	NonPersistentConfigDir string
	// EnableMirroring copies outgoing files into a staging area before the
	// engine sees them, so later edits don't corrupt a running send.
	EnableMirroring bool
	// MaxMirroringSize bounds the total bytes mirrored per send. Zero
	// means no cap beyond the enable flag.
	MaxMirroringSize uint64
	// Engine is the collaborator behind the bridge. Nil selects the
	// simulated engine.
	Engine engine.Engine
}

// DefaultOptions returns options rooted under the given base directory.
func DefaultOptions(baseDir string) Options {
	return Options{
		DownloadDir:            filepath.Join(baseDir, "downloads"),
		PersistentConfigDir:    filepath.Join(baseDir, "config"),
		NonPersistentConfigDir: filepath.Join(baseDir, "cache"),
		EnableMirroring:        true,
	}
}
