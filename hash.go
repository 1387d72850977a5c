package gap

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// hashIterations matches what the server side expects; changing it
// invalidates every stored credential.
const hashIterations = 10000

// HashPassword derives the credential the bridge sends in place of the
// clear-text password. The lowercased email salts the derivation so equal
// passwords hash differently per account.
func HashPassword(email, password string) string {
	salt := []byte(strings.ToLower(strings.TrimSpace(email)))
	key := pbkdf2.Key([]byte(password), salt, hashIterations, 32, sha256.New)
	return hex.EncodeToString(key)
}
