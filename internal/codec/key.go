package codec

import (
	"crypto/sha256"
	"sync"

	"github.com/theonlysinjin/team-retro/internal/model"
)

// KeyDomain separates session-key derivation from any other use of SHA-256
// over a session code. The version suffix allows future migration.
const KeyDomain = "retro/session-key/v1"

// Key is a derived AES-256 session key.
type Key [32]byte

// DeriveKey derives the session key from a session code.
// Format: SHA256(KeyDomain + 0x00 + canonical(code)).
//
// The code is canonicalized first, so "abc234" and "ABC234" yield the same
// key.
func DeriveKey(code string) Key {
	h := sha256.New()
	h.Write([]byte(KeyDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(model.CanonicalCode(code)))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Keyring holds the key of the active session. It is safe for concurrent
// use.
type Keyring struct {
	mu   sync.RWMutex
	code string
	key  Key
	set  bool
}

// SetCode installs the key for code. Setting the same code twice does not
// re-derive. An empty code clears the keyring.
func (k *Keyring) SetCode(code string) {
	c := model.CanonicalCode(code)

	k.mu.Lock()
	defer k.mu.Unlock()
	if c == "" {
		k.code, k.key, k.set = "", Key{}, false
		return
	}
	if k.set && k.code == c {
		return
	}
	k.code = c
	k.key = DeriveKey(c)
	k.set = true
}

// Key returns the active key or ErrKeyNotReady.
func (k *Keyring) Key() (Key, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.set {
		return Key{}, ErrKeyNotReady
	}
	return k.key, nil
}

// Code returns the canonical code the key was derived from.
func (k *Keyring) Code() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.code
}

// Ready reports whether a key is installed.
func (k *Keyring) Ready() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.set
}

// Reset clears the keyring.
func (k *Keyring) Reset() {
	k.SetCode("")
}
