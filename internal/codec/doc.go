// Package codec implements the end-to-end encryption of board content.
//
// The session code is the only key material: every participant derives the
// same 32-byte key from it (SHA-256 with a domain separator), so the backend
// only ever stores opaque ciphertext. Payloads are JSON, sealed with
// AES-256-GCM under a fresh random nonce, and rendered as
//
//	v1.<base64(nonce || ciphertext || tag)>
//
// Decryption never panics and never returns partial data: any failure
// (wrong key, tampering, truncated input, unknown version) surfaces as an
// error wrapping ErrDecrypt. Decrypted JSON is checked against a CUE schema
// before it is handed back as a typed payload.
//
// The package also hosts DisplayColor, the deterministic name to color
// mapping used for presence avatars, because both sides of the board need
// the identical function.
package codec
