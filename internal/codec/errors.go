package codec

import "errors"

var (
	// ErrDecrypt is returned when ciphertext cannot be opened with the key.
	ErrDecrypt = errors.New("codec: decrypt failed")

	// ErrKeyNotReady is returned when no session code has been set yet.
	ErrKeyNotReady = errors.New("codec: session key not ready")

	// ErrInvalidPayload is returned when decrypted JSON does not match the
	// expected payload shape.
	ErrInvalidPayload = errors.New("codec: invalid payload")
)
