// Package syncer bridges the backend feed to the local state store.
//
// For every pushed card or group snapshot the Synchronizer decrypts each
// record with the session key, drops records that fail to decrypt or
// validate (logging them, never aborting the batch) and hands the result to
// the store, which applies the last-write-wins merge. Votes and presence
// carry no ciphertext and are replaced wholesale.
//
// Run is a single-writer loop: a pump goroutine moves feed updates into an
// unbounded FIFO queue and the loop applies them one at a time, in arrival
// order. Errors are logged and the loop continues; when the feed closes the
// store simply keeps its last-known contents.
//
// Pull fetches the four tables concurrently through the request/response
// client and applies them, for transports without push.
package syncer
