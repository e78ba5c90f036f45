package inmem

import (
	"fmt"
	"io"

	"github.com/theonlysinjin/team-retro/internal/model"
)

const (
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength   = 32
)

// randomString draws n characters uniformly from alphabet using rejection
// sampling over bytes read from r.
func randomString(r io.Reader, alphabet string, n int) (string, error) {
	limit := 256 - (256 % len(alphabet))
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

func newSessionCode(r io.Reader) (string, error) {
	return randomString(r, model.CodeAlphabet, model.CodeLength)
}

func newHostToken(r io.Reader) (string, error) {
	return randomString(r, tokenAlphabet, tokenLength)
}
