package codec

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/theonlysinjin/team-retro/internal/model"
)

//go:embed schema.cue
var schemaSource string

// validator checks decrypted JSON against the payload schema.
// cue.Context is not safe for concurrent use, hence the mutex.
type validator struct {
	mu    sync.Mutex
	ctx   *cue.Context
	card  cue.Value
	group cue.Value
}

var (
	schemaOnce sync.Once
	schema     *validator
)

func payloadSchema() *validator {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := root.Err(); err != nil {
			panic(fmt.Sprintf("codec: compile payload schema: %v", err))
		}
		schema = &validator{
			ctx:   ctx,
			card:  root.LookupPath(cue.ParsePath("#Card")),
			group: root.LookupPath(cue.ParsePath("#Group")),
		}
	})
	return schema
}

func (v *validator) check(def cue.Value, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	doc := v.ctx.CompileBytes(data, cue.Filename("payload.json"))
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, formatCUEError(err))
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, formatCUEError(err))
	}
	return nil
}

func formatCUEError(err error) string {
	var msgs []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := e.Path(); len(path) > 0 {
			msg = strings.Join(path, ".") + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return err.Error()
	}
	return strings.Join(msgs, "; ")
}

// SealCard encrypts the card payload.
func SealCard(key Key, p model.CardPayload) (string, error) {
	return Encrypt(key, p)
}

// OpenCard decrypts and validates a card payload.
func OpenCard(key Key, ciphertext string) (model.CardPayload, error) {
	var p model.CardPayload
	plaintext, err := open(key, ciphertext)
	if err != nil {
		return p, err
	}
	s := payloadSchema()
	if err := s.check(s.card, plaintext); err != nil {
		return p, err
	}
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}

// SealGroup encrypts the group payload.
func SealGroup(key Key, p model.GroupPayload) (string, error) {
	return Encrypt(key, p)
}

// OpenGroup decrypts and validates a group payload.
func OpenGroup(key Key, ciphertext string) (model.GroupPayload, error) {
	var p model.GroupPayload
	plaintext, err := open(key, ciphertext)
	if err != nil {
		return p, err
	}
	s := payloadSchema()
	if err := s.check(s.group, plaintext); err != nil {
		return p, err
	}
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}
