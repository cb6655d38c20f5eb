// Package sessionid generates the identifiers that pair a guest with a host.
//
// An ID is a UUIDv7 written as 26 characters of lowercase Crockford base32,
// so IDs sort by creation time and survive being typed from a join link.
package sessionid

import (
	"encoding/base32"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Length is the number of characters in an encoded ID.
const Length = 26

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// Generator creates session IDs. A nil reader uses crypto randomness.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a generator reading random bits from r.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// New returns a fresh session ID.
func New() (string, error) {
	return NewGenerator(nil).New()
}

// New returns a fresh session ID from the generator's source.
func (g *Generator) New() (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if g.rand != nil {
		id, err = uuid.NewV7FromReader(g.rand)
	} else {
		id, err = uuid.NewV7()
	}
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return encoding.EncodeToString(id[:]), nil
}

// Validate checks that id could have come from New.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("session id must be %d characters, got %d", Length, len(id))
	}
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return fmt.Errorf("session id %q: %w", id, err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return fmt.Errorf("session id %q: %w", id, err)
	}
	if u.Version() != 7 {
		return fmt.Errorf("session id %q has version %d", id, u.Version())
	}
	return nil
}
