package ir

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentitySize is the byte length of an identity reference.
const IdentitySize = 32

// Identity is an opaque 32-byte identity reference (public-key sized).
// The core stores identities and never verifies them.
type Identity [IdentitySize]byte

// ZeroIdentity is the all-zero identity.
var ZeroIdentity Identity

// String returns the base58 text form.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether id is the all-zero identity.
func (id Identity) IsZero() bool {
	return id == ZeroIdentity
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseIdentity decodes a base58 identity. The decoded value must be exactly
// IdentitySize bytes.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("parse identity %q: %w", s, err)
	}
	if len(raw) != IdentitySize {
		return id, fmt.Errorf("parse identity %q: decoded %d bytes, want %d", s, len(raw), IdentitySize)
	}
	copy(id[:], raw)
	return id, nil
}

// MustParseIdentity is like ParseIdentity but panics on error.
// Use only in tests or for compile-time constants.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ResolveIdentity accepts either a base58 identity or a wallet name.
// Names are mapped to a stable identity with WalletIdentity, so local tools
// can refer to callers as "alice" and "bob".
func ResolveIdentity(s string) (Identity, error) {
	if s == "" {
		return Identity{}, fmt.Errorf("identity is required")
	}
	if id, err := ParseIdentity(s); err == nil {
		return id, nil
	}
	return WalletIdentity(s), nil
}
