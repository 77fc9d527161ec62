package wgnlpy

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// KeyLen is the size of all WireGuard keys: private, public and preshared.
const KeyLen = 32

// A Key is a WireGuard private, public or preshared key.
type Key [KeyLen]byte

// NewKey copies b into a Key.
//
// b must be exactly KeyLen bytes long or a ValidationError is returned.
func NewKey(b []byte) (Key, error) {
	if len(b) != KeyLen {
		return Key{}, validationf("invalid key length %d, want %d", len(b), KeyLen)
	}

	var k Key
	copy(k[:], b)
	return k, nil
}

// ParseKey parses the standard base64 form of a key, as printed by wg(8).
func ParseKey(s string) (Key, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Key{}, validationf("invalid base64 key: %v", err)
	}

	return NewKey(b)
}

// GenerateKey generates a random key, suitable for use as a preshared key.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, fmt.Errorf("failed to read random bytes: %v", err)
	}

	return k, nil
}

// GeneratePrivateKey generates a random private key, clamped as Curve25519
// scalars must be.
func GeneratePrivateKey() (Key, error) {
	k, err := GenerateKey()
	if err != nil {
		return Key{}, err
	}

	k[0] &= 248
	k[31] &= 127
	k[31] |= 64

	return k, nil
}

// PublicKey computes the public key corresponding to the private key k.
func (k Key) PublicKey() Key {
	var pub, priv [KeyLen]byte
	priv = k
	curve25519.ScalarBaseMult(&pub, &priv)

	return Key(pub)
}

// IsZero reports whether k is all zero bytes. The kernel reports an unset
// preshared key as a zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String returns the base64 form of k.
func (k Key) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// MarshalText implements encoding.TextMarshaler; keys travel through JSON
// and config files in their base64 form.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}

	*k = parsed
	return nil
}
