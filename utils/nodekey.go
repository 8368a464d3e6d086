// utils/nodekey.go
package utils

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Packed keys combine a 20-byte identity with a numeric instance into one
// 32-byte value: 12 bytes of big-endian instance number followed by the
// identity. Node instances and competitions share this key space; for a
// competition the "instance" is the creator's nonce at creation time.
//
// This is a lookup key, not ownership: unpacking gives back exactly what
// was packed.

const (
	identityHexLen = 40 // 20 bytes
	numberHexLen   = 24 // 12 bytes
	packedHexLen   = numberHexLen + identityHexLen
)

// NormalizeIdentity lowercases a 0x-prefixed 20-byte identity and validates
// its shape.
func NormalizeIdentity(identity string) (string, error) {
	id := strings.ToLower(strings.TrimPrefix(identity, "0x"))
	if len(id) != identityHexLen {
		return "", fmt.Errorf("identity must be 20 bytes of hex, got %q", identity)
	}
	if _, err := hex.DecodeString(id); err != nil {
		return "", fmt.Errorf("identity is not valid hex: %w", err)
	}
	return "0x" + id, nil
}

// PackKey encodes (identity, number) into a 32-byte hex key.
func PackKey(identity string, number uint64) (string, error) {
	id, err := NormalizeIdentity(identity)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%024x%s", number, strings.TrimPrefix(id, "0x")), nil
}

// UnpackKey reverses PackKey.
func UnpackKey(key string) (identity string, number uint64, err error) {
	k := strings.ToLower(strings.TrimPrefix(key, "0x"))
	if len(k) != packedHexLen {
		return "", 0, fmt.Errorf("packed key must be 32 bytes of hex, got %q", key)
	}
	numPart := k[:numberHexLen]
	raw, err := hex.DecodeString(numPart)
	if err != nil {
		return "", 0, fmt.Errorf("packed key is not valid hex: %w", err)
	}
	// Instance numbers fit in uint64; the high 4 bytes of the number part
	// must be zero.
	for _, b := range raw[:4] {
		if b != 0 {
			return "", 0, fmt.Errorf("packed key number part overflows uint64: %q", key)
		}
	}
	for _, b := range raw[4:] {
		number = number<<8 | uint64(b)
	}
	identity, err = NormalizeIdentity(k[numberHexLen:])
	if err != nil {
		return "", 0, err
	}
	return identity, number, nil
}
