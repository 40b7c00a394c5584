// Package auth implements the credential side of the counter engine: HMAC
// staff keys scoped to one edition, and opaque per-counter tokens for the
// anonymous shared-link (QR code) entry mode.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidStaffKey = errors.New("invalid staff key")

// GenerateStaffKey derives the staff key for an edition. Deterministic and
// verifiable: anyone holding the salt can re-derive it, so the server never
// stores keys.
func GenerateStaffKey(editionID int64, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("edition:" + strconv.FormatInt(editionID, 10)))
	sum := h.Sum(nil)
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateStaffKey checks a presented key against the edition's derived key.
func ValidateStaffKey(editionID int64, key, salt string) error {
	expected := GenerateStaffKey(editionID, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidStaffKey
	}
	return nil
}

// NewCounterToken creates a fresh shareable counter token. 24 bytes gives
// 192 bits of entropy; URL-safe so it can be embedded directly in a QR link.
func NewCounterToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate counter token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}
