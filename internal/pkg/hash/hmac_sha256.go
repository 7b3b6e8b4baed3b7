package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 derives deterministic hex digests. It keys Redis entries by
// email so raw addresses never appear in key names.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (h *HMACSHA256) Hash(str string) ([]byte, error) {
	return h.digest(str), nil
}

func (h *HMACSHA256) Verify(hashed, str string) bool {
	return hmac.Equal([]byte(hashed), h.digest(str))
}

func (h *HMACSHA256) digest(str string) []byte {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(str))
	return hex.AppendEncode(nil, mac.Sum(nil))
}
