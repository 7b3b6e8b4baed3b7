package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id encodes hashes in the PHC string format:
// $argon2id$v=19$m=32768,t=3,p=2$<salt>$<key>
type Argon2id struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen int
	keyLen  uint32
	pepper  string
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		memory:  32 * 1024,
		time:    3,
		threads: 2,
		saltLen: 16,
		keyLen:  32,
		pepper:  pepper,
	}
}

func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("argon2id salt: %w", err)
	}

	key := argon2.IDKey([]byte(str+a.pepper), salt, a.time, a.memory, a.threads, a.keyLen)
	b64 := base64.RawStdEncoding
	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.memory, a.time, a.threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

func (a *Argon2id) Verify(hashed, str string) bool {
	if str == "" {
		return false
	}

	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := b64.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(str+a.pepper), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}
