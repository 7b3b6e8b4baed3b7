// Package hash hashes passwords and derives keyed digests.
package hash

// Hash produces a one-way encoding of str and checks candidates against it.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// New picks the password hasher by name: "argon2id", otherwise bcrypt.
func New(algorithm string, bcryptCost int, pepper string) Hash {
	if algorithm == "argon2id" {
		return NewArgon2id(pepper)
	}
	return NewBcrypt(bcryptCost, pepper)
}
