package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes str+pepper with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt clamps cost into bcrypt's accepted range.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (b *Bcrypt) Hash(str string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(str+b.pepper), b.cost)
}

func (b *Bcrypt) Verify(hashed, str string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(str+b.pepper)) == nil
}
