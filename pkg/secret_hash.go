package pkg

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes short-lived secrets, like email confirmation codes.
func HashSecret(secret string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	return BytesToString(bytes), err
}

func CheckSecretHash(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
