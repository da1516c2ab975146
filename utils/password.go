package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost est le coût de hachage des mots de passe administrateur
var BcryptCost = 12

// HashPassword valide puis hache un mot de passe administrateur
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compare un mot de passe à son hash bcrypt
func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
