package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
var bicRegex = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
var ibanRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{10,30}$`)

// Bornes des annonces
const (
	AnneeMin = 1900
	NoteMax  = 5.0
)

// ValidationError représente une erreur de validation
type ValidationError struct {
	Field   string
	Message string
}

// Error implémente l'interface error
func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidateEmail valide un email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "l'email est requis"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "format d'email invalide"}
	}
	return nil
}

// ValidatePassword valide un mot de passe administrateur
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "le mot de passe est requis"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "le mot de passe doit contenir au moins 8 caractères"}
	}
	return nil
}

// ValidateRequired valide qu'un champ n'est pas vide
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s est requis", field)}
	}
	return nil
}

// ValidatePhone valide un numéro de téléphone (format international accepté)
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	phone = strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "").Replace(phone)

	if phone == "" {
		return ValidationError{Field: "telephone", Message: "le numéro de téléphone est requis"}
	}
	if !phoneRegex.MatchString(phone) {
		return ValidationError{Field: "telephone", Message: "format de téléphone invalide"}
	}
	return nil
}

// ValidatePrice refuse les prix négatifs
func ValidatePrice(prix float64) error {
	if prix < 0 {
		return ValidationError{Field: "prix", Message: "le prix doit être positif ou nul"}
	}
	return nil
}

// ValidateYear vérifie que l'année est comprise entre 1900 et l'année suivant currentYear
func ValidateYear(annee, currentYear int) error {
	if annee < AnneeMin || annee > currentYear+1 {
		return ValidationError{
			Field:   "annee",
			Message: fmt.Sprintf("l'année doit être comprise entre %d et %d", AnneeMin, currentYear+1),
		}
	}
	return nil
}

// ValidateRating vérifie qu'une note est comprise entre 0 et 5
func ValidateRating(note float64) error {
	if note < 0 || note > NoteMax {
		return ValidationError{Field: "note", Message: "la note doit être comprise entre 0 et 5"}
	}
	return nil
}

// ValidateSlug vérifie le format d'un slug (minuscules, chiffres et tirets)
func ValidateSlug(slug string) error {
	if slug == "" {
		return ValidationError{Field: "slug", Message: "le slug est requis"}
	}
	if !slugRegex.MatchString(slug) {
		return ValidationError{Field: "slug", Message: "le slug ne doit contenir que des minuscules, chiffres et tirets"}
	}
	return nil
}

// ValidateOneOf vérifie qu'une valeur appartient à une liste fermée
func ValidateOneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("valeur invalide %q (attendu: %s)", value, strings.Join(allowed, ", ")),
	}
}

// NormalizeIBAN retire les espaces et passe en majuscules
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// ValidateIBAN vérifie le format et la clé (modulo 97) d'un IBAN
func ValidateIBAN(iban string) error {
	iban = NormalizeIBAN(iban)
	if !ibanRegex.MatchString(iban) {
		return ValidationError{Field: "iban", Message: "format d'IBAN invalide"}
	}

	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, c := range rearranged {
		if c >= 'A' && c <= 'Z' {
			digits.WriteString(fmt.Sprintf("%d", c-'A'+10))
		} else {
			digits.WriteRune(c)
		}
	}

	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok || new(big.Int).Mod(n, big.NewInt(97)).Int64() != 1 {
		return ValidationError{Field: "iban", Message: "clé d'IBAN invalide"}
	}
	return nil
}

// ValidateBIC vérifie le format d'un code BIC (8 ou 11 caractères)
func ValidateBIC(bic string) error {
	bic = strings.ToUpper(strings.TrimSpace(bic))
	if !bicRegex.MatchString(bic) {
		return ValidationError{Field: "bic", Message: "format de BIC invalide"}
	}
	return nil
}
