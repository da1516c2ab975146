package utils

import (
	"errors"
	"fmt"
)

// ErrIntegrity signale une chaîne de parents corrompue (cycle ou profondeur > 3 en base)
var ErrIntegrity = errors.New("intégrité des données compromise")

// ErrDuplicateKey est renvoyée par la persistance quand un index unique est violé
var ErrDuplicateKey = errors.New("valeur déjà utilisée")

// NotFoundError signale une ressource référencée inexistante
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s introuvable", e.Resource)
	}
	return fmt.Sprintf("%s introuvable: %s", e.Resource, e.ID)
}

// ConflictError signale une contrainte structurelle violée (suppression bloquée, cycle...)
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string {
	return e.Message
}

// PersistenceError enveloppe une erreur de la base de données
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence enveloppe err dans une PersistenceError, nil reste nil
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return PersistenceError{Op: op, Err: err}
}

// IsValidation, IsNotFound et IsConflict testent le type d'erreur à travers les wraps
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var c ConflictError
	return errors.As(err, &c)
}
