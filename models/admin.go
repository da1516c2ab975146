package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rôles administrateur
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Admin représente un compte du back office
type Admin struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Nom       string             `json:"nom" bson:"nom"`
	Password  string             `json:"-" bson:"password"` // hash bcrypt, jamais sérialisé
	Role      string             `json:"role" bson:"role"`
	Actif     bool               `json:"actif" bson:"actif"`
	LastLogin *time.Time         `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// LoginRequest représente la requête de connexion
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse représente la réponse d'authentification
type AuthResponse struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}

// ErrorResponse représente une réponse d'erreur
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Pagination décrit la page renvoyée
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination calcule le nombre de pages
func NewPagination(page, limit int, total int64) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// SuccessResponse représente une réponse de succès générique
type SuccessResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
