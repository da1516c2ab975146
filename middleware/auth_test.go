package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"engins-backoffice/models"
	"engins-backoffice/utils"
)

const testAuthSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMissingToken(t *testing.T) {
	handler := Auth(testAuthSecret)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Code = %v, attendu 401", rr.Code)
	}
}

func TestAuthInvalidFormat(t *testing.T) {
	handler := Auth(testAuthSecret)(okHandler())

	for _, header := range []string{"InvalidFormat", "Basic abc", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%q: Code = %v, attendu 401", header, rr.Code)
		}
	}
}

func TestAuthWrongSecret(t *testing.T) {
	token, err := utils.GenerateToken("admin1", "admin@example.com", models.RoleAdmin, "autre-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	Auth(testAuthSecret)(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Code = %v, attendu 401", rr.Code)
	}
}

func TestAuthValidToken(t *testing.T) {
	token, err := utils.GenerateToken("admin1", "admin@example.com", models.RoleAdmin, testAuthSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	handler := Auth(testAuthSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetAdminFromContext(r.Context())
		if claims == nil {
			t.Error("GetAdminFromContext retourne nil")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if claims.AdminID != "admin1" || claims.Email != "admin@example.com" || claims.Role != models.RoleAdmin {
			t.Errorf("claims = %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Code = %v, attendu 200", rr.Code)
	}
}
