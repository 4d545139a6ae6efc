package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuth checks HTTP basic credentials against one user and a bcrypt
// password hash.
type BasicAuth struct {
	user  string
	hash  []byte
	realm string
}

// NewBasicAuth validates the hash and returns the checker.
func NewBasicAuth(user, passwordHash string) (*BasicAuth, error) {
	if user == "" {
		return nil, errors.New("basic auth: empty user")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("basic auth: invalid password hash: %w", err)
	}
	return &BasicAuth{user: user, hash: []byte(passwordHash), realm: "listsync"}, nil
}

// HashPassword returns the bcrypt hash of password at the given cost.
// A cost of 0 uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether user and password match.
func (a *BasicAuth) Verify(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
	return userOK && passOK
}

// Middleware rejects requests without valid credentials with 401.
func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || !a.Verify(user, password) {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, a.realm))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Kind: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
