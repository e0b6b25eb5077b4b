package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalDirectory is an in-memory Provider for development mode and tests.
// Credentials are bcrypt-hashed like the real auth service does, so the
// directory behaves like a principal store rather than a plain map of
// plaintext passwords.
type LocalDirectory struct {
	mu      sync.Mutex
	byID    map[string]localPrincipal
	byEmail map[string]string // email -> id
}

type localPrincipal struct {
	id           string
	email        string
	passwordHash []byte
}

func NewLocalDirectory() *LocalDirectory {
	return &LocalDirectory{
		byID:    map[string]localPrincipal{},
		byEmail: map[string]string{},
	}
}

func (d *LocalDirectory) CreateUser(_ context.Context, u NewUser) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u.Email == "" {
		return "", fmt.Errorf("email is required")
	}
	if _, exists := d.byEmail[u.Email]; exists {
		return "", fmt.Errorf("principal with email %s already exists", u.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.NewString()
	d.byID[id] = localPrincipal{id: id, email: u.Email, passwordHash: hash}
	d.byEmail[u.Email] = id
	return id, nil
}

func (d *LocalDirectory) DeleteUser(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byID[id]
	if !ok {
		// Deleting an unknown principal is a no-op, matching the HTTP
		// provider's tolerance of 404.
		return nil
	}
	delete(d.byID, id)
	delete(d.byEmail, p.email)
	return nil
}

// VerifyPassword checks a credential pair against the directory.
func (d *LocalDirectory) VerifyPassword(email, password string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.byEmail[email]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(d.byID[id].passwordHash, []byte(password)) == nil
}

// Len reports the number of principals in the directory.
func (d *LocalDirectory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byID)
}
