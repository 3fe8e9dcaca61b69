package apikey

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
)

const (
	// KeyLength is the length of a generated key value
	KeyLength = 48
	// PrefixLength is the length of the clear key prefix stored for lookup
	PrefixLength = 8
)

// APIKey represents a stored API key. The key value itself is never stored,
// only a bcrypt hash and a clear prefix used to narrow the validation lookup.
type APIKey struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	KeyPrefix string     `json:"keyPrefix"`
	KeyHash   string     `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedBy string     `json:"createdBy"`
}

// APIKeyWithValue carries the clear key value, returned once at creation time only
type APIKeyWithValue struct {
	APIKey
	KeyValue string `json:"keyValue"`
}

// IsValid checks if an API key definition is valid and has no missing mandatory fields
// * Name must not be empty
// * Name must not be shorter than 3 characters
// * Role must be a known role name
// * CreatedBy must not be empty
// * ExpiresAt must be in the future when set
func (key *APIKey) IsValid() (bool, error) {
	if key.Name == "" {
		return false, errors.New("missing Name")
	}
	if len(key.Name) < 3 {
		return false, errors.New("name is too short (less than 3 characters)")
	}
	if !roles.IsValid(key.Role) {
		return false, errors.New("unknown Role")
	}
	if key.CreatedBy == "" {
		return false, errors.New("missing CreatedBy")
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return false, errors.New("expiration date must be in the future")
	}
	return true, nil
}

// IsUsable checks if an API key can currently authenticate a caller
func (key *APIKey) IsUsable() bool {
	if !key.IsActive {
		return false
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return false
	}
	return true
}

// New builds a new API key with a freshly generated value.
// The clear value is only available on the returned APIKeyWithValue.
func New(name string, role string, createdBy string, expiresAt *time.Time) (APIKeyWithValue, error) {
	value, err := generateValue()
	if err != nil {
		return APIKeyWithValue{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
	if err != nil {
		return APIKeyWithValue{}, err
	}

	return APIKeyWithValue{
		APIKey: APIKey{
			ID:        uuid.New(),
			Name:      name,
			Role:      role,
			KeyPrefix: value[:PrefixLength],
			KeyHash:   string(hash),
			CreatedAt: time.Now().UTC(),
			ExpiresAt: expiresAt,
			IsActive:  true,
			CreatedBy: createdBy,
		},
		KeyValue: value,
	}, nil
}

// Matches compares a clear key value against the stored hash
func (key *APIKey) Matches(keyValue string) bool {
	return bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(keyValue)) == nil
}

func generateValue() (string, error) {
	b := make([]byte, 36)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
