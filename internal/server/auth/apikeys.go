package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

// APIKeyRegistry maps opaque API keys to service identities. It is a
// separate capability from user authentication: a key never resolves to a
// user and never passes the Gate. Only SHA-256 digests of keys are held.
type APIKeyRegistry struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewAPIKeyRegistry seeds the registry with key -> service pairs.
func NewAPIKeyRegistry(initial map[string]string) *APIKeyRegistry {
	r := &APIKeyRegistry{keys: make(map[string]string, len(initial))}
	for key, service := range initial {
		r.Register(key, service)
	}
	return r
}

func digestKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Generate creates and registers a key of the form "<service>_<random>".
func (r *APIKeyRegistry) Generate(service string) (string, error) {
	service = strings.TrimSpace(service)
	if service == "" {
		return "", errors.New("service name must not be empty")
	}
	random, err := common.MakeRandURLSafeString(32)
	if err != nil {
		return "", err
	}
	key := service + "_" + random
	r.Register(key, service)
	return key, nil
}

func (r *APIKeyRegistry) Register(key, service string) {
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[digestKey(key)] = service
}

// Lookup returns the service identity behind key.
func (r *APIKeyRegistry) Lookup(key string) (models.ServiceIdentity, bool) {
	if key == "" {
		return models.ServiceIdentity{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	service, ok := r.keys[digestKey(key)]
	return models.ServiceIdentity{Name: service}, ok
}

func (r *APIKeyRegistry) Revoke(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := digestKey(key)
	_, ok := r.keys[d]
	delete(r.keys, d)
	return ok
}

func (r *APIKeyRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}
