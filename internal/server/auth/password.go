package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/logging"
)

type HashAlgorithm string

const (
	AlgorithmBcrypt   HashAlgorithm = "bcrypt"
	AlgorithmArgon2id HashAlgorithm = "argon2id"
)

const argon2Prefix = "$argon2id$"

// Argon2Params tunes the argon2id scheme.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// HasherConfig selects the scheme used for new digests. Verification
// always follows the scheme recorded in the digest, so switching Algorithm
// keeps existing digests valid.
type HasherConfig struct {
	Algorithm     HashAlgorithm
	BcryptCost    int
	Argon2        Argon2Params
	MaxConcurrent int64
}

// PasswordHasher produces self-describing salted digests and verifies
// plaintexts against them. At most MaxConcurrent hash computations run at
// once.
type PasswordHasher struct {
	cfg    HasherConfig
	sem    *semaphore.Weighted
	logger logging.Logger

	dummyMu     sync.Mutex
	dummyDigest string
}

func NewPasswordHasher(cfg HasherConfig, logger logging.Logger) (*PasswordHasher, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmBcrypt
	}
	switch cfg.Algorithm {
	case AlgorithmBcrypt:
		if cfg.BcryptCost == 0 {
			cfg.BcryptCost = bcrypt.DefaultCost
		}
		if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case AlgorithmArgon2id:
		if cfg.Argon2 == (Argon2Params{}) {
			cfg.Argon2 = DefaultArgon2Params
		}
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", cfg.Algorithm)
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = int64(runtime.NumCPU())
	}

	h := &PasswordHasher{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger.With("module", "password_hasher"),
	}
	if _, err := h.dummy(); err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}
	return h, nil
}

// Hash returns a new digest for password. It blocks while the concurrency
// limit is reached and fails if ctx ends first.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	switch h.cfg.Algorithm {
	case AlgorithmArgon2id:
		return h.hashArgon2(password)
	default:
		digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost(h.cfg.BcryptCost))
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than 72 bytes", common.ErrorValidation)
		}
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(digest), nil
	}
}

// Verify reports whether password matches digest. It never fails: an
// unreadable digest is logged and treated as a mismatch.
func (h *PasswordHasher) Verify(ctx context.Context, password, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	switch {
	case strings.HasPrefix(digest, argon2Prefix):
		ok, err := verifyArgon2(password, digest)
		if err != nil {
			h.logger.Warn(ctx, "malformed password digest", "scheme", AlgorithmArgon2id, "error", err)
			return false
		}
		return ok
	case isBcryptDigest(digest):
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		if err == nil {
			return true
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.logger.Warn(ctx, "malformed password digest", "scheme", AlgorithmBcrypt, "error", err)
		}
		return false
	default:
		h.logger.Warn(ctx, "unrecognised password digest scheme")
		return false
	}
}

// VerifyDummy spends the same effort as a real Verify against a digest no
// password matches. Used when the principal does not exist so both paths
// take comparable time.
func (h *PasswordHasher) VerifyDummy(ctx context.Context, password string) {
	digest, err := h.dummy()
	if err != nil {
		h.logger.Error(ctx, "dummy digest unavailable", "error", err)
		return
	}
	_ = h.Verify(ctx, password, digest)
}

// dummy returns the digest used by VerifyDummy, creating it on first use.
// It is built outside any request context so a cancelled caller cannot
// leave it empty.
func (h *PasswordHasher) dummy() (string, error) {
	h.dummyMu.Lock()
	defer h.dummyMu.Unlock()

	if h.dummyDigest != "" {
		return h.dummyDigest, nil
	}
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	digest, err := h.Hash(context.Background(), secret)
	if err != nil {
		return "", err
	}
	h.dummyDigest = digest
	return digest, nil
}

func isBcryptDigest(d string) bool {
	return strings.HasPrefix(d, "$2a$") || strings.HasPrefix(d, "$2b$") || strings.HasPrefix(d, "$2y$")
}

func (h *PasswordHasher) hashArgon2(password string) (string, error) {
	p := h.cfg.Argon2
	salt := common.GenerateRandByteArray(int(p.SaltLen))
	if salt == nil {
		return "", errors.New("argon2id: salt generation failed")
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2(password, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false, errors.New("unexpected number of fields")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported version %d", version)
	}

	var (
		memory, time uint32
		threads      uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("params: %w", err)
	}
	if memory == 0 || time == 0 || threads == 0 {
		return false, errors.New("zero params")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, errors.New("bad key encoding")
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
