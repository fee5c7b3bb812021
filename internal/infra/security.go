package infra

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// Settings keys owned by the credential gate.
const (
	SettingMasterPassword = "master_password"
	SettingOnboarded      = "onboarded"
)

// Argon2id parameters. Kept in the encoded hash so they can be raised
// later without invalidating stored passwords.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// ErrNoMasterPassword is returned when verification is attempted before
// onboarding has set a password.
var ErrNoMasterPassword = errors.New("no master password set")

// PasswordGate implements domain.CredentialGate with argon2id hashes
// persisted in the settings table. Plaintext is never stored.
type PasswordGate struct {
	store domain.Store
}

// NewPasswordGate creates a credential gate backed by the given store.
func NewPasswordGate(store domain.Store) *PasswordGate {
	return &PasswordGate{store: store}
}

// SetMasterPassword hashes and stores a new master password and marks
// the install as onboarded.
func (g *PasswordGate) SetMasterPassword(plaintext string) error {
	hash, err := hashPassword(plaintext)
	if err != nil {
		return err
	}
	if err := g.store.SetSetting(SettingMasterPassword, hash); err != nil {
		return err
	}
	return g.store.SetSetting(SettingOnboarded, "true")
}

// VerifyMasterPassword checks plaintext against the stored hash.
func (g *PasswordGate) VerifyMasterPassword(plaintext string) (bool, error) {
	hash, ok, err := g.store.GetSetting(SettingMasterPassword)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNoMasterPassword
	}
	return verifyPassword(plaintext, hash)
}

// hashPassword derives an argon2id hash in PHC string format.
func hashPassword(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// verifyPassword recomputes the hash with the parameters embedded in
// the PHC string and compares in constant time.
func verifyPassword(plaintext, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errors.New("malformed password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("malformed password hash version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("malformed password hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("malformed password hash salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("malformed password hash digest: %w", err)
	}

	got := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// Ensure PasswordGate implements domain.CredentialGate.
var _ domain.CredentialGate = (*PasswordGate)(nil)
