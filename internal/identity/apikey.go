package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidKeyHash         = errors.New("identity: invalid api key hash format")
	ErrIncompatibleKeyVersion = errors.New("identity: incompatible api key hash version")
)

// Argon2idParams tunes the key-derivation cost for stored API key digests.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams matches the portal's provisioning tool.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashAPIKey derives the storable digest for a raw API key. Used by
// provisioning, not by the request path.
func HashAPIKey(key string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format is $argon2id$v=19$m=...,t=...,p=...$salt$hash
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

func verifyAPIKey(encodedHash, key string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return ErrInvalidKeyHash
	}
	if parts[1] != "argon2id" {
		return ErrInvalidKeyHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatibleKeyVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}

	comparison := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(decodedHash)))
	if subtle.ConstantTimeCompare(decodedHash, comparison) == 1 {
		return nil
	}
	return ErrInvalidCredential
}

// APIKeyring validates portal-issued credentials of the form
// "<userID>.<rawKey>" against argon2id digests provisioned via config.
type APIKeyring struct {
	hashes map[string]string
}

// ParseKeyring reads "userID=encodedHash" pairs separated by ';'.
func ParseKeyring(spec string) (*APIKeyring, error) {
	hashes := make(map[string]string)
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		userID, hash, ok := strings.Cut(entry, "=")
		userID = strings.TrimSpace(userID)
		hash = strings.TrimSpace(hash)
		if !ok || userID == "" || !strings.HasPrefix(hash, "$argon2id$") {
			return nil, fmt.Errorf("identity: malformed keyring entry %q", entry)
		}
		if _, dup := hashes[userID]; dup {
			return nil, fmt.Errorf("identity: duplicate keyring entry for %q", userID)
		}
		hashes[userID] = hash
	}
	if len(hashes) == 0 {
		return nil, errors.New("identity: keyring is empty")
	}
	return &APIKeyring{hashes: hashes}, nil
}

// Validate implements Validator.
func (k *APIKeyring) Validate(_ context.Context, credential string) (string, error) {
	if k == nil {
		return "", ErrInvalidCredential
	}
	userID, rawKey, ok := strings.Cut(credential, ".")
	if !ok || userID == "" || rawKey == "" {
		return "", ErrInvalidCredential
	}
	encodedHash, found := k.hashes[userID]
	if !found {
		return "", ErrInvalidCredential
	}
	if err := verifyAPIKey(encodedHash, rawKey); err != nil {
		return "", ErrInvalidCredential
	}
	return userID, nil
}
