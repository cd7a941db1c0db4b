package user

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// KeyDeriver turns an identity (a username) into a stable lookup key.
// It must be deterministic.
type KeyDeriver interface {
	Derive(identity string) string
}

// PasswordHasher hashes passwords for storage and checks them later.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// IDGenerator produces a globally unique identifier per new record.
type IDGenerator interface {
	NewID() string
}

// SHA256Keys derives keys as the standard base64 encoding of the SHA-256
// digest of the identity. Keys written by earlier deployments use this form.
type SHA256Keys struct{}

func (SHA256Keys) Derive(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Blake2bKeys derives keys from a 256-bit BLAKE2b digest.
type Blake2bKeys struct{}

func (Blake2bKeys) Derive(identity string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(identity))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// BcryptHasher hashes passwords with bcrypt at the given cost.
// A zero cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// ULIDGenerator issues lexicographically sortable ULIDs.
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}
