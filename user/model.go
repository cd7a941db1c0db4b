package user

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	"github.com/poiesic/hashstore/core"
)

const (
	// DefaultSecretsNamespace holds password hashes.
	DefaultSecretsNamespace = "user_passwords"
	// DefaultRecordsNamespace holds user records.
	DefaultRecordsNamespace = "users"
)

// Store is the subset of the accessor the model depends on.
type Store interface {
	SetScalar(ctx context.Context, namespace, key, value string) bool
	GetScalar(ctx context.Context, namespace, key string) (string, bool)
	SetHash(ctx context.Context, namespace, key string, fields map[string]core.Value) bool
	GetHash(ctx context.Context, namespace, key string) (map[string]core.Value, bool)
	DeleteKey(ctx context.Context, namespace, key string) bool
}

// Model stores and retrieves user accounts.
type Model struct {
	store     Store
	keys      KeyDeriver
	hasher    PasswordHasher
	ids       IDGenerator
	secretsNS string
	recordsNS string
	poolSize  int
	logger    *slog.Logger
}

// Option configures a Model.
type Option func(*Model) error

// WithKeyDeriver sets how lookup keys are derived from usernames.
// Default is SHA256Keys.
func WithKeyDeriver(k KeyDeriver) Option {
	return func(m *Model) error {
		if k == nil {
			return ErrCollaboratorRequired
		}
		m.keys = k
		return nil
	}
}

// WithPasswordHasher sets the password hasher. Default is BcryptHasher.
func WithPasswordHasher(h PasswordHasher) Option {
	return func(m *Model) error {
		if h == nil {
			return ErrCollaboratorRequired
		}
		m.hasher = h
		return nil
	}
}

// WithIDGenerator sets the record ID generator. Default is UUIDGenerator.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Model) error {
		if g == nil {
			return ErrCollaboratorRequired
		}
		m.ids = g
		return nil
	}
}

// WithNamespaces sets the namespaces for secrets and records.
func WithNamespaces(secrets, records string) Option {
	return func(m *Model) error {
		secrets, records = strings.TrimSpace(secrets), strings.TrimSpace(records)
		if secrets == "" || records == "" || secrets == records {
			return ErrInvalidNamespace
		}
		m.secretsNS = secrets
		m.recordsNS = records
		return nil
	}
}

// WithPoolSize sets the default number of workers used by CreateMany.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(m *Model) error {
		if size < 1 {
			size = 1
		}
		m.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewModel creates a user model over store.
func NewModel(store Store, opts ...Option) (*Model, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	m := &Model{
		store:     store,
		keys:      SHA256Keys{},
		hasher:    BcryptHasher{},
		ids:       UUIDGenerator{},
		secretsNS: DefaultSecretsNamespace,
		recordsNS: DefaultRecordsNamespace,
		poolSize:  poolSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// KeyFor returns the lookup key of username.
func (m *Model) KeyFor(username string) string {
	return m.keys.Derive(username)
}

// SecretsNamespace returns the namespace password hashes are kept in.
func (m *Model) SecretsNamespace() string { return m.secretsNS }

// RecordsNamespace returns the namespace user records are kept in.
func (m *Model) RecordsNamespace() string { return m.recordsNS }

// Create stores a new account. The password hash is written first; if the
// record cannot be written afterwards the hash is deleted again. Creating a
// username that already has a record fails without touching it.
func (m *Model) Create(ctx context.Context, username, password, email string) (*core.User, bool) {
	if err := core.ValidateCredentials(username, password); err != nil {
		m.logger.Warn("rejected user creation", "error", err)
		return nil, false
	}

	key := m.KeyFor(username)
	if _, exists := m.store.GetHash(ctx, m.recordsNS, key); exists {
		m.logger.Warn("user already exists", "username", username)
		return nil, false
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		m.logger.Error("failed to hash password", "username", username, "error", err)
		return nil, false
	}

	u := &core.User{
		Key:      key,
		ID:       m.ids.NewID(),
		Username: username,
		Email:    email,
	}
	if err := core.ValidateUser(u); err != nil {
		m.logger.Warn("rejected user creation", "error", err)
		return nil, false
	}

	if !m.store.SetScalar(ctx, m.secretsNS, key, hash) {
		m.logger.Error("failed to store password", "username", username)
		return nil, false
	}
	var undo rollback
	undo.push("delete password", func(ctx context.Context) bool {
		return m.store.DeleteKey(ctx, m.secretsNS, key)
	})

	if !m.store.SetHash(ctx, m.recordsNS, key, u.Fields()) {
		m.logger.Error("failed to store user record, rolling back", "username", username)
		if !undo.run(ctx, m.logger) {
			m.logger.Error("rollback incomplete, password may be orphaned", "username", username)
		}
		return nil, false
	}

	m.logger.Debug("user created", "username", username, "id", u.ID)
	return u, true
}

// Update replaces the record of an existing user. The key is derived from
// u.Username and the stored record must carry the same ID. Fields missing
// from u are not preserved. If the new record cannot be written, the old one
// is put back.
func (m *Model) Update(ctx context.Context, u *core.User) bool {
	if err := core.ValidateUser(u); err != nil {
		m.logger.Warn("rejected user update", "error", err)
		return false
	}

	key := m.KeyFor(u.Username)
	previous, ok := m.store.GetHash(ctx, m.recordsNS, key)
	if !ok {
		m.logger.Warn("user to update does not exist", "username", u.Username)
		return false
	}
	if id := previous[core.FieldID].Text(); id != u.ID {
		m.logger.Warn("user id does not match stored record", "username", u.Username, "id", u.ID, "stored_id", id)
		return false
	}

	if !m.store.DeleteKey(ctx, m.recordsNS, key) {
		m.logger.Error("failed to remove previous record", "username", u.Username)
		return false
	}
	var undo rollback
	undo.push("restore previous record", func(ctx context.Context) bool {
		return m.store.SetHash(ctx, m.recordsNS, key, previous)
	})

	if !m.store.SetHash(ctx, m.recordsNS, key, u.Fields()) {
		m.logger.Error("failed to write updated record, restoring previous", "username", u.Username)
		if !undo.run(ctx, m.logger) {
			m.logger.Error("previous record not restored, user record lost", "username", u.Username, "id", u.ID)
		}
		return false
	}

	u.Key = key
	return true
}

// Delete removes the password and the record stored under key. The two
// deletions are independent; the result reflects the record deletion.
func (m *Model) Delete(ctx context.Context, key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	if !m.store.DeleteKey(ctx, m.secretsNS, key) {
		m.logger.Warn("password not deleted", "key", key)
	}
	if !m.store.DeleteKey(ctx, m.recordsNS, key) {
		m.logger.Warn("user record not deleted, password may be orphaned", "key", key)
		return false
	}
	return true
}

// DeleteByIdentity removes the account of username.
func (m *Model) DeleteByIdentity(ctx context.Context, username string) bool {
	if strings.TrimSpace(username) == "" {
		return false
	}
	return m.Delete(ctx, m.KeyFor(username))
}

// LookupByIdentity returns the record of username.
func (m *Model) LookupByIdentity(ctx context.Context, username string) (*core.User, bool) {
	if strings.TrimSpace(username) == "" {
		return nil, false
	}
	key := m.KeyFor(username)
	fields, ok := m.store.GetHash(ctx, m.recordsNS, key)
	if !ok {
		return nil, false
	}
	return core.UserFromFields(key, fields), true
}

// VerifyPassword reports whether password matches the stored hash of
// username.
func (m *Model) VerifyPassword(ctx context.Context, username, password string) bool {
	if strings.TrimSpace(username) == "" || password == "" {
		return false
	}
	hash, ok := m.store.GetScalar(ctx, m.secretsNS, m.KeyFor(username))
	if !ok {
		return false
	}
	return m.hasher.Compare(hash, password)
}
