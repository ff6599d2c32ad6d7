package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// CredentialStore is the only writer of credential keys for one namespace.
// Saves and clears touch the whole record at once.
type CredentialStore struct {
	kv        ports.KeyValueStore
	namespace string
	logger    *slog.Logger
}

// NewCredentialStore binds kv to namespace.
func NewCredentialStore(kv ports.KeyValueStore, namespace string, logger *slog.Logger) *CredentialStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialStore{
		kv:        kv,
		namespace: namespace,
		logger:    logger.With("component", "credential_store", "namespace", namespace),
	}
}

// Namespace returns the bound namespace.
func (c *CredentialStore) Namespace() string { return c.namespace }

// Read returns a single value; ok is false when the key is absent.
func (c *CredentialStore) Read(ctx context.Context, key string) (string, bool, error) {
	v, err := c.kv.Get(ctx, c.namespace, key)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, true, nil
}

// Load reads every tracked key. A corrupt cached profile is logged and
// dropped; the rest of the record is still returned.
func (c *CredentialStore) Load(ctx context.Context) (domainauth.CredentialRecord, error) {
	values, err := c.kv.GetMany(ctx, c.namespace, domainauth.SessionKeys)
	if err != nil {
		return domainauth.CredentialRecord{}, fmt.Errorf("load credentials: %w", err)
	}
	rec, profileErr := domainauth.RecordFromEntries(values)
	if profileErr != nil {
		c.logger.WarnContext(ctx, "cached profile is corrupt", "error", profileErr)
	}
	return rec, nil
}

// Save writes the full record in one atomic write.
func (c *CredentialStore) Save(ctx context.Context, rec domainauth.CredentialRecord) error {
	if !rec.HasToken() {
		return errors.New("save credentials: record has no token")
	}
	entries, err := rec.Entries()
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := c.kv.SetMany(ctx, c.namespace, entries); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear removes every tracked key. Other keys in the namespace are kept.
func (c *CredentialStore) Clear(ctx context.Context) error {
	if err := c.kv.Delete(ctx, c.namespace, domainauth.SessionKeys...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
