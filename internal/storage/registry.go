// Package storage implements the provider registry lookup
package storage

import (
	"context"
	"fmt"

	"github.com/llm-router/router/pkg/types"
	"github.com/llm-router/router/pkg/utils"
)

// RegistryLookup is the contract the routing core consumes: a snapshot of
// the currently active providers with their weights and decrypted
// credentials. Freshness is best-effort; a provider disabled mid-flight may
// still be selected by a request already in progress.
type RegistryLookup interface {
	FindActiveProviders(ctx context.Context) ([]types.ProviderInfo, error)
}

// ProviderRegistry reads provider rows from PostgreSQL and decrypts their
// credentials with the configured master key.
type ProviderRegistry struct {
	db        *Database
	masterKey string
	logger    *utils.Logger
}

// NewProviderRegistry creates a registry backed by the given database.
func NewProviderRegistry(db *Database, masterKey string, logger *utils.Logger) *ProviderRegistry {
	return &ProviderRegistry{
		db:        db,
		masterKey: masterKey,
		logger:    logger,
	}
}

// FindActiveProviders returns every active provider row. Rows whose name is
// not a known provider id, or whose credential fails to decrypt, are skipped
// with a warning rather than failing the whole lookup.
func (r *ProviderRegistry) FindActiveProviders(ctx context.Context) ([]types.ProviderInfo, error) {
	var records []ProviderRecord
	if err := r.db.DB.WithContext(ctx).Where("is_active = ?", true).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}

	infos := make([]types.ProviderInfo, 0, len(records))
	for _, rec := range records {
		id := types.ProviderID(rec.Name)
		if !id.Valid() {
			r.logger.WithField("name", rec.Name).Warn("Skipping unknown provider row")
			continue
		}

		apiKey, err := utils.DecryptSecret(rec.APIKeyCipher, r.masterKey)
		if err != nil {
			r.logger.WithProvider(id).WithError(err).Warn("Skipping provider with undecryptable credential")
			continue
		}

		infos = append(infos, types.ProviderInfo{
			ID:            id,
			Weight:        rec.Weight,
			IsActive:      rec.IsActive,
			APIKey:        apiKey,
			KeyGeneration: rec.KeyGeneration,
			BaseURL:       rec.BaseURL,
			Model:         rec.Model,
		})
	}

	return infos, nil
}

// UpsertProvider stores or updates a provider row, encrypting the credential
// and bumping the key generation when the credential changes. Operator
// tooling calls this; the routing core never writes to the registry.
func (r *ProviderRegistry) UpsertProvider(ctx context.Context, id types.ProviderID, weight float64, active bool, apiKey, baseURL, model string) error {
	if !id.Valid() {
		return fmt.Errorf("unknown provider id: %s", id)
	}

	cipher, err := utils.EncryptSecret(apiKey, r.masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	var existing ProviderRecord
	err = r.db.DB.WithContext(ctx).Where("name = ?", id.String()).First(&existing).Error
	if err == nil {
		existing.Weight = weight
		existing.IsActive = active
		existing.BaseURL = baseURL
		existing.Model = model
		if r.credentialChanged(existing.APIKeyCipher, apiKey) {
			existing.APIKeyCipher = cipher
			existing.KeyGeneration++
		}
		return r.db.DB.WithContext(ctx).Save(&existing).Error
	}

	record := ProviderRecord{
		Name:          id.String(),
		Weight:        weight,
		IsActive:      active,
		APIKeyCipher:  cipher,
		KeyGeneration: 1,
		BaseURL:       baseURL,
		Model:         model,
	}
	return r.db.DB.WithContext(ctx).Create(&record).Error
}

// credentialChanged reports whether the stored cipher no longer holds the
// supplied plaintext. AES-GCM output is nondeterministic (random nonce), so
// ciphertexts cannot be compared directly; the stored value is decrypted
// instead. An undecryptable row counts as changed so the credential is
// rewritten and the generation bumped.
func (r *ProviderRegistry) credentialChanged(storedCipher, apiKey string) bool {
	current, err := utils.DecryptSecret(storedCipher, r.masterKey)
	if err != nil {
		return true
	}
	return current != apiKey
}

// LogRequest appends one audit row. Failures are logged and swallowed so
// auditing never affects the request path.
func (r *ProviderRegistry) LogRequest(ctx context.Context, log *RequestLog) {
	if err := r.db.DB.WithContext(ctx).Create(log).Error; err != nil {
		r.logger.WithError(err).Warn("Failed to write request log")
	}
}
