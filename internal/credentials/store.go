package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog_sync_backend/platform/logger"
)

// Store is the narrow interface the sync engine consumes. A load failure is
// non-fatal and surfaces as ErrNoCredentials rather than an I/O error.
type Store interface {
	LoadDecrypted(ctx context.Context, supplierID uuid.UUID, credType Type) (Credentials, error)
	RecordTestResult(ctx context.Context, supplierID uuid.UUID, credType Type, status, message string) error
}

// ErrNoCredentials indicates no active credential row exists for the supplier.
var ErrNoCredentials = errors.New("no active credentials")

// PostgresStore loads AES-encrypted supplier credentials from Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  []byte
	log  *logger.Logger
}

// NewPostgresStore creates a credential store. The key must be the 32-byte
// AES key configured for credential encryption.
func NewPostgresStore(pool *pgxpool.Pool, key []byte, log *logger.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, key: key, log: log}
}

// LoadDecrypted fetches and decrypts the active credential row for a
// supplier. Any failure (missing row, decrypt error) maps to
// ErrNoCredentials so callers treat it as "not configured", not as a fault.
func (s *PostgresStore) LoadDecrypted(ctx context.Context, supplierID uuid.UUID, credType Type) (Credentials, error) {
	const query = `
		SELECT username, password_encrypted, api_key_encrypted,
		       customer_number, api_endpoint, client_id, client_secret_encrypted
		FROM supplier_credentials
		WHERE supplier_id = $1 AND credential_type = $2 AND is_active`

	var username, passwordEnc, apiKeyEnc *string
	var customerNumber, apiEndpoint, clientID *string
	var clientSecretEnc *string
	err := s.pool.QueryRow(ctx, query, supplierID, string(credType)).Scan(
		&username, &passwordEnc, &apiKeyEnc,
		&customerNumber, &apiEndpoint, &clientID, &clientSecretEnc,
	)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.log.DatabaseError("load credentials", err)
		}
		return Credentials{}, ErrNoCredentials
	}

	creds := Credentials{
		Username:       deref(username),
		CustomerNumber: deref(customerNumber),
		APIEndpoint:    deref(apiEndpoint),
		ClientID:       deref(clientID),
	}

	creds.Password, err = s.decryptField(passwordEnc)
	if err != nil {
		return Credentials{}, ErrNoCredentials
	}
	creds.APIKey, err = s.decryptField(apiKeyEnc)
	if err != nil {
		return Credentials{}, ErrNoCredentials
	}
	creds.ClientSecret, err = s.decryptField(clientSecretEnc)
	if err != nil {
		return Credentials{}, ErrNoCredentials
	}

	return creds, nil
}

// RecordTestResult persists the outcome of a connection test for operator
// diagnosis. Called after every TestConnection.
func (s *PostgresStore) RecordTestResult(ctx context.Context, supplierID uuid.UUID, credType Type, status, message string) error {
	const query = `
		UPDATE supplier_credentials
		SET last_test_status = $3, last_test_message = $4, last_tested_at = $5, updated_at = $5
		WHERE supplier_id = $1 AND credential_type = $2`

	_, err := s.pool.Exec(ctx, query, supplierID, string(credType), status, message, time.Now())
	if err != nil {
		s.log.DatabaseError("record credential test result", err)
	}
	return err
}

func (s *PostgresStore) decryptField(encrypted *string) (string, error) {
	if encrypted == nil || *encrypted == "" {
		return "", nil
	}
	plaintext, err := Decrypt(*encrypted, s.key)
	if err != nil {
		s.log.Error("credential decrypt failed", "error", err)
		return "", err
	}
	return plaintext, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

var _ Store = (*PostgresStore)(nil)
