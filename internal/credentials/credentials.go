// Package credentials loads and reports on supplier credentials. Secrets
// are stored AES-256-GCM encrypted and decrypted on load; the rest of the
// engine only ever sees plaintext Credentials values held in memory.
package credentials

// Type distinguishes credential sets for the same supplier.
type Type string

const (
	TypeFTP Type = "ftp"
	TypeAPI Type = "api"
)

// Test result statuses reported after a connection test.
const (
	StatusSuccess            = "success"
	StatusFailed             = "failed"
	StatusTimeout            = "timeout"
	StatusInvalidCredentials = "invalid_credentials"
)

// Credentials is the generic credential record handed to FTP and API
// clients. Which fields are populated depends on the credential type.
type Credentials struct {
	Username       string
	Password       string
	APIKey         string
	CustomerNumber string
	APIEndpoint    string
	ClientID       string
	ClientSecret   string
}

// Empty reports whether no usable secret is present.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == "" && c.APIKey == "" &&
		c.ClientID == "" && c.ClientSecret == ""
}
