package compliance

import (
	"context"

	"github.com/retailgrid/fbr-sync/internal/domain/repository"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
)

// AuthorityClient is the outbound port to the FBR gateway. The concrete
// implementation speaks JSON over HTTPS; tests inject a fake.
type AuthorityClient interface {
	// Validate checks the document with the Authority without fiscalizing it.
	Validate(ctx context.Context, creds infrafbr.Credentials, payload []byte) *infrafbr.Result
	// Submit fiscalizes the document.
	Submit(ctx context.Context, creds infrafbr.Credentials, payload []byte) *infrafbr.Result
}

// TokenCipher encrypts and decrypts stored bearer tokens.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encoded string) (string, error)
}

// CredentialSource resolves a tenant's decrypted Authority credentials.
// Injected rather than fetched from ambient state so the orchestrator and
// worker stay testable.
type CredentialSource interface {
	// CredentialsForTenant returns ready-to-use credentials, or
	// domain.ErrNotConfigured when the tenant has no active config.
	CredentialsForTenant(ctx context.Context, tenantID string) (infrafbr.Credentials, error)
}

// TxRunner executes a callback within one storage transaction so a sale
// status write and its queue mutation land atomically.
type TxRunner interface {
	RunCompliance(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		queueRepo repository.QueueRepository,
		configRepo repository.FBRConfigRepository,
	) error) error
}
