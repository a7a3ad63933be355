package compliance

import (
	"context"
	"strings"
	"testing"

	"github.com/retailgrid/fbr-sync/internal/application/dto"
	"github.com/retailgrid/fbr-sync/internal/domain"
	"github.com/retailgrid/fbr-sync/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *crypto.TokenCipher {
	t.Helper()
	cipher, err := crypto.NewTokenCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)
	return cipher
}

func TestConfigUseCase_UpsertEncryptsToken(t *testing.T) {
	repo := newFakeConfigRepo()
	cipher := testCipher(t)
	uc := NewConfigUseCase(repo, cipher, testLogger())

	resp, err := uc.Upsert(context.Background(), "tenant-1", &dto.UpsertFBRConfigRequest{
		BearerToken: "1dceb1a5-f4f2-4a01-a42c-3e0e10a60f4b",
		SandboxMode: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", resp.TenantID)
	assert.True(t, resp.SandboxMode)
	assert.True(t, resp.IsActive)

	require.Len(t, repo.upserted, 1)
	stored := repo.upserted[0]
	assert.NotEqual(t, "1dceb1a5-f4f2-4a01-a42c-3e0e10a60f4b", stored.BearerToken, "token must not be stored in plaintext")

	plain, err := cipher.Decrypt(stored.BearerToken)
	require.NoError(t, err)
	assert.Equal(t, "1dceb1a5-f4f2-4a01-a42c-3e0e10a60f4b", plain)
}

func TestConfigUseCase_UpsertRejectsShortToken(t *testing.T) {
	uc := NewConfigUseCase(newFakeConfigRepo(), testCipher(t), testLogger())

	_, err := uc.Upsert(context.Background(), "tenant-1", &dto.UpsertFBRConfigRequest{BearerToken: "short"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigUseCase_GetHidesToken(t *testing.T) {
	repo := newFakeConfigRepo()
	uc := NewConfigUseCase(repo, testCipher(t), testLogger())

	_, err := uc.Upsert(context.Background(), "tenant-1", &dto.UpsertFBRConfigRequest{
		BearerToken: "1dceb1a5-f4f2-4a01-a42c-3e0e10a60f4b",
	})
	require.NoError(t, err)

	resp, err := uc.Get(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", resp.TenantID)
	assert.False(t, resp.SandboxMode)
}

func TestConfigUseCase_GetNotFound(t *testing.T) {
	uc := NewConfigUseCase(newFakeConfigRepo(), testCipher(t), testLogger())

	_, err := uc.Get(context.Background(), "tenant-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigUseCase_CredentialsRoundTrip(t *testing.T) {
	repo := newFakeConfigRepo()
	uc := NewConfigUseCase(repo, testCipher(t), testLogger())

	_, err := uc.Upsert(context.Background(), "tenant-1", &dto.UpsertFBRConfigRequest{
		BearerToken: "1dceb1a5-f4f2-4a01-a42c-3e0e10a60f4b",
		SandboxMode: true,
	})
	require.NoError(t, err)

	creds, err := uc.CredentialsForTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "1dceb1a5-f4f2-4a01-a42c-3e0e10a60f4b", creds.Token)
	assert.True(t, creds.Sandbox)
}

func TestConfigUseCase_CredentialsNotConfigured(t *testing.T) {
	uc := NewConfigUseCase(newFakeConfigRepo(), testCipher(t), testLogger())

	_, err := uc.CredentialsForTenant(context.Background(), "tenant-1")
	require.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestConfigUseCase_CredentialsUnreadableToken(t *testing.T) {
	repo := newFakeConfigRepo()
	uc := NewConfigUseCase(repo, testCipher(t), testLogger())

	_, err := uc.Upsert(context.Background(), "tenant-1", &dto.UpsertFBRConfigRequest{
		BearerToken: "1dceb1a5-f4f2-4a01-a42c-3e0e10a60f4b",
	})
	require.NoError(t, err)
	repo.configs["tenant-1"].BearerToken = "not-a-valid-ciphertext"

	_, err = uc.CredentialsForTenant(context.Background(), "tenant-1")
	require.ErrorIs(t, err, domain.ErrNotConfigured)
}
