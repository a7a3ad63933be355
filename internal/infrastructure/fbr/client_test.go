package fbr_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
)

const testPayload = `{"invoiceType":"Sale Invoice","items":[]}`

func newClientFor(server *httptest.Server, timeout time.Duration) *fbr.Client {
	return fbr.NewClient(server.URL, server.URL, timeout)
}

func TestSubmit_Accepted(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"invoiceNumber": "7000007DI1747119701593",
			"dated": "2025-11-03 14:32:07",
			"validationResponse": {"statusCode": "00", "status": "Valid"}
		}`))
	}))
	defer server.Close()

	c := newClientFor(server, 5*time.Second)
	res := c.Submit(context.Background(), fbr.Credentials{Token: "tok-1"}, []byte(testPayload))

	require.True(t, res.Accepted())
	assert.Equal(t, "7000007DI1747119701593", res.InvoiceNumber)
	assert.Equal(t, "2025-11-03 14:32:07", res.Dated)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/postinvoicedata", gotPath, "production credentials must hit the production endpoint")
}

func TestSubmit_SandboxUsesSuffixedEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"validationResponse": {"statusCode": "00"}}`))
	}))
	defer server.Close()

	c := newClientFor(server, 5*time.Second)
	res := c.Submit(context.Background(), fbr.Credentials{Token: "tok-1", Sandbox: true}, []byte(testPayload))

	require.True(t, res.Accepted())
	assert.Equal(t, "/postinvoicedata_sb", gotPath)
}

// HTTP 200 with a non-"00" embedded status is a business rejection, never a
// success.
func TestSubmit_LogicallyRejectedOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"validationResponse": {"statusCode": "01", "status": "Invalid", "errorCode": "0026", "error": "Duplicate"}
		}`))
	}))
	defer server.Close()

	c := newClientFor(server, 5*time.Second)
	res := c.Submit(context.Background(), fbr.Credentials{Token: "tok-1"}, []byte(testPayload))

	assert.Equal(t, fbr.OutcomeRejected, res.Outcome)
	assert.True(t, res.Retryable, "business rejections stay retryable up to the queue bound")
	assert.Equal(t, "0026", res.ErrorCode)
	assert.Contains(t, res.Error, "Duplicate invoice reference")
}

func TestSubmit_AuthFailureNotRetryable(t *testing.T) {
	t.Run("http 401", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := newClientFor(server, 5*time.Second)
		res := c.Submit(context.Background(), fbr.Credentials{Token: "bad"}, []byte(testPayload))

		assert.Equal(t, fbr.OutcomeRejected, res.Outcome)
		assert.False(t, res.Retryable)
		assert.Contains(t, res.Error, "bearer token")
	})

	t.Run("embedded auth code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"validationResponse": {"statusCode": "01", "errorCode": "0401"}}`))
		}))
		defer server.Close()

		c := newClientFor(server, 5*time.Second)
		res := c.Submit(context.Background(), fbr.Credentials{Token: "bad"}, []byte(testPayload))

		assert.Equal(t, fbr.OutcomeRejected, res.Outcome)
		assert.False(t, res.Retryable)
	})
}

func TestSubmit_TimeoutIsRetryableTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := newClientFor(server, 20*time.Millisecond)
	res := c.Submit(context.Background(), fbr.Credentials{Token: "tok-1"}, []byte(testPayload))

	assert.Equal(t, fbr.OutcomeTransportFailure, res.Outcome)
	assert.True(t, res.Retryable)
	assert.NotEmpty(t, res.Error)
}

func TestSubmit_ConnectionRefusedIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	c := newClientFor(server, time.Second)
	res := c.Submit(context.Background(), fbr.Credentials{Token: "tok-1"}, []byte(testPayload))

	assert.Equal(t, fbr.OutcomeTransportFailure, res.Outcome)
	assert.True(t, res.Retryable)
}

func TestSubmit_GatewayErrorPageIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>502 Bad Gateway</html>"))
	}))
	defer server.Close()

	c := newClientFor(server, 5*time.Second)
	res := c.Submit(context.Background(), fbr.Credentials{Token: "tok-1"}, []byte(testPayload))

	assert.Equal(t, fbr.OutcomeTransportFailure, res.Outcome)
	assert.True(t, res.Retryable)
}

func TestValidate_UsesValidateEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"validationResponse": {"statusCode": "00"}}`))
	}))
	defer server.Close()

	c := newClientFor(server, 5*time.Second)
	res := c.Validate(context.Background(), fbr.Credentials{Token: "tok-1", Sandbox: true}, []byte(testPayload))

	require.True(t, res.Accepted())
	assert.Equal(t, "/validateinvoicedata_sb", gotPath)
}

func TestReferenceClient_Provinces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/provinces", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"stateProvinceCode": 7, "stateProvinceDesc": "PUNJAB"},
			{"stateProvinceCode": 8, "stateProvinceDesc": "SINDH"}
		]`))
	}))
	defer server.Close()

	rc := fbr.NewReferenceClient(server.URL, server.URL, 5*time.Second)
	provinces, err := rc.Provinces(context.Background(), fbr.Credentials{Token: "tok-1"})
	require.NoError(t, err)
	require.Len(t, provinces, 2)
	assert.Equal(t, "PUNJAB", provinces[0].Description)
}

func TestReferenceClient_Non200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rc := fbr.NewReferenceClient(server.URL, server.URL, 5*time.Second)
	_, err := rc.HSCodes(context.Background(), fbr.Credentials{Token: "tok-1"})
	assert.Error(t, err)
}
