package fbr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainfbr "github.com/retailgrid/fbr-sync/internal/domain/fbr"
	"github.com/retailgrid/fbr-sync/pkg/metrics"
)

// Sandbox endpoints carry the _sb suffix on the same gateway.
const (
	endpointSubmit     = "postinvoicedata"
	endpointSubmitSB   = "postinvoicedata_sb"
	endpointValidate   = "validateinvoicedata"
	endpointValidateSB = "validateinvoicedata_sb"

	// statusAccepted is the embedded code meaning the Authority accepted the
	// document. An HTTP 200 with any other code is a business rejection.
	statusAccepted = "00"

	maxResponseBytes = 1 << 20
)

// Credentials bind one call to one tenant: decrypted bearer token plus the
// environment its config selects.
type Credentials struct {
	Token   string
	Sandbox bool
}

// Outcome tags the result of a validate or submit call.
type Outcome int

const (
	// OutcomeAccepted: HTTP 200 and embedded status code "00".
	OutcomeAccepted Outcome = iota
	// OutcomeRejected: the Authority answered and said no. Retryability
	// depends on the code (auth problems are terminal).
	OutcomeRejected
	// OutcomeTransportFailure: timeout, DNS, TLS, connection reset. Always
	// retryable; the Authority may or may not have received the document.
	OutcomeTransportFailure
)

// Result is the typed outcome of one Authority call. Never carries panics or
// opaque errors outward; callers branch on Outcome and Retryable.
type Result struct {
	Outcome       Outcome
	Retryable     bool
	InvoiceNumber string // Authority-issued; only on acceptance; stored verbatim
	Dated         string // Authority-issued timestamp string
	ErrorCode     string // raw code from the response, "" on transport failures
	Error         string // translated message or transport detail
}

// Accepted is a convenience for the happy path.
func (r *Result) Accepted() bool { return r.Outcome == OutcomeAccepted }

// Client calls the FBR digital-invoicing gateway. Stateless: credentials
// arrive per call, so one client serves every tenant.
type Client struct {
	httpClient     *http.Client
	productionBase string
	sandboxBase    string
}

// NewClient builds the Authority client. timeout is the hard per-call bound;
// on expiry the call is reported as a transport failure (retryable).
func NewClient(productionBase, sandboxBase string, timeout time.Duration) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		productionBase: productionBase,
		sandboxBase:    sandboxBase,
	}
}

// Validate asks the Authority to check the document without fiscalizing it.
func (c *Client) Validate(ctx context.Context, creds Credentials, payload []byte) *Result {
	endpoint := endpointValidate
	if creds.Sandbox {
		endpoint = endpointValidateSB
	}
	return c.post(ctx, creds, endpoint, payload)
}

// Submit fiscalizes the document. On acceptance the result carries the
// Authority's invoice number and date.
func (c *Client) Submit(ctx context.Context, creds Credentials, payload []byte) *Result {
	endpoint := endpointSubmit
	if creds.Sandbox {
		endpoint = endpointSubmitSB
	}
	return c.post(ctx, creds, endpoint, payload)
}

// diResponse is the gateway's response envelope. validationResponse is
// present on both the validate and submit endpoints.
type diResponse struct {
	InvoiceNumber      string `json:"invoiceNumber"`
	Dated              string `json:"dated"`
	ValidationResponse struct {
		StatusCode string `json:"statusCode"`
		Status     string `json:"status"`
		ErrorCode  string `json:"errorCode"`
		Error      string `json:"error"`
	} `json:"validationResponse"`
}

func (c *Client) post(ctx context.Context, creds Credentials, endpoint string, payload []byte) *Result {
	start := time.Now()
	defer func() {
		metrics.AuthorityRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	base := c.productionBase
	if creds.Sandbox {
		base = c.sandboxBase
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return &Result{
			Outcome:   OutcomeTransportFailure,
			Retryable: true,
			Error:     fmt.Sprintf("build request: %v", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout, DNS, TLS, refused connection. The Authority may already
		// have the document; its invoiceRefNo dedup covers the replay.
		return &Result{
			Outcome:   OutcomeTransportFailure,
			Retryable: true,
			Error:     fmt.Sprintf("authority unreachable: %v", err),
		}
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Result{
			Outcome:   OutcomeTransportFailure,
			Retryable: true,
			Error:     fmt.Sprintf("read authority response: %v", err),
		}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &Result{
			Outcome:   OutcomeRejected,
			Retryable: false,
			ErrorCode: fmt.Sprintf("%d", resp.StatusCode),
			Error:     domainfbr.TranslateErrorCode(resp.StatusCode),
		}
	}

	var body diResponse
	if err := json.Unmarshal(rawBody, &body); err != nil {
		if resp.StatusCode != http.StatusOK {
			// Gateway error page or HTML; treat like an outage.
			return &Result{
				Outcome:   OutcomeTransportFailure,
				Retryable: true,
				Error:     fmt.Sprintf("authority returned HTTP %d", resp.StatusCode),
			}
		}
		return &Result{
			Outcome:   OutcomeRejected,
			Retryable: true,
			Error:     fmt.Sprintf("unparseable authority response: %.200s", string(rawBody)),
		}
	}

	vr := body.ValidationResponse
	if resp.StatusCode == http.StatusOK && vr.StatusCode == statusAccepted {
		return &Result{
			Outcome:       OutcomeAccepted,
			InvoiceNumber: body.InvoiceNumber,
			Dated:         body.Dated,
		}
	}

	// Answered but not accepted: a business rejection even on HTTP 200.
	result := &Result{
		Outcome:   OutcomeRejected,
		Retryable: true,
		ErrorCode: vr.ErrorCode,
		Error:     rejectionMessage(vr.ErrorCode, vr.Error),
	}
	if code, ok := numericCode(vr.ErrorCode); ok && domainfbr.IsAuthErrorCode(code) {
		result.Retryable = false
	}
	return result
}

func rejectionMessage(code, rawError string) string {
	if code != "" {
		return domainfbr.TranslateRawCode(code)
	}
	if rawError != "" {
		return rawError
	}
	return "Authority rejected the invoice without details"
}

func numericCode(raw string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}
