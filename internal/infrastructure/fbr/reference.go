package fbr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Read-only reference-data endpoints used for UI autocomplete. They live on
// the same authenticated gateway, so the compliance core exposes them.
const (
	endpointProvinces    = "provinces"
	endpointHSCodes      = "itemdesccode"
	endpointUOM          = "uom"
	endpointSROSchedules = "SroSchedule"
)

// Province is one row of the Authority's province catalogue.
type Province struct {
	Code        int    `json:"stateProvinceCode"`
	Description string `json:"stateProvinceDesc"`
}

// HSCode is one row of the harmonized-system code catalogue.
type HSCode struct {
	Code        string `json:"hS_CODE"`
	Description string `json:"description"`
}

// UnitOfMeasure is one row of the UOM catalogue.
type UnitOfMeasure struct {
	ID          int    `json:"uoM_ID"`
	Description string `json:"description"`
}

// SROSchedule is one row of the SRO schedule catalogue.
type SROSchedule struct {
	ID          int    `json:"srO_ID"`
	Description string `json:"srO_DESC"`
}

// ReferenceClient fetches the Authority's reference catalogues. These GETs
// are idempotent, so transparent transport-level retries are safe here.
// Submission retries stay with the durable queue.
type ReferenceClient struct {
	httpClient     *retryablehttp.Client
	productionBase string
	sandboxBase    string
}

// NewReferenceClient builds the catalogue client with bounded in-call retries.
func NewReferenceClient(productionBase, sandboxBase string, timeout time.Duration) *ReferenceClient {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil // zerolog covers request logging at the caller
	return &ReferenceClient{
		httpClient:     rc,
		productionBase: productionBase,
		sandboxBase:    sandboxBase,
	}
}

// Provinces returns the province catalogue.
func (c *ReferenceClient) Provinces(ctx context.Context, creds Credentials) ([]Province, error) {
	var out []Province
	if err := c.get(ctx, creds, endpointProvinces, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HSCodes returns the harmonized-system code catalogue.
func (c *ReferenceClient) HSCodes(ctx context.Context, creds Credentials) ([]HSCode, error) {
	var out []HSCode
	if err := c.get(ctx, creds, endpointHSCodes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnitsOfMeasure returns the UOM catalogue.
func (c *ReferenceClient) UnitsOfMeasure(ctx context.Context, creds Credentials) ([]UnitOfMeasure, error) {
	var out []UnitOfMeasure
	if err := c.get(ctx, creds, endpointUOM, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SROSchedules returns the SRO schedule catalogue.
func (c *ReferenceClient) SROSchedules(ctx context.Context, creds Credentials) ([]SROSchedule, error) {
	var out []SROSchedule
	if err := c.get(ctx, creds, endpointSROSchedules, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReferenceClient) get(ctx context.Context, creds Credentials, endpoint string, out interface{}) error {
	base := c.productionBase
	if creds.Sandbox {
		base = c.sandboxBase
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, base+"/"+endpoint, nil)
	if err != nil {
		return fmt.Errorf("reference %s: build request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reference %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reference %s: authority returned HTTP %d", endpoint, resp.StatusCode)
	}

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reference %s: read response: %w", endpoint, err)
	}
	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("reference %s: decode response: %w", endpoint, err)
	}
	return nil
}
