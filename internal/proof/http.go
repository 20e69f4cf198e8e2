package proof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geocoder89/civicchain/internal/domain/identity"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type verifyRequest struct {
	ZKProof identity.Proof `json:"zkProof"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// HTTPVerifier asks a remote verifier whether a proof holds. The remote
// answers 200 with {"valid": bool}; anything else is a transport failure.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPVerifier(endpoint string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &HTTPVerifier{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, p identity.Proof) (bool, error) {
	body, err := json.Marshal(verifyRequest{ZKProof: p})
	if err != nil {
		return false, fmt.Errorf("encode proof: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build verifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("call verifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return false, fmt.Errorf("verifier returned status %d", resp.StatusCode)
	}

	var out verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return false, fmt.Errorf("decode verifier response: %w", err)
	}

	return out.Valid, nil
}
