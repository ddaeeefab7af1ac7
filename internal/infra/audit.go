package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AuditEntry is the wire format accepted by the external audit sink. One
// entry is posted per session open, session close, and day close; the sink
// owns storage and retention.
type AuditEntry struct {
	EventType   string `json:"event_type"`
	ActorName   string `json:"actor_name"`
	TerminalID  string `json:"terminal_id"`
	Description string `json:"description"`
	ReferenceID string `json:"reference_id,omitempty"`
	OccurredAt  string `json:"occurred_at"` // RFC 3339
}

// AuditSinkClient posts audit entries to the external sink over HTTP. Audit
// failures never block the business operation that produced the entry — the
// worker pipeline retries delivery out of band.
type AuditSinkClient struct {
	sinkURL    string
	httpClient *http.Client
}

func NewAuditSinkClient(sinkURL string) *AuditSinkClient {
	return &AuditSinkClient{
		sinkURL:    sinkURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver posts a single entry. Non-2xx responses are delivery failures.
func (c *AuditSinkClient) Deliver(ctx context.Context, entry AuditEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sinkURL+"/entries", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("audit: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("audit: sink unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("audit: sink returned %d", resp.StatusCode)
	}
	return nil
}
