package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beamline-io/dataweb/internal/config"
	"github.com/beamline-io/dataweb/internal/model"
)

// callbackName is the JSONP callback requested from the status
// endpoint. The endpoint wraps its JSON in callbackName(...), which the
// client strips again.
const callbackName = "dataweb"

// Client fetches status snapshots from instrument status endpoints.
type Client struct {
	log    *slog.Logger
	client *http.Client
}

func NewClient(log *slog.Logger, timeout time.Duration) *Client {
	return &Client{
		log: log,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

// Target returns the host:port an instrument is polled at.
func Target(inst config.InstrumentConfig) string {
	return fmt.Sprintf("%s:%d", inst.Host, inst.Port)
}

// Fetch retrieves and decodes one snapshot for an instrument.
func (c *Client) Fetch(ctx context.Context, inst config.InstrumentConfig) (*model.Snapshot, error) {
	// The endpoint's parameter matching expects the trailing "&".
	url := fmt.Sprintf("http://%s/?callback=%s&Instrument=%s&", Target(inst), callbackName, inst.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	payload := stripJSONP(string(body))
	if payload == "" {
		return nil, fmt.Errorf("empty response from %s", Target(inst))
	}

	snap, err := model.SnapshotFromJSON([]byte(payload))
	if err != nil {
		// Some legacy endpoints serialize Python literals instead of
		// JSON. The correction is only applied once strict parsing has
		// failed: run on valid JSON it would mangle apostrophes and
		// literal-looking text inside values.
		corrected, cerr := model.SnapshotFromJSON([]byte(correctPythonLiterals(payload)))
		if cerr != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		snap = corrected
	}

	c.log.Debug("snapshot fetched",
		slog.String("instrument", inst.Name),
		slog.Int("groups", len(snap.Groups)),
		slog.Int("inst_pvs", len(snap.InstPVs)),
	)

	return snap, nil
}

// stripJSONP removes the callback wrapper from a JSONP response, if
// one is present.
func stripJSONP(body string) string {
	s := strings.TrimSpace(body)

	// JSONP: name_of_callback({...})
	if open := strings.Index(s, "("); open >= 0 && strings.HasSuffix(s, ")") {
		prefix := s[:open]
		if prefix != "" && !strings.ContainsAny(prefix, "{}[]\" ") {
			s = s[open+1 : len(s)-1]
		}
	}

	return strings.TrimSpace(s)
}

// correctPythonLiterals rewrites Python-literal spellings into JSON.
// The replacements are textual and would corrupt quotes and
// literal-looking text inside string values, so callers must only use
// this on payloads that failed strict JSON parsing.
func correctPythonLiterals(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = strings.ReplaceAll(s, ": None", ": null")
	s = strings.ReplaceAll(s, ":None", ":null")
	s = strings.ReplaceAll(s, ": True", ": true")
	s = strings.ReplaceAll(s, ":True", ":true")
	s = strings.ReplaceAll(s, ": False", ": false")
	s = strings.ReplaceAll(s, ":False", ":false")
	return s
}
