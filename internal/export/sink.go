package export

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

var ErrSinkNotConfigured = errors.New("sink not configured")

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sink pushes export rows to an external collector, signing the body with
// HMAC-SHA256 in X-Signature.
type Sink struct {
	c      Doer
	url    string
	secret string
}

func NewSink(c Doer, url, secret string) *Sink {
	return &Sink{c: c, url: url, secret: secret}
}

type payload struct {
	AdID string             `json:"ad_id"`
	Rows []models.ExportRow `json:"rows"`
}

func (s *Sink) Push(ctx context.Context, adID string, rows []models.ExportRow) (int, error) {
	if s == nil || s.url == "" || s.secret == "" {
		return 0, ErrSinkNotConfigured
	}
	if len(rows) == 0 {
		return 0, nil
	}
	b, err := json.Marshal(payload{AdID: adID, Rows: rows})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(s.secret, b))
	resp, err := s.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("export sink non-2xx: %d", resp.StatusCode)
	}
	return len(rows), nil
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
