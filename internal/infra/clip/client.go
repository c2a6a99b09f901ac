package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// Client calls a CLIP inference sidecar. The sidecar takes a base64 PNG plus
// the candidate prompts and answers with a softmax over those prompts.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimRight(endpoint, "/") + "/compare", http: httpClient}
}

type compareRequest struct {
	Image   string   `json:"image"`
	Prompts []string `json:"prompts"`
}

type compareResponse struct {
	Probabilities map[string]float64 `json:"probabilities"`
}

func (c *Client) Compare(ctx context.Context, img image.Image, prompts []string) (map[string]float64, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	body, err := json.Marshal(compareRequest{
		Image:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		Prompts: prompts,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scorer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out compareResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode scorer response: %w", err)
	}
	return out.Probabilities, nil
}
