package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPEmbedder implements Embedder against a vision service's HTTP API.
type HTTPEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPEmbedder creates an embedder for the vision service at baseURL.
func NewHTTPEmbedder(baseURL, model string) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

type embedImageReq struct {
	Model string `json:"model"`
	Image string `json:"image_base64"`
}

type embedImageResp struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedImage posts the image to the vision service and returns its
// feature vector.
func (c *HTTPEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	body, _ := json.Marshal(embedImageReq{
		Model: c.model,
		Image: base64.StdEncoding.EncodeToString(image),
	})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/embed-image", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("vision embed: status %d", resp.StatusCode)
	}

	var result embedImageResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("vision embed decode: %w", err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}
