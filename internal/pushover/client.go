package pushover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const DefaultURL = "https://api.pushover.net/1/messages.json"

type apiResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

// Client posts validated payloads to the Pushover messages API.
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers p and returns the provider's request id. Any non-2xx response,
// or a body whose status is not 1, is returned as an *APIError.
func (c *Client) Send(ctx context.Context, p *Payload) (string, error) {
	body, contentType, err := encode(p)
	if err != nil {
		return "", fmt.Errorf("error encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&data); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", &APIError{StatusCode: resp.StatusCode}
		}
		return "", fmt.Errorf("error decoding resp.Body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || data.Status != 1 {
		return "", &APIError{StatusCode: resp.StatusCode, Request: data.Request, Errors: data.Errors}
	}

	slog.Debug("pushover message accepted", "request", data.Request)
	return data.Request, nil
}

// encode builds a url-encoded form, or a multipart form when p carries an
// attachment.
func encode(p *Payload) (io.Reader, string, error) {
	if p.Attachment == nil {
		return strings.NewReader(p.Values().Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range p.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	a := p.Attachment
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachment"; filename=%q`, a.Filename))
	h.Set("Content-Type", a.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, a.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
