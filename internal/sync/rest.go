// Package sync bridges one authoritative REST snapshot with the live relay
// stream. Consumers (controller, display) see snapshots plus an ordered
// event channel and reconcile on top.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/prakoso/tvcast/internal/domain"
)

// Client talks to the collaborator's REST surface. Calls carry no timeout
// of their own; a hung request just delays the caller's loading state.
type Client struct {
	base      string
	relayPath string
	http      *http.Client
}

func NewClient(baseURL, relayPath string) *Client {
	return &Client{
		base:      strings.TrimRight(baseURL, "/"),
		relayPath: relayPath,
		http:      &http.Client{},
	}
}

// BaseURL exposes the configured collaborator base for image URL building.
func (c *Client) BaseURL() string { return c.base }

// Upload is one multipart image part.
type Upload struct {
	Name   string
	Reader io.Reader
}

func (c *Client) FetchTVs(ctx context.Context) ([]domain.TV, error) {
	var tvs []domain.TV
	if err := c.doJSON(ctx, http.MethodGet, "/api/tvs", nil, &tvs); err != nil {
		return nil, err
	}
	return tvs, nil
}

func (c *Client) FetchTV(ctx context.Context, id domain.TVID) (*domain.TV, error) {
	var tv domain.TV
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/tvs/%d", id), nil, &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

func (c *Client) CreateTV(ctx context.Context, name string) (*domain.TV, error) {
	body := map[string]string{"name": name}
	var tv domain.TV
	if err := c.doJSON(ctx, http.MethodPost, "/api/tvs", body, &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

func (c *Client) SetYoutubeLink(ctx context.Context, id domain.TVID, link string) (*domain.TV, error) {
	body := map[string]string{"youtubeLink": strings.TrimSpace(link)}
	var tv domain.TV
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/tvs/%d/youtube", id), body, &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

func (c *Client) ClearImages(ctx context.Context, id domain.TVID) (*domain.TV, error) {
	var tv domain.TV
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/tvs/%d/images", id), nil, &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

func (c *Client) DeleteTV(ctx context.Context, id domain.TVID) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/tvs/%d", id), nil, nil)
}

// SendZoomCommand asks the collaborator to relay a command into the TV's room.
func (c *Client) SendZoomCommand(ctx context.Context, id domain.TVID, cmd domain.ZoomCommand) error {
	body := map[string]string{"command": string(cmd)}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/tvs/%d/zoom", id), body, nil)
}

// UploadImages posts one or more "image" multipart parts and returns the
// updated snapshot.
func (c *Client) UploadImages(ctx context.Context, id domain.TVID, uploads []Upload) (*domain.TV, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, up := range uploads {
		part, err := mw.CreateFormFile("image", up.Name)
		if err != nil {
			return nil, fmt.Errorf("upload form: %w", err)
		}
		if _, err := io.Copy(part, up.Reader); err != nil {
			return nil, fmt.Errorf("upload copy: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload close: %w", err)
	}

	url := fmt.Sprintf("%s/api/tvs/%d/upload", c.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.TransientError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	var tv domain.TV
	if err := c.decode(resp, "upload", &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransientError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	return c.decode(resp, method+" "+path, out)
}

// decode maps the collaborator's status codes onto the error taxonomy:
// 404 is ErrNotFound, a 4xx with an {error} payload is a ValidationError,
// anything else non-2xx is a TransientError.
func (c *Client) decode(resp *http.Response, op string, out any) error {
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return &domain.ValidationError{Message: payload.Error}
			}
			return &domain.TransientError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", payload.Error)}
		}
		return &domain.TransientError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransientError{Op: op, Err: fmt.Errorf("bad response body: %w", err)}
	}
	return nil
}
