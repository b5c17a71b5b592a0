package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/travelsite/internal/models"
	"github.com/atinyakov/travelsite/internal/session"
)

const (
	loginPath    = "/admin/login"
	logoutPath   = "/admin/logout"
	packagesPath = "/api/admin/packages"
)

var (
	// ErrInvalidPassword is returned by Login when the server rejects the password.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrNotConfigured is returned by Login when the server has no admin
	// password or session secret.
	ErrNotConfigured = errors.New("admin login is not configured on the server")
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// APIError is a non-success answer of the admin API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// PackageInput is a package to create, or a full replacement of one.
type PackageInput struct {
	Category string
	Title    string
	Details  string
	Price    string
	// ImageFile is a local JPG, PNG or WEBP file.
	ImageFile string
}

// PackageChanges is a partial update; nil fields are not sent.
type PackageChanges struct {
	Category *string `json:"category,omitempty"`
	Title    *string `json:"title,omitempty"`
	Details  *string `json:"details,omitempty"`
	Price    *string `json:"price,omitempty"`
}

// Client talks to the admin API of one server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Token is the session cookie value sent with API calls.
	Token string
}

// Login exchanges the admin password for a session token.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	form := url.Values{"password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		return "", readAPIError(resp)
	}
	loc := resp.Header.Get("Location")
	switch {
	case strings.Contains(loc, "error=config"):
		return "", ErrNotConfigured
	case strings.Contains(loc, "error="):
		return "", ErrInvalidPassword
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName && ck.Value != "" {
			c.Token = ck.Value
			return ck.Value, nil
		}
	}
	return "", errors.New("login failed: no session cookie in response")
}

// Logout asks the server to clear the cookie and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+logoutPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	c.Token = ""
	return nil
}

// List returns the whole catalog.
func (c *Client) List(ctx context.Context) (models.Catalog, error) {
	var out struct {
		Packages models.Catalog `json:"packages"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+packagesPath, nil)
	if err != nil {
		return out.Packages, err
	}
	err = c.doJSON(req, http.StatusOK, &out)
	return out.Packages, err
}

// Create uploads a new package with its image.
func (c *Client) Create(ctx context.Context, in PackageInput) (models.PackageRecord, error) {
	return c.sendForm(ctx, http.MethodPost, packagesPath, in, http.StatusCreated)
}

// Replace overwrites every text field of a package; the image is replaced
// only when in.ImageFile is set.
func (c *Client) Replace(ctx context.Context, id string, in PackageInput) (models.PackageRecord, error) {
	return c.sendForm(ctx, http.MethodPut, packagesPath+"/"+url.PathEscape(id), in, http.StatusOK)
}

// Update sends a partial update.
func (c *Client) Update(ctx context.Context, id string, ch PackageChanges) (models.PackageRecord, error) {
	var out packageEnvelope
	b, err := json.Marshal(ch)
	if err != nil {
		return out.Package, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+packagesPath+"/"+url.PathEscape(id), bytes.NewReader(b))
	if err != nil {
		return out.Package, err
	}
	req.Header.Set("Content-Type", "application/json")
	err = c.doJSON(req, http.StatusOK, &out)
	return out.Package, err
}

// Delete removes a package and returns it.
func (c *Client) Delete(ctx context.Context, id string) (models.PackageRecord, error) {
	var out packageEnvelope
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+packagesPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return out.Package, err
	}
	err = c.doJSON(req, http.StatusOK, &out)
	return out.Package, err
}

type packageEnvelope struct {
	Package models.PackageRecord `json:"package"`
}

func (c *Client) sendForm(ctx context.Context, method, path string, in PackageInput, want int) (models.PackageRecord, error) {
	var out packageEnvelope
	body, contentType, err := encodeForm(in)
	if err != nil {
		return out.Package, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return out.Package, err
	}
	req.Header.Set("Content-Type", contentType)
	err = c.doJSON(req, want, &out)
	return out.Package, err
}

func encodeForm(in PackageInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range []struct{ name, value string }{
		{"category", in.Category},
		{"title", in.Title},
		{"details", in.Details},
		{"price", in.Price},
	} {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if in.ImageFile != "" {
		ct, ok := imageTypes[strings.ToLower(filepath.Ext(in.ImageFile))]
		if !ok {
			return nil, "", fmt.Errorf("unsupported image %q: use JPG, PNG or WEBP", in.ImageFile)
		}
		data, err := os.ReadFile(in.ImageFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read image: %w", err)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(in.ImageFile)))
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.Token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: c.Token})
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, want int, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
