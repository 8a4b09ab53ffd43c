// Package fetch is the byte-level HTTP collaborator. The site serves
// Windows-1251; Page hands callers UTF-8.
package fetch

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrHTTP wraps transport-level failures.
var ErrHTTP = errors.New("http request failed")

const defaultUserAgent = "samlib/1.0 (author page tracker)"

type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(timeout time.Duration, userAgent string) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (c *Client) get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrHTTP, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTP, err)
	}
	return resp, nil
}

// Page fetches the URL and returns the body transcoded from Windows-1251
// to UTF-8. A response with any status other than 200 yields an empty page
// and no error; transport failures are errors.
func (c *Client) Page(url string) (string, error) {
	resp, err := c.get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	body, err := io.ReadAll(transform.NewReader(resp.Body, charmap.Windows1251.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrHTTP, err)
	}
	return string(body), nil
}

// ToFile streams the URL's body into the file at path, byte for byte. Any
// status other than 200 is a failure and leaves no file behind.
func (c *Client) ToFile(url, path string) error {
	resp, err := c.get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: status %d", ErrHTTP, url, resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%w: writing %s: %v", ErrHTTP, path, err)
	}
	return f.Close()
}
