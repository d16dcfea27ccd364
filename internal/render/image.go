package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/manash/bizforge/internal/security"
)

const maxImageBytes = 20 << 20

var ErrImageTooLarge = fmt.Errorf("image exceeds %d bytes", maxImageBytes)

// Saver writes logo images to disk. Remote references are downloaded only
// when they pass the URL policy.
type Saver struct {
	httpClient *http.Client
	policy     security.URLPolicy
}

func NewSaver(policy security.URLPolicy) *Saver {
	s := &Saver{policy: policy}
	s.httpClient = &http.Client{
		Timeout: 60 * time.Second,
		// Every redirect hop must pass the same policy as the first URL.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return s.policy.Validate(req.URL.String())
		},
	}
	return s
}

// Save writes the image behind ref to path.
func (s *Saver) Save(ctx context.Context, ref, path string) error {
	if err := security.ValidateOutputPath(path); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	var data []byte
	if _, decoded, err := security.DecodeDataURI(ref); err == nil {
		data = decoded
	} else {
		if err := s.policy.Validate(ref); err != nil {
			return fmt.Errorf("refusing to download image: %w", err)
		}
		data, err = s.download(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to download image: %w", err)
		}
	}

	return WriteFile(path, data)
}

func (s *Saver) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
