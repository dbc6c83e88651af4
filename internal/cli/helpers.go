package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mira-agent/mira/internal/daemon"
)

// apiBase returns the daemon control API base URL from config.
func apiBase() (string, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%d", cfg.API.Host, cfg.API.Port), nil
}

var apiClient = &http.Client{Timeout: 5 * time.Second}

// getJSON fetches path from the running daemon and decodes into out.
func getJSON(path string, out interface{}) error {
	base, err := apiBase()
	if err != nil {
		return err
	}
	resp, err := apiClient.Get(base + path)
	if err != nil {
		return fmt.Errorf("is the daemon running? (mira serve): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s for %s", resp.Status, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postJSON sends body to path and decodes the response into out (optional).
func postJSON(path string, body, out interface{}) error {
	base, err := apiBase()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	resp, err := apiClient.Post(base+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("is the daemon running? (mira serve): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("daemon returned %s for %s", resp.Status, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
