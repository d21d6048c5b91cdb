package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Config configures access to the upstream code host.
type Config struct {
	APIBaseURL     string        // REST API base URL
	ArchiveBaseURL string        // source archive base URL
	Token          string        // access token, empty for anonymous
	Timeout        time.Duration // per-request timeout
	RetryCount     int           // retries after the first attempt
	RetryDelay     time.Duration // delay between retries
}

// DefaultConfig returns the settings used against github.com. The token is
// read from GITHUB_TOKEN so CI runs can lift the anonymous rate limit.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:     "https://api.github.com",
		ArchiveBaseURL: "https://github.com",
		Token:          os.Getenv("GITHUB_TOKEN"),
		Timeout:        30 * time.Second,
		RetryCount:     3,
		RetryDelay:     2 * time.Second,
	}
}

// Resolver pins upstream refs to commit SHAs through the host API, so the
// rest of the run works against fixed identifiers.
type Resolver struct {
	config Config
	client *http.Client
}

// NewResolver creates a resolver for the given host configuration.
func NewResolver(config Config) *Resolver {
	return &Resolver{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// HeadCommit returns the commit SHA at the tip of ref in repo
// ("owner/name"). Transient failures are retried up to the configured
// count; a source that stays unreachable surfaces as an UnavailableError.
func (r *Resolver) HeadCommit(ctx context.Context, repo, ref string) (string, error) {
	requestURL := fmt.Sprintf("%s/repos/%s/branches/%s", r.config.APIBaseURL, repo, ref)

	var body []byte
	var err error
	for attempt := 0; attempt <= r.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.config.RetryDelay):
			}
		}

		body, err = r.doRequest(ctx, requestURL)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", &UnavailableError{Repo: repo, Err: err}
	}

	var branch struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(body, &branch); err != nil {
		return "", fmt.Errorf("failed to parse branch response for %s: %w", repo, err)
	}
	if branch.Commit.SHA == "" {
		return "", fmt.Errorf("branch response for %s/%s carries no commit SHA", repo, ref)
	}

	return branch.Commit.SHA, nil
}

func (r *Resolver) doRequest(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if r.config.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.config.Token))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Best-effort read so rate-limit and not-found responses stay
		// diagnosable.
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(errBody))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
