package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goversion "github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

// AppVersion is overridden at build time with -ldflags.
var AppVersion = "v0.0.0"

type release struct {
	TagName string `json:"tag_name"`
}

// Checker compares the running version against the latest GitHub release.
type Checker struct {
	client  *http.Client
	baseURL string
}

func NewChecker() *Checker {
	return &Checker{
		client:  &http.Client{Timeout: 2 * time.Second},
		baseURL: "https://api.github.com",
	}
}

// Latest returns the newest released version of repo ("owner/name").
func (c *Checker) Latest(ctx context.Context, repo string) (*goversion.Version, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned status %d", resp.StatusCode)
	}

	var r release
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}

	return goversion.NewVersion(r.TagName)
}

// Outdated reports whether current is older than the latest release.
func (c *Checker) Outdated(ctx context.Context, repo, current string) (bool, string, error) {
	running, err := goversion.NewVersion(current)
	if err != nil {
		return false, "", fmt.Errorf("parse running version %q: %w", current, err)
	}

	latest, err := c.Latest(ctx, repo)
	if err != nil {
		return false, "", err
	}

	return running.LessThan(latest), latest.Original(), nil
}

// Warn logs a warning when a newer release exists. Lookup failures are only logged at debug.
func (c *Checker) Warn(ctx context.Context, repo string, log *zap.Logger) {
	outdated, latest, err := c.Outdated(ctx, repo, AppVersion)
	if err != nil {
		log.Debug("Update check skipped", zap.Error(err))
		return
	}
	if outdated {
		log.Warn("You are running an outdated version",
			zap.String("current", AppVersion),
			zap.String("latest", latest),
		)
	}
}
