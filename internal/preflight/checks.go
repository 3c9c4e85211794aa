package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"tuneshelf/internal/config"
	"tuneshelf/internal/services/llm"
)

const (
	llmCheckTimeout  = 30 * time.Second
	ntfyCheckTimeout = 5 * time.Second
	// Below lowSpaceBytes free, a directory check still passes but says so.
	lowSpaceBytes = 256 << 20
)

func pass(name, format string, args ...any) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf(format, args...)}
}

// CheckDirectoryAccess requires path to be an existing directory this process
// can list, create files in and traverse. The detail reports free space.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return fail(name, "not configured")
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fail(name, "%s does not exist", path)
	case err != nil:
		return fail(name, "%s: %v", path, err)
	case !info.IsDir():
		return fail(name, "%s is not a directory", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(name, "%s: insufficient permissions (%v)", path, err)
	}

	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return pass(name, "%s (read/write ok)", path)
	}
	free := fs.Bavail * uint64(fs.Bsize)
	if free < lowSpaceBytes {
		return pass(name, "%s (read/write ok, low space: %s free)", path, humanize.IBytes(free))
	}
	return pass(name, "%s (read/write ok, %s free)", path, humanize.IBytes(free))
}

// CheckLLM sends one health request to the inference endpoint, without retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fail(name, "API key missing (items will need manual review)")
	}
	ctx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(ctx); err != nil {
		return fail(name, "%s", describeLLMFailure(err))
	}
	return pass(name, "%s answered", cfg.Model)
}

func describeLLMFailure(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return "API key missing"
	case errors.Is(err, context.DeadlineExceeded):
		return "no answer within " + llmCheckTimeout.String()
	case errors.As(err, &netErr) && netErr.Timeout():
		return "endpoint unreachable (timeout)"
	}
	return err.Error()
}

// CheckNtfy asks the ntfy server hosting topic for its /v1/health status.
// Nothing is published.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy"
	topicURL, err := url.Parse(strings.TrimSpace(topic))
	if err != nil || topicURL.Scheme == "" || topicURL.Host == "" {
		return fail(name, "invalid topic url %q", topic)
	}
	ctx, cancel := context.WithTimeout(ctx, ntfyCheckTimeout)
	defer cancel()

	healthURL := (&url.URL{Scheme: topicURL.Scheme, Host: topicURL.Host, Path: "/v1/health"}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return fail(name, "%v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fail(name, "%s unreachable: %v", topicURL.Host, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fail(name, "%s answered %s", topicURL.Host, resp.Status)
	}
	return pass(name, "%s reachable", topicURL.Host)
}
