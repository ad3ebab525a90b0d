package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"matchreel/internal/config"
	"matchreel/internal/opendota"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTimezone verifies the recording time zone loads.
func CheckTimezone(name string) Result {
	const check = "Recording time zone"
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Result{Name: check, Detail: fmt.Sprintf("%q (error: %v)", name, err)}
	}
	now := time.Now().In(loc)
	zone, _ := now.Zone()
	return Result{Name: check, Passed: true, Detail: fmt.Sprintf("%s (currently %s)", loc, zone)}
}

// CheckPlayerID verifies a player id is configured.
func CheckPlayerID(id int64) Result {
	const name = "OpenDota player"
	if id <= 0 {
		return Result{Name: name, Detail: "matching.player_id not set"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("account %d", id)}
}

// CheckOpenDota verifies the OpenDota API answers the patch constants
// request. It uses a single attempt with a 10-second timeout.
func CheckOpenDota(ctx context.Context, cfg *config.Config) Result {
	const name = "OpenDota API"
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := opendota.NewFromConfig(cfg)
	patches, err := client.Patches(checkCtx)
	if err != nil {
		var providerErr *opendota.ProviderError
		if errors.As(err, &providerErr) && providerErr.Status != 0 {
			return Result{Name: name, Detail: fmt.Sprintf("unreachable (status %d)", providerErr.Status)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	detail := "reachable"
	if n := len(patches); n > 0 {
		detail = fmt.Sprintf("reachable (latest patch %s)", patches[n-1].Name)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckYouTubeCredentials verifies the OAuth credentials are present unless
// uploads are disabled.
func CheckYouTubeCredentials(cfg *config.Config) Result {
	const name = "YouTube credentials"
	if !cfg.UploadEnabled() {
		return Result{Name: name, Passed: true, Detail: "dry run (uploads disabled)"}
	}
	var missing []string
	if strings.TrimSpace(cfg.YouTube.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(cfg.YouTube.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	if strings.TrimSpace(cfg.YouTube.RefreshToken) == "" {
		missing = append(missing, "refresh_token")
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("configured (privacy %s)", cfg.YouTube.PrivacyStatus)}
}

// CheckWebhook verifies the notification webhook URL when set.
func CheckWebhook(raw string) Result {
	const name = "Notification webhook"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Name: name, Passed: true, Detail: "not configured (notifications disabled)"}
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%q is not an http(s) URL", raw)}
	}
	return Result{Name: name, Passed: true, Detail: parsed.Scheme + "://" + parsed.Host}
}
