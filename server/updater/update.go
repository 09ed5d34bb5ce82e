package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/zzjoey/downxv/server/config"
)

// Version is stamped at build time via -ldflags.
var Version = "0.0.0"

const releasesURL = "https://api.github.com/repos/zzjoey/downxv/releases/latest"

var httpClient = &http.Client{Timeout: 10 * time.Second}

type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckLatest fetches the newest published release and reports whether
// it is ahead of the running version.
func CheckLatest(ctx context.Context) (*Release, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("release check failed with status %d", res.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(res.Body).Decode(&release); err != nil {
		return nil, false, err
	}

	return &release, newerThan(release.TagName, Version), nil
}

// newerThan compares dotted numeric versions, tolerating a v prefix
// and trailing non-numeric garbage per segment.
func newerThan(candidate, current string) bool {
	a := versionParts(candidate)
	b := versionParts(current)

	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			return x > y
		}
	}
	return false
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")

	var parts []int
	for _, segment := range strings.Split(v, ".") {
		digits := segment
		for j, r := range segment {
			if r < '0' || r > '9' {
				digits = segment[:j]
				break
			}
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			n = 0
		}
		parts = append(parts, n)
	}
	return parts
}

// UpdateExecutable upgrades the downloader binary using its builtin
// self-update.
func UpdateExecutable(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, config.Instance().Paths.DownloaderPath, "-U")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("downloader update failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return nil
}
