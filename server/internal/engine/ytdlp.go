package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

const progressTemplate = `download:
{
	"status":"%(progress.status)s",
	"downloaded_bytes":%(progress.downloaded_bytes)s,
	"total_bytes":%(progress.total_bytes)s,
	"total_bytes_estimate":%(progress.total_bytes_estimate)s,
	"speed":%(progress.speed)s,
	"eta":%(progress.eta)s
}`

const progressPrefix = "download:"

// YtDlp drives a yt-dlp executable as a subprocess. Progress is read
// from stdout through a single-line JSON template, errors from stderr.
type YtDlp struct {
	// Path of the yt-dlp executable.
	Path string
}

func NewYtDlp(path string) *YtDlp {
	return &YtDlp{Path: path}
}

type probeInfo struct {
	Title   string `json:"title"`
	Formats []any  `json:"formats"`
	Entries []struct {
		Title string `json:"title"`
	} `json:"entries"`
}

func (y *YtDlp) Probe(ctx context.Context, url string, opts ProbeOptions) (*Manifest, error) {
	params := []string{url, "-J", "--no-warnings", "--ignore-errors"}
	params = appendCookieParams(params, opts.CookieSource)

	cmd := exec.Command(y.Path, params...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	stopWatch := killOnDone(ctx, cmd)
	defer stopWatch()

	var bufferedStderr bytes.Buffer
	go io.Copy(&bufferedStderr, stderr)

	slog.Info("probing url", slog.String("url", url))

	var info probeInfo
	decodeErr := json.NewDecoder(stdout).Decode(&info)

	if err := cmd.Wait(); err != nil {
		return nil, errors.New(strings.TrimSpace(bufferedStderr.String()))
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("could not extract video information: %w", decodeErr)
	}

	return manifestFromInfo(&info), nil
}

func manifestFromInfo(info *probeInfo) *Manifest {
	m := &Manifest{}

	if len(info.Entries) > 0 {
		m.ParentTitle = info.Title
		for _, e := range info.Entries {
			title := e.Title
			if title == "" {
				title = info.Title
			}
			m.Items = append(m.Items, MediaItem{Title: title})
		}
		return m
	}

	// A single post with no negotiated formats has no playable media.
	if len(info.Formats) == 0 {
		return m
	}

	m.Items = []MediaItem{{Title: info.Title}}
	return m
}

func (y *YtDlp) Fetch(ctx context.Context, url string, opts FetchOptions, outputDir string, onProgress ProgressFunc) error {
	templateReplacer := strings.NewReplacer("\n", "", "\t", "")

	params := []string{
		url,
		"--newline",
		"--no-colors",
		"--no-warnings",
		"--progress-template",
		templateReplacer.Replace(progressTemplate),
		"--no-exec",
		"-f", opts.Format,
		"-o", fmt.Sprintf("%s/%s", outputDir, opts.OutputTemplate),
	}

	if opts.MergeContainer != "" {
		params = append(params, "--merge-output-format", opts.MergeContainer)
	}
	if opts.PlaylistItem > 0 {
		params = append(params, "--playlist-items", strconv.Itoa(opts.PlaylistItem))
	}
	if opts.Retries > 0 {
		params = append(params, "--retries", strconv.Itoa(opts.Retries))
	}
	if opts.FragmentRetries > 0 {
		params = append(params, "--fragment-retries", strconv.Itoa(opts.FragmentRetries))
	}
	if opts.ConcurrentFragments > 0 {
		params = append(params, "--concurrent-fragments", strconv.Itoa(opts.ConcurrentFragments))
	}
	params = appendCookieParams(params, opts.CookieSource)

	slog.Info("requesting transfer", slog.String("url", url), slog.Any("params", params))

	cmd := exec.Command(y.Path, params...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	stopWatch := killOnDone(ctx, cmd)
	defer stopWatch()

	var bufferedStderr bytes.Buffer
	go io.Copy(&bufferedStderr, stderr)

	var abortErr error

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		ev, ok := parseProgressLine(scanner.Text())
		if !ok {
			continue
		}

		if err := onProgress(ev); err != nil {
			abortErr = err
			killProcessGroup(cmd)
			break
		}
	}

	waitErr := cmd.Wait()

	if abortErr != nil {
		return abortErr
	}

	if waitErr != nil {
		if msg := strings.TrimSpace(bufferedStderr.String()); msg != "" {
			return errors.New(msg)
		}
		return waitErr
	}

	return nil
}

type progressLine struct {
	Status             string      `json:"status"`
	DownloadedBytes    json.Number `json:"downloaded_bytes"`
	TotalBytes         json.Number `json:"total_bytes"`
	TotalBytesEstimate json.Number `json:"total_bytes_estimate"`
	Speed              json.Number `json:"speed"`
	Eta                json.Number `json:"eta"`
}

// parseProgressLine decodes one stdout line rendered by progressTemplate.
// yt-dlp prints NA for values it does not know yet.
func parseProgressLine(line string) (ProgressEvent, bool) {
	if !strings.HasPrefix(line, progressPrefix) {
		return ProgressEvent{}, false
	}

	payload := strings.ReplaceAll(
		strings.TrimPrefix(line, progressPrefix),
		":NA", ":null",
	)

	var p progressLine
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return ProgressEvent{}, false
	}

	ev := ProgressEvent{
		DownloadedBytes: asInt(p.DownloadedBytes, 0),
		TotalBytes:      asInt(p.TotalBytes, 0),
		SpeedBps:        asFloat(p.Speed, -1),
		ETASeconds:      asInt(p.Eta, -1),
	}

	if ev.TotalBytes == 0 {
		ev.TotalBytes = asInt(p.TotalBytesEstimate, 0)
	}

	switch p.Status {
	case "downloading":
		ev.Status = StatusDownloading
	case "finished":
		ev.Status = StatusStreamFinished
	default:
		return ProgressEvent{}, false
	}

	return ev, true
}

func asInt(n json.Number, fallback int64) int64 {
	if n == "" {
		return fallback
	}
	// yt-dlp renders some byte counts as floats
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return fallback
}

func asFloat(n json.Number, fallback float64) float64 {
	if n == "" {
		return fallback
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return fallback
}

func appendCookieParams(params []string, source CookieSource) []string {
	if source == "" || source == CookiesNone {
		return params
	}
	return append(params, "--cookies-from-browser", string(source))
}

// yt-dlp spawns child processes; the whole process group must be
// signalled or fragment workers keep running.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return
	}
	syscall.Kill(-pgid, syscall.SIGTERM)
}

func killOnDone(ctx context.Context, cmd *exec.Cmd) (stop func()) {
	if ctx == nil || ctx.Done() == nil {
		return func() {}
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			killProcessGroup(cmd)
		case <-finished:
		}
	}()

	return func() { close(finished) }
}
