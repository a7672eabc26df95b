package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/tmoore-dev/reeltap/internal/apperrors"
)

// ExecAdapter shells out to a yt-dlp-compatible extractor binary.
type ExecAdapter struct {
	binary string
}

// NewExecAdapter builds an ExecAdapter invoking the named binary.
func NewExecAdapter(binary string) *ExecAdapter {
	return &ExecAdapter{binary: binary}
}

var _ Adapter = (*ExecAdapter)(nil)

type probeJSON struct {
	Title          string  `json:"title"`
	Duration       float64 `json:"duration"`
	Thumbnail      string  `json:"thumbnail"`
	Uploader       string  `json:"uploader"`
	ViewCount      int64   `json:"view_count"`
	FilesizeApprox int64   `json:"filesize_approx"`
	WebpageURL     string  `json:"webpage_url"`
	Extractor      string  `json:"extractor"`
	Formats        []struct {
		FormatID   string  `json:"format_id"`
		Ext        string  `json:"ext"`
		Resolution string  `json:"resolution"`
		TBR        float64 `json:"tbr"`
		Filesize   int64   `json:"filesize"`
	} `json:"formats"`
}

func (a *ExecAdapter) probeArgs(req ProbeRequest) []string {
	args := []string{
		"--dump-json",
		"--no-playlist",
		"--extractor-args", "youtube:player_client=" + req.Profile,
	}
	if req.CookieFile != "" {
		args = append(args, "--cookies", req.CookieFile)
	}
	return append(args, req.URL)
}

// Probe runs the extractor in metadata-only mode and parses its JSON output.
func (a *ExecAdapter) Probe(ctx context.Context, req ProbeRequest) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, a.binary, a.probeArgs(req)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classify(ctx, req.Profile, stderr.String(), err)
	}

	var parsed probeJSON
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return nil, apperrors.New(apperrors.BadFormat, req.Profile, "could not parse probe output", err)
	}

	result := &ProbeResult{
		Title:          parsed.Title,
		Duration:       parsed.Duration,
		Thumbnail:      parsed.Thumbnail,
		Uploader:       parsed.Uploader,
		ViewCount:      parsed.ViewCount,
		FilesizeApprox: parsed.FilesizeApprox,
		WebpageURL:     parsed.WebpageURL,
		Extractor:      parsed.Extractor,
	}
	for _, f := range parsed.Formats {
		result.Formats = append(result.Formats, Format{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: f.Resolution,
			Bitrate:    int(f.TBR),
			Duration:   parsed.Duration,
			Filesize:   f.Filesize,
		})
	}

	if len(result.Formats) == 0 {
		return nil, apperrors.New(apperrors.BadFormat, req.Profile, "no formats returned", nil)
	}

	return result, nil
}

var progressLineRe = regexp.MustCompile(`\[download\]\s+([\d.]+)% of\s+~?([\d.]+)(K|M|G)iB`)

func (a *ExecAdapter) fetchArgs(req FetchRequest) []string {
	outputTemplate := filepath.Join(req.OutputDir, req.OutputPrefix+".%(ext)s")
	args := []string{
		"--no-playlist",
		"--newline",
		"--extractor-args", "youtube:player_client=" + req.Profile,
		"-o", outputTemplate,
	}
	if req.FormatSelector != "" {
		args = append(args, "-f", req.FormatSelector)
	}
	if req.MaxDurationSeconds > 0 {
		args = append(args, "--match-filter", fmt.Sprintf("duration<=%d", req.MaxDurationSeconds))
	}
	if req.CookieFile != "" {
		args = append(args, "--cookies", req.CookieFile)
	}
	return append(args, req.URL)
}

// Fetch downloads the requested URL, streaming progress lines from the
// extractor's stdout to req.OnProgress as they arrive. A duration cap is
// enforced by the extractor itself via --match-filter before any bytes
// are written; a size cap is enforced here, by watching parsed progress
// lines and cancelling the process once the cap is exceeded, since
// --max-filesize only pre-filters by known metadata and does not abort a
// download whose true size only becomes apparent mid-transfer.
func (a *ExecAdapter) Fetch(ctx context.Context, req FetchRequest) (*FetchedFile, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(fetchCtx, a.binary, a.fetchArgs(req)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.New(apperrors.Internal, req.Profile, "could not attach to extractor stdout", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, apperrors.New(apperrors.Internal, req.Profile, "could not start extractor process", err)
	}

	destPath := ""
	exceededCap := false
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if path := parseDestination(line); path != "" {
			destPath = path
		}
		downloaded, total, ok := parseProgress(line)
		if !ok {
			continue
		}
		if req.OnProgress != nil {
			req.OnProgress(downloaded, total)
		}
		if req.MaxSizeBytes > 0 && downloaded > req.MaxSizeBytes {
			exceededCap = true
			cancel()
			break
		}
	}

	waitErr := cmd.Wait()

	if exceededCap {
		if destPath != "" {
			_ = os.Remove(destPath)
			_ = os.Remove(destPath + ".part")
		}
		return nil, apperrors.New(apperrors.TooLarge, req.Profile, "download exceeded size cap mid-transfer", nil)
	}

	if waitErr != nil {
		return nil, classify(fetchCtx, req.Profile, stderr.String(), waitErr)
	}

	if destPath == "" {
		return nil, apperrors.New(apperrors.Internal, req.Profile, "extractor reported no destination file", nil)
	}

	info, statErr := os.Stat(destPath)
	if statErr != nil {
		return nil, apperrors.New(apperrors.Internal, req.Profile, "could not stat downloaded file", statErr)
	}

	ext := filepath.Ext(destPath)
	return &FetchedFile{
		Path:              destPath,
		Size:              info.Size(),
		Ext:               ext,
		MIMEType:          mimeTypeFor(ext),
		SuggestedFilename: filepath.Base(destPath),
	}, nil
}

// knownMediaTypes covers the extensions yt-dlp commonly writes that the
// host's system mime.types database may not list, since mime.TypeByExtension
// falls through to those files before Go's minimal builtin table.
var knownMediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4a":  "audio/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".opus": "audio/opus",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
}

func mimeTypeFor(ext string) string {
	if t, ok := knownMediaTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// parseProgress extracts downloaded/total bytes from one yt-dlp progress
// line, returning ok=false when the line doesn't carry a percentage.
func parseProgress(line string) (downloaded, total int64, ok bool) {
	m := progressLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	totalF, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	totalBytes := int64(totalF * unitMultiplier(m[3]))
	return int64(pct / 100 * float64(totalBytes)), totalBytes, true
}

func unitMultiplier(unit string) float64 {
	switch unit {
	case "K":
		return 1 << 10
	case "M":
		return 1 << 20
	case "G":
		return 1 << 30
	default:
		return 1
	}
}

var destinationLineRe = regexp.MustCompile(`\[download\] Destination: (.+)`)
var alreadyDownloadedRe = regexp.MustCompile(`\[download\] (.+) has already been downloaded`)

func parseDestination(line string) string {
	if m := destinationLineRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := alreadyDownloadedRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// BinaryVersion is a small diagnostic helper that confirms the configured
// extractor binary is actually callable. No handler calls it.
func (a *ExecAdapter) BinaryVersion(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, a.binary, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("extractor: version check failed: %w", err)
	}
	return string(bytes.TrimSpace(out)), nil
}
