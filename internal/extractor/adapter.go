// Package extractor adapts the third-party video-extraction binary as a
// process-boundary dependency: every call crosses an os/exec boundary,
// is cancellable via context, and returns errors classified into the
// shared apperrors taxonomy.
package extractor

import "context"

// Format describes one downloadable rendition of a video as reported by
// a probe.
type Format struct {
	FormatID   string
	Ext        string
	Resolution string
	Bitrate    int
	Duration   float64 // seconds
	Filesize   int64   // bytes, 0 if unknown
}

// ProbeResult is the outcome of a successful probe attempt: a media
// description rich enough to answer /api/info without a second call.
type ProbeResult struct {
	Title          string
	Duration       float64 // seconds
	Thumbnail      string  // URL, empty if none reported
	Uploader       string
	ViewCount      int64
	FilesizeApprox int64 // bytes, best estimate across formats, 0 if unknown
	WebpageURL     string
	Extractor      string // extractor name yt-dlp resolved the URL to, e.g. "youtube"
	Formats        []Format
}

// ProgressFunc receives fetch progress as bytes downloaded / total bytes
// (total may be 0 if unknown). It must never block.
type ProgressFunc func(downloaded, total int64)

// FetchedFile describes a file the extractor wrote to disk.
type FetchedFile struct {
	Path              string
	MIMEType          string
	SuggestedFilename string // base name of the written file (store prefix plus extension), used for Content-Disposition; the video title is not used
	Size              int64
	Ext               string
	Checksum          string // sha256 hex; ExecAdapter leaves it empty and the store layer does not fill it in
}

// FetchRequest describes one fetch attempt against a single profile.
type FetchRequest struct {
	URL            string
	Profile        string // profiles.Spec.ClientArg
	FormatSelector string // yt-dlp -f expression, empty selects the adapter's default
	CookieFile     string // empty unless the profile requires credentials
	OutputDir      string
	OutputPrefix   string

	// MaxDurationSeconds, if > 0, rejects the download before any bytes
	// are fetched when the probed duration exceeds it (apperrors.TooLong).
	MaxDurationSeconds int
	// MaxSizeBytes, if > 0, aborts the download and deletes the partial
	// output once bytes written exceeds it (apperrors.TooLarge).
	MaxSizeBytes int64

	OnProgress ProgressFunc
}

// ProbeRequest describes one probe attempt against a single profile.
type ProbeRequest struct {
	URL        string
	Profile    string
	CookieFile string
}

// Adapter is the process-boundary contract the fallback controller
// drives. Every method call corresponds to exactly one invocation of the
// external extractor binary.
type Adapter interface {
	// Probe inspects a URL without downloading it, returning the
	// available formats or a classified *apperrors.ExtractError.
	Probe(ctx context.Context, req ProbeRequest) (*ProbeResult, error)
	// Fetch downloads the best match for req to OutputDir, returning
	// the resulting file or a classified *apperrors.ExtractError.
	Fetch(ctx context.Context, req FetchRequest) (*FetchedFile, error)
}
