package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/shared"
	"golang.org/x/time/rate"
)

// YTDLPOpts contains configuration for the yt-dlp downloader.
type YTDLPOpts struct {
	Binary       string      // yt-dlp executable path (default: "yt-dlp" on PATH)
	AudioFormat  string      // output audio format (default: m4a)
	AudioQuality string      // yt-dlp audio quality (default: "0", best)
	FFmpegPath   string      // explicit ffmpeg location, optional
	RateLimit    float64     // invocations per second (default: 1)
	Logger       *log.Logger // defaults to a stderr logger
}

// YTDLP implements [Downloader] by invoking the yt-dlp tool, searching for
// "<artist> - <title>" and extracting the first result's audio.
type YTDLP struct {
	binary       string
	audioFormat  string
	audioQuality string
	ffmpegPath   string
	limiter      *rate.Limiter
	logger       *log.Logger

	// runCommand is swapped out in tests to avoid invoking the real tool.
	runCommand func(cmd *exec.Cmd) error
}

// NewYTDLP creates a yt-dlp backed downloader with the given options.
func NewYTDLP(opts YTDLPOpts) *YTDLP {
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = "m4a"
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = "0"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &YTDLP{
		binary:       opts.Binary,
		audioFormat:  opts.AudioFormat,
		audioQuality: opts.AudioQuality,
		ffmpegPath:   opts.FFmpegPath,
		limiter:      rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:       opts.Logger,
		runCommand:   func(cmd *exec.Cmd) error { return cmd.Run() },
	}
}

func (y *YTDLP) Name() string {
	return "yt-dlp"
}

// args builds the yt-dlp argument list for one track.
func (y *YTDLP) args(title, artist, destDir string) []string {
	query := fmt.Sprintf("%s - %s", artist, title)
	output := filepath.Join(destDir, query+".%(ext)s")

	args := []string{
		"-x",
		"--audio-format", y.audioFormat,
		"--audio-quality", y.audioQuality,
		"--quiet",
	}
	if y.ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", y.ffmpegPath)
	}
	args = append(args, "-o", output, "ytsearch1:"+query)

	return args
}

// Download fetches one track's audio into destDir.
//
// Waits on the rate limiter before each invocation so back-to-back fetches
// respect external service limits. A missing yt-dlp binary is fatal
// ([shared.ErrDownloaderUnavailable]); any other tool failure is the
// recoverable [shared.ErrTrackUnavailable].
func (y *YTDLP) Download(ctx context.Context, title, artist, destDir string) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	cmd := exec.CommandContext(ctx, y.binary, y.args(title, artist, destDir)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	y.logger.Debug("invoking downloader", "binary", y.binary, "artist", artist, "title", title)

	if err := y.runCommand(cmd); err != nil {
		return classifyExecError(err, stderr.String())
	}

	return nil
}

// classifyExecError maps a command failure onto the downloader error taxonomy.
func classifyExecError(err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", shared.ErrDownloaderUnavailable, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stderr != "" {
			return fmt.Errorf("%w: %s", shared.ErrTrackUnavailable, stderr)
		}
		return fmt.Errorf("%w: %v", shared.ErrTrackUnavailable, err)
	}

	// Anything that is not a clean exit failure means the tool could not be
	// started at all.
	return fmt.Errorf("%w: %v", shared.ErrDownloaderUnavailable, err)
}
