package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CheckCompositor reports whether the configured compositor binary resolves
// and, when it does, records its version banner in Detail.
func CheckCompositor(ctx context.Context, binary string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Renders the composition plan",
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		result.Command = binary
		result.Detail = fmt.Sprintf("binary %q not found", binary)
		return result
	}
	result.Command = resolved
	result.Available = true
	result.Detail = ffmpegVersion(ctx, resolved)
	return result
}

// ffmpegVersion returns the first line of `ffmpeg -version`, or "" when the
// binary does not answer within two seconds.
func ffmpegVersion(ctx context.Context, binary string) string {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}
