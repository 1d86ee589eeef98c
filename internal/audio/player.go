package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"codeberg.org/snonux/lanote/internal/metrics"
)

// ContainerPlayer plays recording blobs through the platform's native player.
type ContainerPlayer struct {
	goos     string
	lookPath func(string) (string, error)
	metrics  *metrics.Metrics

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewContainerPlayer creates a player for the running platform. m may be nil.
func NewContainerPlayer(m *metrics.Metrics) *ContainerPlayer {
	return &ContainerPlayer{goos: runtime.GOOS, lookPath: exec.LookPath, metrics: m}
}

// Play blocks until the file behind h finished playing or ctx is done.
func (p *ContainerPlayer) Play(ctx context.Context, h *BlobHandle) (err error) {
	defer func() { p.metrics.Played("recording", err) }()

	if h == nil || h.Path == "" {
		return playbackErr("play", errEmptyAudio)
	}

	name, args, err := p.command(h.Path)
	if err != nil {
		return playbackErr("play", err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
	}()

	if err := cmd.Run(); err != nil {
		return playbackErr("play", fmt.Errorf("%s: %w", name, err))
	}
	return nil
}

// Stop kills a running playback.
func (p *ContainerPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
}

// command picks the player binary for the platform.
func (p *ContainerPlayer) command(path string) (string, []string, error) {
	switch p.goos {
	case "darwin":
		return "afplay", []string{path}, nil
	case "linux":
		// ffplay handles every container we emit, the rest are WAV-capable fallbacks
		candidates := []struct {
			name string
			args []string
		}{
			{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}},
			{"mpg123", []string{"-q", path}},
			{"play", []string{"-q", path}},
			{"paplay", []string{path}},
			{"aplay", []string{"-q", path}},
		}
		for _, c := range candidates {
			if _, err := p.lookPath(c.name); err == nil {
				return c.name, c.args, nil
			}
		}
		return "", nil, fmt.Errorf("no audio player found. Install ffplay, mpg123, sox, paplay, or aplay")
	case "windows":
		return "cmd", []string{"/c", "start", "/min", "/wait", "", path}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", p.goos)
	}
}
