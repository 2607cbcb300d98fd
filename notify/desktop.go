package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Desktop raises an OS notification through terminal-notifier on macOS or
// notify-send on Linux.
type Desktop struct {
	command func(ctx context.Context, title, message string) *exec.Cmd
}

func NewDesktop() *Desktop {
	return &Desktop{command: desktopCommand(runtime.GOOS)}
}

func (d *Desktop) Name() string { return "desktop" }

func (d *Desktop) Notify(ctx context.Context, title, message string) error {
	if d.command == nil {
		return fmt.Errorf("desktop: unsupported platform %s: %w", runtime.GOOS, ErrNotConfigured)
	}
	out, err := d.command(ctx, title, message).CombinedOutput()
	if err != nil {
		return fmt.Errorf("desktop: %w: %s", err, out)
	}
	return nil
}

func desktopCommand(goos string) func(ctx context.Context, title, message string) *exec.Cmd {
	switch goos {
	case "darwin":
		return func(ctx context.Context, title, message string) *exec.Cmd {
			return exec.CommandContext(ctx, "terminal-notifier", "-title", title, "-message", message)
		}
	case "linux":
		return func(ctx context.Context, title, message string) *exec.Cmd {
			return exec.CommandContext(ctx, "notify-send", title, message)
		}
	default:
		return nil
	}
}
