package clipboard

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/k3rn3ld3v/ClipTunnel/internal/tools"
)

// toolSpec describes one OS clipboard tool pair.
type toolSpec struct {
	Name  string
	check string
	copy  []string
	paste []string
}

// candidate tools per OS, in detection order.
func candidates(goos string) []toolSpec {
	switch goos {
	case "linux":
		return []toolSpec{
			{Name: "xclip", check: "xclip",
				copy:  []string{"xclip", "-i", "-selection", "clipboard"},
				paste: []string{"xclip", "-o", "-selection", "clipboard"}},
			{Name: "xsel", check: "xsel",
				copy:  []string{"xsel", "--input", "--clipboard"},
				paste: []string{"xsel", "--output", "--clipboard"}},
			{Name: "wl-clipboard", check: "wl-copy",
				copy:  []string{"wl-copy"},
				paste: []string{"wl-paste", "--no-newline"}},
		}
	case "darwin":
		return []toolSpec{
			{Name: "pbcopy", check: "pbcopy",
				copy:  []string{"pbcopy"},
				paste: []string{"pbpaste"}},
		}
	case "windows":
		return []toolSpec{
			{Name: "powershell", check: "powershell",
				copy:  []string{"powershell", "-NoProfile", "-Command", "$input | Set-Clipboard"},
				paste: []string{"powershell", "-NoProfile", "-Command", "Get-Clipboard", "-Raw"}},
		}
	default:
		return nil
	}
}

// ExecChannel drives the OS clipboard through an external tool.
type ExecChannel struct {
	runner tools.CommandRunner
	spec   toolSpec
}

// Detect selects the first available clipboard tool for the current OS.
// It fails when none exists; callers treat that as a fatal setup error.
func Detect(runner tools.CommandRunner, lookup tools.LookupFunc) (*ExecChannel, error) {
	return detectFor(runtime.GOOS, runner, lookup)
}

// DetectTool selects a clipboard tool by name, overriding autodetection.
func DetectTool(name string, runner tools.CommandRunner, lookup tools.LookupFunc) (*ExecChannel, error) {
	if lookup == nil {
		lookup = tools.Lookup
	}
	for _, spec := range candidates(runtime.GOOS) {
		if spec.Name != name {
			continue
		}
		if _, err := lookup(spec.check); err != nil {
			return nil, fmt.Errorf("clipboard tool %q not found: %w", name, err)
		}
		return &ExecChannel{runner: runner, spec: spec}, nil
	}
	return nil, fmt.Errorf("%w: unknown tool %q", ErrNoTool, name)
}

func detectFor(goos string, runner tools.CommandRunner, lookup tools.LookupFunc) (*ExecChannel, error) {
	if lookup == nil {
		lookup = tools.Lookup
	}
	for _, spec := range candidates(goos) {
		if _, err := lookup(spec.check); err == nil {
			return &ExecChannel{runner: runner, spec: spec}, nil
		}
	}
	return nil, fmt.Errorf("%w (os=%s)", ErrNoTool, goos)
}

// Tool reports the selected clipboard tool name.
func (c *ExecChannel) Tool() string {
	return c.spec.Name
}

func (c *ExecChannel) Read(ctx context.Context) (string, error) {
	stdout, stderr, _, err := c.runner.Run(ctx, nil, c.spec.paste[0], c.spec.paste[1:]...)
	if err != nil {
		return "", fmt.Errorf("clipboard read (%s): %w: %s", c.spec.Name, err, strings.TrimSpace(string(stderr)))
	}
	return string(stdout), nil
}

func (c *ExecChannel) Write(ctx context.Context, text string) error {
	_, stderr, _, err := c.runner.Run(ctx, []byte(text), c.spec.copy[0], c.spec.copy[1:]...)
	if err != nil {
		return fmt.Errorf("clipboard write (%s): %w: %s", c.spec.Name, err, strings.TrimSpace(string(stderr)))
	}
	return nil
}
