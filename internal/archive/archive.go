// Package archive is the external archiver collaborator: it shells out
// to the best available compression tool and can split the result into
// fixed-size part files for multi-part transfers.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/k3rn3ld3v/ClipTunnel/internal/tools"
)

var ErrNoArchiver = errors.New("archive: no compatible archiver found")

// Archiver wraps one detected compression tool.
type Archiver struct {
	Name string
	Ext  string

	runner tools.CommandRunner
	args   func(archivePath, srcDir, srcBase string) []string
}

// Detect finds the best available archiver, preferring 7z, then tar.xz,
// then zip. The result is nil error only when the tool is runnable.
func Detect(runner tools.CommandRunner, lookup tools.LookupFunc) (*Archiver, error) {
	if lookup == nil {
		lookup = tools.Lookup
	}
	specs := []Archiver{
		{Name: "7z", Ext: ".7z", args: func(archive, dir, base string) []string {
			return []string{"7z", "a", "-mx=9", archive, filepath.Join(dir, base)}
		}},
		{Name: "tar", Ext: ".tar.xz", args: func(archive, dir, base string) []string {
			return []string{"tar", "-cJf", archive, "-C", dir, base}
		}},
		{Name: "zip", Ext: ".zip", args: func(archive, dir, base string) []string {
			return []string{"zip", "-9", "-j", archive, filepath.Join(dir, base)}
		}},
	}
	for i := range specs {
		if _, err := lookup(specs[i].Name); err == nil {
			specs[i].runner = runner
			return &specs[i], nil
		}
	}
	return nil, ErrNoArchiver
}

// Compress archives src into destDir and returns the archive path and
// its size. The archive is named after the source file plus the tool's
// extension.
func (a *Archiver) Compress(ctx context.Context, src, destDir string) (string, int64, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", 0, fmt.Errorf("archive %s: %w", src, err)
	}
	srcDir, srcBase := filepath.Dir(abs), filepath.Base(abs)
	archivePath := filepath.Join(destDir, srcBase+a.Ext)

	argv := a.args(archivePath, srcDir, srcBase)
	_, stderr, _, err := a.runner.Run(ctx, nil, argv[0], argv[1:]...)
	if err != nil {
		return "", 0, fmt.Errorf("archive %s with %s: %w: %s", src, a.Name, err, strings.TrimSpace(string(stderr)))
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		return "", 0, fmt.Errorf("archive %s: tool produced no output: %w", src, err)
	}
	return archivePath, info.Size(), nil
}
