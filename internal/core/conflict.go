package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SettleDelay is the pause after deleting a project directory. Some
// filesystems (and virus scanners on Windows) report the path for a short
// while after removal.
var SettleDelay = 200 * time.Millisecond

// ReuseSuffix marks a project name whose existing directory should be used
// as is.
const ReuseSuffix = "[use]"

// DefaultProjectName is offered when asking for the project name.
const DefaultProjectName = "zhenxun_bot"

// Conflict resolutions offered when the project directory already exists.
const (
	ConflictDelete = "delete"
	ConflictRename = "rename"
	ConflictAbort  = "exit"
)

// ConflictOptions lists the choices of the directory conflict prompt.
var ConflictOptions = []Option{
	{Label: "删除该文件夹并重新安装", Value: ConflictDelete},
	{Label: "重新命名", Value: ConflictRename},
	{Label: "取消安装", Value: ConflictAbort},
}

// ResolveProjectDir makes sure baseDir/name can be created. When the
// directory exists the user chooses to delete it, pick another name, or
// abort. It returns the final name, or ErrCancelled on abort; aborting never
// touches the filesystem.
func ResolveProjectDir(ctx context.Context, prompter Prompter, baseDir, name string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path := filepath.Join(baseDir, name)
		if !dirExists(path) {
			return name, nil
		}

		choice, err := prompter.Select(ctx, PromptConflict, ConflictOptions, 0)
		if err != nil {
			return "", err
		}

		switch choice.Value {
		case ConflictDelete:
			if err := forceRemoveAll(path); err != nil {
				return "", fmt.Errorf("removing %s: %w", path, err)
			}
			select {
			case <-time.After(SettleDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return name, nil

		case ConflictRename:
			next, err := prompter.Input(ctx, PromptRenameProject, "", ValidateProjectName)
			if err != nil {
				return "", err
			}
			name = strings.TrimSpace(next)

		default:
			return "", ErrCancelled
		}
	}
}

// forceRemoveAll removes path recursively. When a plain removal fails, the
// write bits of every entry are set and removal is tried again, which lets it
// delete read-only files on Windows and read-only directories elsewhere.
func forceRemoveAll(path string) error {
	if err := os.RemoveAll(path); err == nil {
		return nil
	}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		_ = os.Chmod(p, info.Mode().Perm()|0o700)
		return nil
	})
	return os.RemoveAll(path)
}

// ValidateProjectName rejects names that cannot be a single directory. The
// ReuseSuffix is allowed and ignored.
func ValidateProjectName(name string) error {
	name = strings.TrimSuffix(strings.TrimSpace(name), ReuseSuffix)
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("project name must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("project name %q is reserved", name)
	case strings.ContainsAny(name, `/\<>:"|?*`):
		return fmt.Errorf("project name %q contains characters not allowed in a directory name", name)
	case strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 }):
		return fmt.Errorf("project name contains control characters")
	}
	return nil
}

// SplitReuse strips ReuseSuffix from name and reports whether it was present.
func SplitReuse(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if base, ok := strings.CutSuffix(name, ReuseSuffix); ok {
		return strings.TrimSpace(base), true
	}
	return name, false
}
