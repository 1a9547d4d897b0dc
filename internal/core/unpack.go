package core

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UnpackResult describes an extracted archive.
type UnpackResult struct {
	// Dir is workDir/projectName when Renamed, otherwise workDir/root.
	Dir string
	// Renamed is false when the archive had no top-level root directory.
	Renamed bool
	Files   int
}

// Unpack extracts archive into workDir, deletes the archive and renames
// workDir/root to workDir/projectName. tmpDir is the staging directory that
// holds the archive; everything else in it is removed before extraction and
// the directory itself is removed afterwards. A missing root is not an
// error: Renamed stays false and the caller decides how to report it.
func Unpack(archive, workDir, root, projectName, tmpDir string) (UnpackResult, error) {
	if err := clearStaging(tmpDir, archive); err != nil {
		return UnpackResult{}, err
	}

	files, err := extractZip(archive, workDir)
	if err != nil {
		return UnpackResult{}, err
	}

	if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
		return UnpackResult{}, fmt.Errorf("removing archive: %w", err)
	}

	res := UnpackResult{Dir: filepath.Join(workDir, root), Files: files}
	if root != projectName && dirExists(res.Dir) {
		target := filepath.Join(workDir, projectName)
		if err := os.Rename(res.Dir, target); err != nil {
			return res, fmt.Errorf("renaming %s to %s: %w", root, projectName, err)
		}
		res.Dir = target
		res.Renamed = true
	} else if root == projectName && dirExists(res.Dir) {
		res.Renamed = true
	}

	if tmpDir != "" {
		if err := os.RemoveAll(tmpDir); err != nil {
			return res, fmt.Errorf("removing %s: %w", tmpDir, err)
		}
	}
	return res, nil
}

// clearStaging empties tmpDir except for keep.
func clearStaging(tmpDir, keep string) error {
	if tmpDir == "" {
		return nil
	}
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", tmpDir, err)
	}
	keepAbs, _ := filepath.Abs(keep)
	for _, e := range entries {
		p := filepath.Join(tmpDir, e.Name())
		if abs, _ := filepath.Abs(p); abs == keepAbs {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("clearing %s: %w", tmpDir, err)
		}
	}
	return nil
}

// extractZip writes every entry of src below dest. Entries whose path would
// leave dest are rejected. The archive handle is closed before returning.
func extractZip(src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dest, err)
	}

	files := 0
	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, "/")
		if name == "" {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return files, fmt.Errorf("archive entry %q escapes the destination", f.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
			continue
		case mode&os.ModeSymlink != 0:
			// Links are not needed to run the bot and may point anywhere.
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return files, err
		}
		if err := extractFile(f, target); err != nil {
			return files, fmt.Errorf("extracting %s: %w", f.Name, err)
		}
		files++
	}
	return files, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
