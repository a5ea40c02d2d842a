// Package awscreds maintains profiles in the shared AWS credentials file.
package awscreds

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FilePerm is applied to the temp file before it replaces the target.
	FilePerm os.FileMode = 0o600
	// DirPerm is used when the parent directory has to be created.
	DirPerm os.FileMode = 0o700
)

var sectionRE = regexp.MustCompile(`^\s*\[([^\]]+)\]\s*$`)

// DefaultPath returns the shared credentials file location (~/.aws/credentials).
func DefaultPath() string {
	return config.DefaultSharedCredentialsFilename()
}

// Upsert replaces or appends the [profile] block of the file at path with kvLines.
// The write is atomic and the resulting file is readable by the owner only.
// It reports whether an existing block was replaced.
func Upsert(logger *zap.Logger, path, profile string, kvLines []string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	out, replaced := Render(existing, profile, kvLines)
	if err := writeAtomic(path, out); err != nil {
		return false, err
	}

	if replaced {
		logger.Debug("awscreds.profile_updated", zap.String("profile", profile), zap.String("path", path))
	} else {
		logger.Debug("awscreds.profile_added", zap.String("profile", profile), zap.String("path", path))
	}
	return replaced, nil
}

// Render returns existing with the [profile] block replaced by a new block built
// from kvLines, or with the block appended when no such section exists.
// Only the first matching section is replaced. Everything outside it is kept as is.
func Render(existing []byte, profile string, kvLines []string) ([]byte, bool) {
	lines := splitLines(string(existing))

	block := make([]string, 0, len(kvLines)+2)
	block = append(block, nl("["+profile+"]"))
	for _, kv := range kvLines {
		block = append(block, nl(kv))
	}
	block = append(block, nl(""))

	start := -1
	for i, line := range lines {
		if sectionName(line) == profile {
			start = i
			break
		}
	}

	var result []string
	if start >= 0 {
		end := len(lines)
		for j := start + 1; j < len(lines); j++ {
			if sectionRE.MatchString(lines[j]) {
				end = j
				break
			}
		}
		result = make([]string, 0, start+len(block)+len(lines)-end)
		result = append(result, lines[:start]...)
		result = append(result, block...)
		result = append(result, lines[end:]...)
	} else {
		result = lines
		if n := len(result); n > 0 {
			result[n-1] = nl(result[n-1])
			if strings.TrimSpace(result[n-1]) != "" {
				result = append(result, nl(""))
			}
		}
		result = append(result, block...)
	}

	return []byte(strings.Join(result, "")), start >= 0
}

func sectionName(line string) string {
	m := sectionRE.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// splitLines splits s after each "\n", keeping the terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func nl(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// writeAtomic writes data to a sibling temp file created with FilePerm, then renames it over path.
func writeAtomic(path string, data []byte) (err error) {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePerm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	// explicit chmod: the create mode is subject to umask
	if err = f.Chmod(FilePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
