package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoInbox is returned by Scan when the new/ directory is missing.
var ErrNoInbox = errors.New("no new/ directory")

// FileInfo describes a CSV file waiting to be imported.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// newDir is the subdirectory holding exports to import.
const newDir = "new"

// processedDir is the subdirectory imported exports are moved to.
const processedDir = "processed"

// Scan returns CSV files in <dir>/new/ in directory-listing order.
func Scan(dir string) ([]FileInfo, error) {
	inbox := filepath.Join(dir, newDir)
	entries, err := os.ReadDir(inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNoInbox, dir)
		}
		return nil, fmt.Errorf("reading %s: %w", inbox, err)
	}

	var files []FileInfo
	for _, e := range entries {
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		// Stat follows symlinks so linked exports are picked up.
		info, err := os.Stat(filepath.Join(inbox, e.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			continue // dangling link
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(inbox, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// maxArchiveSuffix bounds the search for a free name in processed/.
const maxArchiveSuffix = 1000

// MarkProcessed moves a file from new/ to processed/ and returns the name it
// was archived under. An earlier archive with the same name is kept; the new
// file gets a numeric suffix such as "usaa-1.csv".
func MarkProcessed(dir, fileName string) (string, error) {
	src := filepath.Join(dir, newDir, fileName)
	dstDir := filepath.Join(dir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	name, err := freeName(dstDir, fileName)
	if err != nil {
		return "", err
	}
	if err := os.Rename(src, filepath.Join(dstDir, name)); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return name, nil
}

func freeName(dir, fileName string) (string, error) {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	name := fileName
	for i := 1; i <= maxArchiveSuffix; i++ {
		_, err := os.Lstat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking processed/%s: %w", name, err)
		}
		name = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	return "", fmt.Errorf("no free name for %s in processed/", fileName)
}

// Layout lists the directories an import root needs.
func Layout(dir string) []string {
	return []string{filepath.Join(dir, newDir), filepath.Join(dir, processedDir)}
}
