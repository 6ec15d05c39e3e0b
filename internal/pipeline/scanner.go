package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/shopimg-cli/internal/media"
)

// imageExtensions lists recognized image file extensions for directory scans.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// ScanInputs turns CLI arguments into local files, in argument order.
// Files are taken as given so that type validation can reject them;
// directories are walked for image extensions, skipping hidden entries.
func ScanInputs(paths []string) ([]*media.LocalFile, error) {
	var files []*media.LocalFile

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			f, err := media.FromPath(p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		err = filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			name := info.Name()
			if info.IsDir() {
				if path != p && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") || !imageExtensions[strings.ToLower(filepath.Ext(name))] {
				return nil
			}
			f, err := media.FromPath(path)
			if err != nil {
				return err
			}
			files = append(files, f)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
	}

	return files, nil
}
