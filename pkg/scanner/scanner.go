// Package scanner enumerates candidate images in an input directory.
package scanner

import (
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nodewee/image-to-jp2/pkg/constants"
	"github.com/nodewee/image-to-jp2/pkg/types"
)

// Accept reports whether a directory entry name is a conversion candidate.
// Rules apply in order: hidden or underscore-prefixed names, the reserved
// system file, then unsupported extensions are rejected.
func Accept(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	if name == constants.ReservedFileName {
		return false
	}
	return constants.SupportedExtensions[extensionOf(name)]
}

// NewInputFile describes the file at path
func NewInputFile(path string) types.InputFile {
	name := filepath.Base(path)
	return types.InputFile{
		Path:      path,
		Name:      name,
		Base:      strings.TrimSuffix(name, filepath.Ext(name)),
		Extension: extensionOf(name),
	}
}

// Scan lazily yields candidate files in dir. Each iteration re-reads the
// directory. A read error is yielded once and ends the sequence.
func Scan(dir string) iter.Seq2[types.InputFile, error] {
	return func(yield func(types.InputFile, error) bool) {
		f, err := os.Open(dir)
		if err != nil {
			yield(types.InputFile{}, err)
			return
		}
		defer f.Close()

		for {
			entries, err := f.ReadDir(constants.ScanBatchSize)
			for _, entry := range entries {
				if entry.IsDir() || !Accept(entry.Name()) {
					continue
				}
				if !yield(NewInputFile(filepath.Join(dir, entry.Name())), nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(types.InputFile{}, err)
				return
			}
		}
	}
}

// Select collects the candidates of dir sorted by name
func Select(dir string) ([]types.InputFile, error) {
	var files []types.InputFile
	for file, err := range Scan(dir) {
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
