// Package romload loads cartridge and bootrom images from disk,
// transparently decompressing common archive formats, and computes an
// identity hash for a loaded ROM.
//
// Grounded on _examples/thelolagemann-gomeboy/pkg/utils/files.go's
// LoadFile, extended with 7z support via github.com/bodgit/sevenzip (the
// teacher imports it for exactly this purpose) and an xxhash-based
// identity hash (the teacher computes content hashes with
// github.com/cespare/xxhash in its web save-state player).
package romload

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
	"github.com/cespare/xxhash"
)

// Load reads filename and returns its decompressed contents. Plain .gb/
// .gbc/.bin files are read as-is; .gz, .zip and .7z archives are
// transparently decompressed, returning the first file found inside.
func Load(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("romload: %w", err)
	}
	defer f.Close()

	switch ext := filepath.Ext(filename); ext {
	case ".gz":
		r, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("romload: gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case ".zip":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("romload: %w", err)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("romload: zip: %w", err)
		}
		return readFirstFile(zr.File, func(f *zip.File) (io.ReadCloser, error) { return f.Open() })
	case ".7z":
		zr, err := sevenzip.NewReader(f, statSize(f))
		if err != nil {
			return nil, fmt.Errorf("romload: 7z: %w", err)
		}
		return readFirstFile(zr.File, func(f *sevenzip.File) (io.ReadCloser, error) { return f.Open() })
	default:
		return io.ReadAll(f)
	}
}

func statSize(f *os.File) int64 {
	fi, err := f.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}

// readFirstFile extracts the first entry of an archive file list, using
// an opener generic over the archive package's own file handle type.
// Directory entries are not skipped.
func readFirstFile[T any](files []T, open func(T) (io.ReadCloser, error)) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("romload: archive is empty")
	}
	rc, err := open(files[0])
	if err != nil {
		return nil, fmt.Errorf("romload: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Hash returns an xxhash identity hash for a ROM image, suitable for
// matching against a database of known titles or for labeling save
// states.
func Hash(rom []byte) uint64 {
	return xxhash.Sum64(rom)
}
