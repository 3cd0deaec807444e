package backup

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// ErrVerifyFailed is returned when a written archive does not hold the
// expected number of entries or cannot be read back.
var ErrVerifyFailed = errors.New("archive verification failed")

// Verify re-opens the archive at path, reads every entry to the end and
// checks that it holds exactly expected regular files.
func Verify(path string, format Format, expected int) error {
	var (
		n   int
		err error
	)
	switch format {
	case Zip:
		n, err = countZip(path)
	case TarGz:
		n, err = countTarGz(path)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVerifyFailed, path, err)
	}
	if n != expected {
		return fmt.Errorf("%w: %s holds %d entries, wrote %d", ErrVerifyFailed, path, n, expected)
	}
	return nil
}

func countZip(path string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer zr.Close()

	n := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return n, err
		}
		// Reading to EOF checks the CRC.
		_, err = io.Copy(io.Discard, rc)
		_ = rc.Close()
		if err != nil {
			return n, fmt.Errorf("%s: %w", f.Name, err)
		}
		n++
	}
	return n, nil
}

func countTarGz(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	n := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if _, err := io.Copy(io.Discard, tr); err != nil {
			return n, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		n++
	}
}
