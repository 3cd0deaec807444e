package backup

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// archiveWriter appends regular files to an archive stream.
type archiveWriter interface {
	Add(name string, info fs.FileInfo, r io.Reader) error
	Close() error
}

func newArchiveWriter(format Format, w io.Writer) (archiveWriter, error) {
	switch format {
	case Zip:
		return &zipWriter{zw: zip.NewWriter(w)}, nil
	case TarGz:
		gz := gzip.NewWriter(w)
		return &tarGzWriter{gz: gz, tw: tar.NewWriter(gz)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type zipWriter struct {
	zw *zip.Writer
}

func (z *zipWriter) Add(name string, info fs.FileInfo, r io.Reader) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := z.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

func (z *zipWriter) Close() error {
	return z.zw.Close()
}

type tarGzWriter struct {
	gz *gzip.Writer
	tw *tar.Writer
}

func (t *tarGzWriter) Add(name string, info fs.FileInfo, r io.Reader) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := t.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(t.tw, r)
	return err
}

func (t *tarGzWriter) Close() error {
	if err := t.tw.Close(); err != nil {
		_ = t.gz.Close()
		return err
	}
	return t.gz.Close()
}
