package dupes

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// prefixSize is how much of each file feeds the cheap pre-filter hash.
const prefixSize = 4 * 1024

// HashFile returns the hex SHA-256 digest of the file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// prefixHash returns the xxhash of the first prefixSize bytes. Files that
// differ here cannot be duplicates, which spares most full reads.
func prefixHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := xxhash.New()
	if _, err := io.CopyN(d, f, prefixSize); err != nil && err != io.EOF {
		return 0, err
	}
	return d.Sum64(), nil
}
