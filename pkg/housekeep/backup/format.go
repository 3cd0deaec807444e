package backup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned for an archive format other than zip or tar.gz.
var ErrUnknownFormat = errors.New("unknown archive format")

// Format is an archive container and compression pairing.
type Format string

// Supported formats.
const (
	Zip   Format = "zip"
	TarGz Format = "tar.gz"
)

// ParseFormat accepts "zip", "tar.gz" and the alias "tgz".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zip":
		return Zip, nil
	case "tar.gz", "tgz":
		return TarGz, nil
	default:
		return "", fmt.Errorf("%w: %q (want zip or tar.gz)", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}
