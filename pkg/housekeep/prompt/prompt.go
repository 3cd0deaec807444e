// Package prompt asks the user yes/no questions on a line-oriented stream.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned when the input ends before an answer is read,
// for example when stdin is not a terminal and is empty.
var ErrNoInput = errors.New("no answer on input")

// Confirm writes question to w and reads one line from r. Only "y" and
// "yes", in any case, confirm; anything else declines.
func Confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(w, "%s (yes/no): ", question); err != nil {
		return false, err
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		if line == "" {
			return false, ErrNoInput
		}
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
