//go:build !unix

package logging

import "os"

// Advisory locking is unavailable; writes are still serialized in-process.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
