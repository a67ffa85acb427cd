package blobstore

import (
	"fmt"
	"strings"
)

// validateKey rejects keys that could escape the store root once mapped to
// a filesystem path or object name.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("blob key is empty")
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("blob key %q must be relative", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("blob key %q has an invalid segment", key)
		}
	}
	return nil
}
