package transfer

import (
	"crypto/md5" //nolint:gosec // ShareFile reports MD5 content hashes
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ComputeMD5 returns the lowercase MD5 hex digest of a file. Uses streaming
// I/O (constant memory).
func ComputeMD5(fsPath string) (string, error) {
	f, err := os.Open(fsPath)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", fsPath, err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // ShareFile reports MD5 content hashes
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", fsPath, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
