package submfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// IsDuplicate reports whether the detail and answer-only submissions are
// byte-identical. Directory submissions are compared as sets of file
// contents, ignoring file names.
func IsDuplicate(detailPath string, answerPath string) (bool, error) {
	detailDocs, err := Documents(detailPath)
	if err != nil {
		return false, fmt.Errorf("failed to list detail submission: %w", err)
	}
	answerDocs, err := Documents(answerPath)
	if err != nil {
		return false, fmt.Errorf("failed to list answer submission: %w", err)
	}
	if len(detailDocs) == 0 || len(detailDocs) != len(answerDocs) {
		return false, nil
	}

	detailSums, err := digests(detailDocs)
	if err != nil {
		return false, err
	}
	answerSums, err := digests(answerDocs)
	if err != nil {
		return false, err
	}
	for i := range detailSums {
		if !bytes.Equal(detailSums[i], answerSums[i]) {
			return false, nil
		}
	}
	return true, nil
}

// digests returns the sorted BLAKE2b-256 sums of the files.
func digests(paths []string) ([][]byte, error) {
	sums := make([][]byte, 0, len(paths))
	for _, p := range paths {
		sum, err := fileDigest(p)
		if err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}
	sort.Slice(sums, func(i, j int) bool { return bytes.Compare(sums[i], sums[j]) < 0 })
	return sums, nil
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
