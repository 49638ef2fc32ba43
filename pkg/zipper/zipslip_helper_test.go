package zipper

import (
	"archive/zip"
	"os"
)

// writeEvilZip builds an archive with a single entry that attempts to
// escape its extraction directory via a ../ path, for zip-slip tests.
func writeEvilZip(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	entry, err := w.Create("../escaped.txt")
	if err != nil {
		return err
	}
	if _, err := entry.Write([]byte("pwned")); err != nil {
		return err
	}
	return w.Close()
}
