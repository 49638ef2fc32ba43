// Package zipper packages and unpacks the directory-valued entries of
// a training offloading transfer-data map (§4.9): a sender zips a
// local directory into a single blob before it goes out over the
// transport, and a receiver unpacks that blob back into a directory
// once it lands on disk.
package zipper

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nnstreamer/ml-service-core/pkg/mlerrors"
)

// PackDirectory zips every regular file under dir into outputPath,
// preserving dir-relative paths as archive entry names.
func PackDirectory(dir, outputPath string) error {
	return PackDirectoryFiltered(dir, outputPath, nil)
}

// PackDirectoryFiltered is PackDirectory restricted to files whose
// dir-relative path starts with one of prefixes. A nil or empty
// prefixes includes everything.
func PackDirectoryFiltered(dir, outputPath string, prefixes []string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "zipper.PackDirectoryFiltered", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)

	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchesAny(rel, prefixes) {
			return nil
		}
		return addFileToArchive(w, path, rel, info)
	})
	if walkErr != nil {
		w.Close()
		return mlerrors.Wrap(mlerrors.IoError, "zipper.PackDirectoryFiltered", walkErr)
	}
	if err := w.Close(); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "zipper.PackDirectoryFiltered", err)
	}
	return nil
}

func matchesAny(rel string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

func addFileToArchive(w *zip.Writer, path, name string, info os.FileInfo) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	entry, err := w.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

// UnpackArchive extracts zipPath's entries into destDir, creating it
// and any intermediate directories as needed. Entries are rejected if
// their name would escape destDir (zip-slip).
func UnpackArchive(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "zipper.UnpackArchive", err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return mlerrors.Wrap(mlerrors.IoError, "zipper.UnpackArchive", err)
	}

	for _, entry := range r.File {
		if err := extractEntry(destDir, entry); err != nil {
			return mlerrors.Wrap(mlerrors.IoError, "zipper.UnpackArchive", err)
		}
	}
	return nil
}

func extractEntry(destDir string, entry *zip.File) error {
	target := filepath.Join(destDir, entry.Name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return mlerrors.New(mlerrors.InvalidParameter, "zipper.extractEntry", "entry escapes destination: "+entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
