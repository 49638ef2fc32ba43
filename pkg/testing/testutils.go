package testing

import "os"

// TempDir returns a temporary directory and a closer func that removes it.
func TempDir() (string, func(), error) {
	tmp, err := os.MkdirTemp("", "")
	if err != nil {
		return "", nil, err
	}
	return tmp, func() { _ = os.RemoveAll(tmp) }, nil
}

// TempFile returns a temporary file and a closer func that removes it.
func TempFile() (*os.File, func(), error) {
	tmp, err := os.CreateTemp("", "")
	if err != nil {
		return nil, nil, err
	}
	return tmp, func() { _ = os.Remove(tmp.Name()) }, nil
}
