package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage keeps each user's blobs under <basePath>/<ownerID>/.
// Blob names are random locators, never derived from user-supplied names.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath}, nil
}

// NewLocator returns a fresh opaque locator scoped to the given owner.
func (ls *LocalStorage) NewLocator(ownerID int64) string {
	return filepath.Join(strconv.FormatInt(ownerID, 10), uuid.NewString())
}

func (ls *LocalStorage) pathFromLocator(locator string) (string, error) {
	// Locators are generated by this package, but reject anything that
	// would escape the base directory in case one arrives from a
	// corrupted metadata row.
	clean := filepath.Clean(locator)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return filepath.Join(ls.basePath, clean), nil
}

// Save writes the blob and reports the number of bytes actually written.
func (ls *LocalStorage) Save(locator string, data io.Reader) (int64, error) {
	filePath, err := ls.pathFromLocator(locator)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return io.Copy(file, data)
}

func (ls *LocalStorage) Get(locator string) (io.ReadCloser, error) {
	filePath, err := ls.pathFromLocator(locator)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s not found: %w", locator, err)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStorage) Delete(locator string) error {
	filePath, err := ls.pathFromLocator(locator)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

func (ls *LocalStorage) Exists(locator string) bool {
	filePath, err := ls.pathFromLocator(locator)
	if err != nil {
		return false
	}
	_, err = os.Stat(filePath)
	return err == nil
}

// MeasureUserBytes sums the on-disk size of every blob in the owner's
// region. A missing region means the user has not stored anything yet.
func (ls *LocalStorage) MeasureUserBytes(ownerID int64) (int64, error) {
	userDir := filepath.Join(ls.basePath, strconv.FormatInt(ownerID, 10))

	if _, err := os.Stat(userDir); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var total int64
	err := filepath.WalkDir(userDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}
