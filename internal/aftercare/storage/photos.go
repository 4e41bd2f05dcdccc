// Package storage keeps tour photos on local disk.
package storage

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const jpegQuality = 85

// DiskStore writes photos as JPEG files under root/<booking id>/<uuid>.jpg.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

// Save encodes img and returns its path relative to the store root.
func (s *DiskStore) Save(bookingID int64, img image.Image) (string, error) {
	rel := filepath.Join(strconv.FormatInt(bookingID, 10), uuid.NewString()+".jpg")
	full := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create photo directory: %w", err)
	}
	if err := imaging.Save(img, full, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Remove deletes a photo previously returned by Save.
func (s *DiskStore) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
