// Package storage keeps uploaded product images on the local filesystem,
// one directory per product, served statically under /images.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

const urlPrefix = "/images"

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Root is the directory to mount under the /images static route.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) productDir(productID uint) string {
	return filepath.Join(s.root, fmt.Sprintf("product_%d", productID))
}

// SaveImage writes one uploaded file into the product's directory under its
// original filename and returns the public URL for the image record.
func (s *Store) SaveImage(productID uint, fh *multipart.FileHeader) (string, error) {
	dir := s.productDir(productID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create product directory: %w", err)
	}

	name := filepath.Base(fh.Filename)
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return fmt.Sprintf("%s/product_%d/%s", urlPrefix, productID, name), nil
}

// RemoveProduct deletes the product's image directory and everything in it.
func (s *Store) RemoveProduct(productID uint) error {
	return os.RemoveAll(s.productDir(productID))
}
