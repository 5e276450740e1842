package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/leeforge/captcha/utils"
)

// LocalProvider 本地文件系统存储
type LocalProvider struct {
	basePath string
	baseURL  string
}

// NewLocalProvider creates the base directory if needed.
func NewLocalProvider(basePath, baseURL string) (*LocalProvider, error) {
	if err := utils.CreateDir(basePath); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalProvider{basePath: basePath, baseURL: baseURL}, nil
}

func (p *LocalProvider) fullPath(path string) (string, error) {
	full, ok := utils.SafeJoin(p.basePath, path)
	if !ok {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return full, nil
}

// Upload saves a file to the local filesystem
func (p *LocalProvider) Upload(ctx context.Context, file io.Reader, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath, err := p.fullPath(path)
	if err != nil {
		return "", err
	}
	if err := utils.CreateDir(filepath.Dir(fullPath)); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to write file content: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if p.baseURL == "" {
		return fullPath, nil
	}
	// URL 一律使用正斜杠
	return p.baseURL + "/" + joinKey(path), nil
}

// Delete removes a file, a missing file is not an error.
func (p *LocalProvider) Delete(ctx context.Context, path string) error {
	fullPath, err := p.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if a file exists
func (p *LocalProvider) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := p.fullPath(path)
	if err != nil {
		return false, err
	}
	isDir, exists, err := utils.Exists(fullPath)
	return exists && !isDir, err
}

func (p *LocalProvider) Name() string {
	return "local"
}
