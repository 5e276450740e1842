package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSProvider 阿里云 OSS 存储
type OSSProvider struct {
	bucket *oss.Bucket
	domain string // 自定义域名或 CDN
}

// NewOSSProvider creates a new OSS storage provider
// Endpoint: oss-cn-hangzhou.aliyuncs.com
func NewOSSProvider(endpoint, accessKeyID, accessKeySecret, bucketName, domain string) (*OSSProvider, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &OSSProvider{bucket: bucket, domain: ossDomain(endpoint, bucketName, domain)}, nil
}

func ossDomain(endpoint, bucketName, domain string) string {
	if domain == "" {
		return fmt.Sprintf("https://%s.%s", bucketName, endpoint)
	}
	if !strings.HasPrefix(domain, "http") {
		domain = "https://" + domain
	}
	return strings.TrimSuffix(domain, "/")
}

// Upload saves a PNG object to OSS
func (p *OSSProvider) Upload(ctx context.Context, file io.Reader, path string) (string, error) {
	objectKey := joinKey(path)
	err := p.bucket.PutObject(objectKey, file, oss.WithContext(ctx), oss.ContentType("image/png"))
	if err != nil {
		return "", fmt.Errorf("failed to upload to OSS: %w", err)
	}
	return p.domain + "/" + objectKey, nil
}

// Delete removes a file from OSS
func (p *OSSProvider) Delete(ctx context.Context, path string) error {
	if err := p.bucket.DeleteObject(joinKey(path), oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete from OSS: %w", err)
	}
	return nil
}

// Exists checks if a file exists in OSS
func (p *OSSProvider) Exists(ctx context.Context, path string) (bool, error) {
	return p.bucket.IsObjectExist(joinKey(path), oss.WithContext(ctx))
}

func (p *OSSProvider) Name() string {
	return "oss"
}
