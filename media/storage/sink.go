package storage

import (
	"bytes"
	"context"
	"fmt"
)

// DatasetSink 以 <index>_<code>.png 命名写入验证码样本，文件名即标注
type DatasetSink struct {
	provider Provider
	folder   string
}

func NewDatasetSink(provider Provider, folder string) *DatasetSink {
	return &DatasetSink{provider: provider, folder: folder}
}

// FileName 样本文件名
func FileName(index int, code string) string {
	return fmt.Sprintf("%d_%s.png", index, code)
}

// Write 写入一个样本并返回其地址
func (s *DatasetSink) Write(ctx context.Context, index int, code string, image []byte) (string, error) {
	return s.provider.Upload(ctx, bytes.NewReader(image), joinKey(s.folder, FileName(index, code)))
}

func (s *DatasetSink) Provider() Provider { return s.provider }
