package processor

import (
	"bytes"
	"image"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

// Resizer 将样本缩放到固定尺寸
type Resizer interface {
	// Resize returns PNG bytes scaled to width x height. A zero side keeps the
	// aspect ratio; when both are zero the input is returned unchanged.
	Resize(data []byte, width, height uint) ([]byte, error)
	// GetDimensions returns image width and height
	GetDimensions(reader io.Reader) (int, int, error)
}

// NativeProcessor implements Resizer using pure Go libraries
type NativeProcessor struct {
	interp resize.InterpolationFunction
}

func NewNativeProcessor() *NativeProcessor {
	return &NativeProcessor{interp: resize.Bilinear}
}

// WithInterpolation 更换插值算法
func (p *NativeProcessor) WithInterpolation(interp resize.InterpolationFunction) *NativeProcessor {
	return &NativeProcessor{interp: interp}
}

// Resize 0 宽或 0 高时按比例推导，两者都为 0 时原样返回
func (p *NativeProcessor) Resize(data []byte, width, height uint) ([]byte, error) {
	if width == 0 && height == 0 {
		return data, nil
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if uint(b.Dx()) == width && uint(b.Dy()) == height {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, resize.Resize(width, height, img, p.interp)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *NativeProcessor) GetDimensions(reader io.Reader) (int, int, error) {
	config, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}
