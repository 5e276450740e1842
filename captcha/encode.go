package captcha

import (
	"bytes"
	"encoding/base64"

	"github.com/fogleman/gg"
)

// encode writes the canvas as PNG and assembles the Result.
func encode(dc *gg.Context, code string) (Result, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return Result{}, ErrEncoding.WithInnerError(err)
	}

	img := buf.Bytes()
	return Result{
		Image:  img,
		Code:   code,
		Mime:   MimePNG,
		Base64: DataURIPrefix + base64.StdEncoding.EncodeToString(img),
	}, nil
}
