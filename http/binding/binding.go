package binding

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	validatorV10 "github.com/go-playground/validator/v10"

	"github.com/leeforge/captcha/json"
)

// MaxBodySize 请求体大小上限
const MaxBodySize = 64 << 10

type BindError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s' %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

type ValidationErrors []BindError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Error())
}

// DecodeOptions JSON 解码选项配置
type DecodeOptions struct {
	useNumber             bool
	disallowUnknownFields bool
}

// Option 解码选项函数类型
type Option func(*DecodeOptions)

// WithUseNumber 使用 json.Number 来解析数字，而不是 float64
func WithUseNumber() Option {
	return func(opts *DecodeOptions) {
		opts.useNumber = true
	}
}

// WithDisallowUnknownFields 不允许 JSON 中包含结构体未定义的字段
func WithDisallowUnknownFields() Option {
	return func(opts *DecodeOptions) {
		opts.disallowUnknownFields = true
	}
}

// JSON 解码请求体并校验 validate 标签
func JSON(r *http.Request, v any, opts ...Option) error {
	if r == nil || r.Body == nil {
		return &BindError{Type: "bind_error", Message: "request body is empty"}
	}
	defer r.Body.Close()

	options := &DecodeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize))
	if options.useNumber {
		decoder.UseNumber()
	}
	if options.disallowUnknownFields {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &BindError{Type: "bind_error", Message: "request body is empty"}
		}
		return &BindError{Type: "json_error", Message: "failed to unmarshal JSON: " + err.Error()}
	}

	return Validate(v)
}

// Validate 校验结构体，字段名使用 json 标签
func Validate(v any) error {
	err := validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validatorV10.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return &BindError{Type: "validation_error", Message: err.Error()}
	}

	bindErrors := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		bindErrors = append(bindErrors, BindError{
			Type:    "validation_error",
			Field:   fe.Field(),
			Message: getValidationMessage(fe),
		})
	}
	return bindErrors
}
