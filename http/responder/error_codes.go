package responder

import apperrors "github.com/leeforge/captcha/errors"

const (
	ErrCodeBadRequest       = 4000 // 请求格式错误
	ErrCodeBindFailed       = 4001 // 参数绑定错误
	ErrCodeValidationFailed = 4002 // 数据验证失败
	ErrCodeNotFound         = 4003 // 资源不存在
	ErrCodeRouteNotFound    = 4004 // 路由不存在
	ErrCodeTooManyRequests  = 4009 // 请求过于频繁

	ErrCodeInternalServer  = 5000 // 内部服务器错误
	ErrCodeBusinessLogic   = 5002 // 业务逻辑错误
	ErrCodeStorageService  = 5004 // 存储服务错误
	ErrCodeExternalService = 5005 // 外部服务错误
)

var errorMessages = map[int]string{
	ErrCodeBadRequest:       "Bad Request",
	ErrCodeBindFailed:       "Invalid Request Body",
	ErrCodeValidationFailed: "Validation Failed",
	ErrCodeNotFound:         "Resource Not Found",
	ErrCodeRouteNotFound:    "Route Not Found",
	ErrCodeTooManyRequests:  "Too Many Requests",
	ErrCodeInternalServer:   "Internal Server Error",
	ErrCodeBusinessLogic:    "Business Logic Error",
	ErrCodeStorageService:   "Storage Service Error",
	ErrCodeExternalService:  "External Service Error",
}

// codeByType 应用错误类型到响应错误码的映射
var codeByType = map[apperrors.ErrorType]int{
	apperrors.ErrorTypeValidation: ErrCodeValidationFailed,
	apperrors.ErrorTypeInvalid:    ErrCodeBadRequest,
	apperrors.ErrorTypeNotFound:   ErrCodeNotFound,
	apperrors.ErrorTypeRateLimit:  ErrCodeTooManyRequests,
	apperrors.ErrorTypeBusiness:   ErrCodeBusinessLogic,
	apperrors.ErrorTypeExternal:   ErrCodeExternalService,
	apperrors.ErrorTypeInternal:   ErrCodeInternalServer,
	apperrors.ErrorTypeUnknown:    ErrCodeInternalServer,
}

func GetErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown Error"
}

func NewError(code int, message string) Error {
	if message == "" {
		message = GetErrorMessage(code)
	}
	return Error{
		Code:    code,
		Message: message,
	}
}

func NewErrorWithDetails(code int, message string, details any) Error {
	err := NewError(code, message)
	err.Details = details
	return err
}

// FromAppError converts any error into a response error and its HTTP status.
// Internal errors keep a generic message so causes do not leak to clients.
func FromAppError(err error) (int, Error) {
	appErr := apperrors.FromError(err)

	code, ok := codeByType[appErr.Type]
	if !ok {
		code = ErrCodeInternalServer
	}
	status := appErr.Status()

	out := Error{
		Code:    code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Code != "" && appErr.Code != string(appErr.Type) {
		out.Reason = appErr.Code
	}
	if status >= 500 {
		out.Message = GetErrorMessage(code)
		out.Details = nil
	}
	return status, out
}

var (
	ErrBadRequest       = NewError(ErrCodeBadRequest, "")
	ErrBindFailed       = NewError(ErrCodeBindFailed, "")
	ErrValidationFailed = NewError(ErrCodeValidationFailed, "")
	ErrNotFound         = NewError(ErrCodeNotFound, "")
	ErrRouteNotFound    = NewError(ErrCodeRouteNotFound, "")
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "")
	ErrInternalServer   = NewError(ErrCodeInternalServer, "")
)
