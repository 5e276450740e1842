package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/leeforge/captcha/captcha"
	"github.com/leeforge/captcha/http/binding"
	"github.com/leeforge/captcha/http/middleware"
	"github.com/leeforge/captcha/http/responder"
	"github.com/leeforge/captcha/logging"
)

// CaptchaIDHeader 图片接口通过该响应头返回验证码 ID
const CaptchaIDHeader = "X-Captcha-Id"

// VerifyRequest 校验请求体
type VerifyRequest struct {
	ID     string `json:"id" validate:"required,uuid"`
	Answer string `json:"answer" validate:"required,max=64"`
}

// CaptchaHandler 验证码 HTTP 接口
type CaptchaHandler struct {
	service captcha.Service
	logger  logging.Logger
}

func NewCaptchaHandler(service captcha.Service, logger logging.Logger) *CaptchaHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &CaptchaHandler{service: service, logger: logger.Named("captcha.http")}
}

// RegisterRoutes 挂载 /captcha 路由
func (h *CaptchaHandler) RegisterRoutes(router chi.Router) {
	router.Route("/captcha", func(r chi.Router) {
		r.Post("/verify", h.handleVerify)
		r.Get("/{profile}", h.handleGenerate)
		r.Get("/{profile}/image", h.handleImage)
	})
}

func (h *CaptchaHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Generate(r.Context(), chi.URLParam(r, "profile"), middleware.GetClient(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	responder.OK(w, r, data)
}

func (h *CaptchaHandler) handleImage(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Generate(r.Context(), chi.URLParam(r, "profile"), middleware.GetClient(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/"+data.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data.Image)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(CaptchaIDHeader, data.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data.Image); err != nil {
		logging.WithContext(h.logger, r.Context()).Warn("captcha image write failed", zap.Error(err))
	}
}

func (h *CaptchaHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := binding.JSON(r, &req); err != nil {
		if ve, ok := err.(binding.ValidationErrors); ok {
			responder.ValidationError(w, r, fieldErrors(ve))
			return
		}
		responder.BindError(w, r, err.Error())
		return
	}

	result, err := h.service.Verify(r.Context(), req.ID, req.Answer, middleware.GetClient(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	responder.OK(w, r, result)
}

func (h *CaptchaHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := responder.FromAppError(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(h.logger, r.Context()).Error("captcha request failed", zap.Error(err))
	}
	responder.WriteAppError(w, r, err)
}

func fieldErrors(ve binding.ValidationErrors) []responder.FieldError {
	out := make([]responder.FieldError, 0, len(ve))
	for _, e := range ve {
		out = append(out, responder.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}
