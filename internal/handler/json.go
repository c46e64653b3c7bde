package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

// ConflictData 让客户端区分需要弹窗提示的冲突和普通的字段错误
type ConflictData struct {
	Kind   string                 `json:"kind"`
	Errors []timesheet.FieldError `json:"errors,omitempty"`
}

// validationFailed 返回全部字段错误。kind 为 leave_day 或 overlap 时客户端应以阻塞对话框展示。
func (h *Handler) validationFailed(w http.ResponseWriter, r *http.Request, verr *timesheet.ValidationError) {
	kind := verr.Kind()
	metrics.RecordValidationFailure(string(kind))

	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: verr.Error(),
		Data:    ConflictData{Kind: string(kind), Errors: verr.Errors},
	})
}

func (h *Handler) conflictResponse(w http.ResponseWriter, r *http.Request, kind, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    ConflictData{Kind: kind},
	})
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error, please try again",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
