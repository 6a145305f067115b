// FILE: internal/pkg/serverutils/response.go
package serverutils

import (
	"errors"
	"net/http"

	"ai-adgen-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

type ErrorBody struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Id      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: data}
}

func ErrorResponse(code int, message string) ErrorBody {
	return ErrorBody{Success: false, Code: code, Message: message}
}

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts failures into the
// billing error taxonomy so the error handler renders them as 400s.
func ValidateRequest(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}

// StatusForKind maps error kinds onto HTTP statuses. DuplicateReference never
// reaches here: replays are resolved transparently by the ledger.
func StatusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAlreadyActive, apperror.KindNoActiveSubscription, apperror.KindInvalidTransition:
		return http.StatusConflict
	case apperror.KindInsufficientCredits:
		return http.StatusPaymentRequired
	case apperror.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders structured errors returned by controllers.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			status := StatusForKind(appErr.Kind)
			return ctx.Status(status).JSON(ErrorBody{
				Success: false,
				Code:    status,
				Kind:    string(appErr.Kind),
				Entity:  appErr.Entity,
				Id:      appErr.Id,
				Message: appErr.Error(),
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(http.StatusInternalServerError).JSON(ErrorResponse(http.StatusInternalServerError, "internal server error"))
	}
}
