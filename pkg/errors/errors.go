package errors

import (
	"errors"
	"fmt"
)

const (
	InternalServerError = "internal server error"
	BadRequest          = "bad request"
	NotFound            = "not_found"
	Forbidden           = "forbidden"

	InvalidDataCode         = 400
	ForbiddenErrorCode      = 403
	NotFoundErrorCode       = 404
	InternalServerErrorCode = 500
)

// AppError представляет собой стандартизированную структуру ошибки для API.
type AppError struct {
	Code         int    `json:"code"`    // HTTP статус код
	Message      string `json:"message"` // Сообщение для клиента
	Err          error  `json:"-"`       // Внутренняя ошибка, не для клиента
	IsUserFacing bool   `json:"-"`       // Флаг, указывающий, можно ли показывать `Err`
}

func (a *AppError) Error() string {
	if a == nil {
		return ""
	}
	if a.Err != nil {
		return fmt.Sprintf("%s (code: %d): %v", a.Message, a.Code, a.Err)
	}
	return fmt.Sprintf("%s (code: %d)", a.Message, a.Code)
}

func (a *AppError) Unwrap() error {
	if a == nil {
		return nil
	}
	return a.Err
}

// NewAppError создает новый экземпляр AppError.
func NewAppError(httpCode int, message string, err error, isUserFacing bool) *AppError {
	return &AppError{
		Code:         httpCode,
		Message:      message,
		Err:          err,
		IsUserFacing: isUserFacing,
	}
}

var (
	// ErrRecordMissing - запись состояния отсутствует на диске, пока агент работает.
	ErrRecordMissing = errors.New("state record missing")
	// ErrUnsupportedDevice - тип устройства не поддерживает операцию.
	ErrUnsupportedDevice = errors.New("unsupported device type")
	// ErrRemoteControlDisabled - устройство запрещает удаленное управление.
	ErrRemoteControlDisabled = errors.New("remote control is disabled on the device")
	// ErrUnknownRequest - неизвестный тип входящей команды.
	ErrUnknownRequest = errors.New("unknown request")
	// ErrInvalidName - имя файла пустое или выходит за пределы папки.
	ErrInvalidName = errors.New("invalid artifact name")
	// ErrNoCamera - камера не настроена.
	ErrNoCamera = errors.New("camera is not available")
	// ErrCaptureFailed - камера настроена, но команда захвата не дала кадр.
	ErrCaptureFailed = errors.New("camera capture failed")
)

// StatusCode подбирает HTTP код для ошибки домена.
func StatusCode(err error) int {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.Is(err, ErrRemoteControlDisabled):
		return ForbiddenErrorCode
	case errors.Is(err, ErrUnknownRequest), errors.Is(err, ErrInvalidName), errors.Is(err, ErrUnsupportedDevice):
		return InvalidDataCode
	case errors.Is(err, ErrRecordMissing):
		return NotFoundErrorCode
	default:
		return InternalServerErrorCode
	}
}
