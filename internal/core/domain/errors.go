package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoResults - на странице выдачи есть маркер "нет результатов".
// Это не ошибка разбора, а нормальное окончание пагинации.
var ErrNoResults = errors.New("search page has no results")

// ErrCityNotFound - резолвер не нашел коммуну по имени и индексу.
var ErrCityNotFound = errors.New("city not found")

// ErrIdentityAmbiguous - найдена запись, совпавшая лишь по одному ключу из трех.
// Такого кандидата не перезаписываем, а отклоняем для ручного разбора.
var ErrIdentityAmbiguous = errors.New("listing identity is ambiguous: only one of id/url/title matches")

// ExtractionErrorKind - причина, по которой страница выдачи не разобралась.
type ExtractionErrorKind string

const (
	// На странице нет script-узла с гидрационными данными.
	KindMissingDataNode ExtractionErrorKind = "missing_data_node"
	// Узел есть, но его содержимое не парсится как JSON.
	KindMalformedPayload ExtractionErrorKind = "malformed_payload"
	// JSON валиден, но фиксированный путь до списка объявлений не разрешился
	// (верстка или схема сайта изменилась).
	KindUnexpectedShape ExtractionErrorKind = "unexpected_shape"
)

// ExtractionError - фатальная для текущей страницы (но не для обхода в целом)
// ошибка извлечения данных из HTML выдачи.
type ExtractionError struct {
	Kind ExtractionErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s)", e.Kind)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError создает ошибку извлечения с указанной причиной.
func NewExtractionError(kind ExtractionErrorKind, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Err: err}
}

// FieldError - одна ошибка валидации на уровне поля.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors - все ошибки валидации одного объявления, собранные вместе.
// Объявление отклоняется целиком, ошибки отдаются списком, а не по одной.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "invalid ad: " + strings.Join(msgs, "; ")
}

// Add добавляет ошибку поля в список.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}
