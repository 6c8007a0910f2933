package usecases

import (
	"context"

	"leboncoin-parser-service/internal/core/domain"
)

// NormalizeAdUseCasePort приводит одно сырое объявление к каноническому виду.
// Вторым значением возвращается полный список ошибок валидации;
// при непустом списке кандидат не выдается вовсе.
type NormalizeAdUseCasePort interface {
	Execute(ctx context.Context, raw domain.RawAd) (*domain.Listing, domain.ValidationErrors)
}
