package usecases

import (
	"context"

	"leboncoin-parser-service/internal/core/domain"
)

// RegisterCityUseCasePort - онбординг почтового индекса: найти коммуны,
// сгенерировать и проверить поисковые URL, сохранить в справочник.
type RegisterCityUseCasePort interface {
	Execute(ctx context.Context, postalCode string) ([]domain.CityURL, error)
}
