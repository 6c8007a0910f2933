package port

import (
	"context"

	"leboncoin-parser-service/internal/core/domain"
)

// CityResolverPort переводит пару (название города, почтовый индекс)
// в канонический код INSEE. Возвращает domain.ErrCityNotFound,
// если коммуна неизвестна.
type CityResolverPort interface {
	LookupInseeCode(ctx context.Context, cityName, zipcode string) (string, error)
}

// CityRepositoryPort - справочник коммун и их поисковых URL.
type CityRepositoryPort interface {
	UpsertCity(ctx context.Context, city domain.City) error
	UpsertCityURL(ctx context.Context, cityURL domain.CityURL) error

	// GetCrawlURL возвращает поисковый URL, закрепленный за кодом INSEE.
	GetCrawlURL(ctx context.Context, inseeCode string) (string, error)
}

// MunicipalityLookupPort - внешний гео-справочник (api-adresse.data.gouv.fr):
// по почтовому индексу возвращает все подходящие коммуны.
type MunicipalityLookupPort interface {
	LookupByPostalCode(ctx context.Context, postalCode string) ([]domain.City, error)
}
