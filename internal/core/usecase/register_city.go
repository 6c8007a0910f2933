package usecase

import (
	"context"
	"fmt"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"
)

// RegisterCityUseCase - постановка коммуны на обслуживание: по почтовому
// индексу находим все коммуны в гео-справочнике, собираем для каждой
// поисковый URL, проверяем его живость и фиксируем пару (коммуна, URL)
// в справочнике. После этого город доступен обходу и резолверу INSEE.
type RegisterCityUseCase struct {
	municipalities port.MunicipalityLookupPort
	urlBuilder     port.SearchURLBuilderPort
	cityRepo       port.CityRepositoryPort
}

// NewRegisterCityUseCase создает новый экземпляр use case.
func NewRegisterCityUseCase(
	municipalities port.MunicipalityLookupPort,
	urlBuilder port.SearchURLBuilderPort,
	cityRepo port.CityRepositoryPort,
) *RegisterCityUseCase {
	return &RegisterCityUseCase{
		municipalities: municipalities,
		urlBuilder:     urlBuilder,
		cityRepo:       cityRepo,
	}
}

// Execute регистрирует все коммуны почтового индекса и возвращает
// закрепленные за ними поисковые URL. Один почтовый индекс может
// покрывать несколько коммун, каждая регистрируется отдельно.
func (uc *RegisterCityUseCase) Execute(ctx context.Context, postalCode string) ([]domain.CityURL, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":    "RegisterCity",
		"postal_code": postalCode,
	})

	cities, err := uc.municipalities.LookupByPostalCode(ctx, postalCode)
	if err != nil {
		logger.Error("Municipality lookup failed", err, nil)
		return nil, fmt.Errorf("failed to look up municipalities for postal code %s: %w", postalCode, err)
	}
	if len(cities) == 0 {
		logger.Warn("No municipalities found for postal code", nil)
		return nil, fmt.Errorf("postal code %s: %w", postalCode, domain.ErrCityNotFound)
	}

	registered := make([]domain.CityURL, 0, len(cities))
	for _, city := range cities {
		cityLogger := logger.WithFields(port.Fields{
			"city_name":  city.CityName,
			"insee_code": city.InseeCode,
		})

		url := uc.urlBuilder.BuildCitySearchURL(city)
		if verifyErr := uc.urlBuilder.VerifySearchURL(ctx, url); verifyErr != nil {
			// Неподтвержденный URL в справочник не попадает, иначе обход
			// города будет стабильно падать на первой же странице.
			cityLogger.Warn("Search URL verification failed, city skipped", port.Fields{
				"url":   url,
				"error": verifyErr.Error(),
			})
			continue
		}

		if upsertErr := uc.cityRepo.UpsertCity(ctx, city); upsertErr != nil {
			cityLogger.Error("Failed to persist city", upsertErr, nil)
			return registered, fmt.Errorf("failed to persist city %s: %w", city.InseeCode, upsertErr)
		}

		cityURL := domain.CityURL{InseeCode: city.InseeCode, URL: url}
		if upsertErr := uc.cityRepo.UpsertCityURL(ctx, cityURL); upsertErr != nil {
			cityLogger.Error("Failed to persist city URL", upsertErr, nil)
			return registered, fmt.Errorf("failed to persist URL for city %s: %w", city.InseeCode, upsertErr)
		}

		cityLogger.Info("City registered", port.Fields{"url": url})
		registered = append(registered, cityURL)
	}

	return registered, nil
}
