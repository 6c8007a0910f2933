package usecase

import (
	"context"
	"errors"
	"fmt"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"
	"leboncoin-parser-service/internal/core/port/usecases"

	"github.com/google/uuid"
)

// CrawlCityUseCase - постраничный обход выдачи одного города.
// Обход строго последовательный: страница N+1 не запрашивается, пока не
// обработаны все объявления страницы N, потому что выдача отсортирована
// от новых к старым и первое же известное объявление означает, что мы
// дошли до уже обработанной территории.
type CrawlCityUseCase struct {
	fetcher    port.LeboncoinFetcherPort
	extractor  port.AdExtractorPort
	normalizer usecases.NormalizeAdUseCasePort
	upserter   usecases.UpsertListingUseCasePort
	storage    port.ListingStoragePort
	cityRepo   port.CityRepositoryPort
}

// NewCrawlCityUseCase создает новый экземпляр use case.
func NewCrawlCityUseCase(
	fetcher port.LeboncoinFetcherPort,
	extractor port.AdExtractorPort,
	normalizer usecases.NormalizeAdUseCasePort,
	upserter usecases.UpsertListingUseCasePort,
	storage port.ListingStoragePort,
	cityRepo port.CityRepositoryPort,
) *CrawlCityUseCase {
	return &CrawlCityUseCase{
		fetcher:    fetcher,
		extractor:  extractor,
		normalizer: normalizer,
		upserter:   upserter,
		storage:    storage,
		cityRepo:   cityRepo,
	}
}

// Execute обходит выдачу города и возвращает число обработанных объявлений.
// Обычное исчерпание выдачи (нет результатов, кончились страницы, встретили
// известное объявление) ошибкой не считается; наружу уходят только
// транспортные сбои после исчерпания ретраев коллаборатора.
func (uc *CrawlCityUseCase) Execute(ctx context.Context, inseeCode, startURL string, taskID uuid.UUID) (int, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case":   "CrawlCity",
		"insee_code": inseeCode,
		"task_id":    taskID.String(),
	})

	if startURL == "" {
		url, err := uc.cityRepo.GetCrawlURL(ctx, inseeCode)
		if err != nil {
			ucLogger.Error("No crawl URL registered for city", err, nil)
			return 0, fmt.Errorf("no crawl URL for insee code %s: %w", inseeCode, err)
		}
		startURL = url
	}

	// Ключи уже сохраненных объявлений загружаются один раз перед обходом.
	knownKeys, err := uc.storage.ListKnownKeys(ctx, inseeCode)
	if err != nil {
		ucLogger.Error("Failed to load known listing keys", err, nil)
		return 0, fmt.Errorf("failed to load known keys for insee code %s: %w", inseeCode, err)
	}
	ucLogger.Info("Starting city crawl", port.Fields{
		"start_url":   startURL,
		"known_count": len(knownKeys.IDs),
	})

	totalProcessed := 0

	for page := 1; ; page++ {
		// Отмена проверяется между страницами: внутри страницы не прерываемся,
		// чтобы откат по объявлению оставался единственной единицей отказа.
		select {
		case <-ctx.Done():
			ucLogger.Warn("Crawl cancelled between pages", port.Fields{"page": page})
			return totalProcessed, ctx.Err()
		default:
		}

		pageLogger := ucLogger.WithFields(port.Fields{"page": page})

		html, fetchErr := uc.fetcher.FetchSearchPage(ctx, startURL, page)
		if fetchErr != nil {
			pageLogger.Error("Transport failure, aborting city crawl", fetchErr, nil)
			return totalProcessed, fmt.Errorf("failed to fetch page %d for insee code %s: %w", page, inseeCode, fetchErr)
		}

		ads, extractErr := uc.extractor.ExtractAds(html)
		if extractErr != nil {
			if errors.Is(extractErr, domain.ErrNoResults) {
				pageLogger.Info("No results marker found, pagination exhausted", nil)
				break
			}
			var ee *domain.ExtractionError
			if errors.As(extractErr, &ee) {
				// Разметка сайта разошлась с ожиданиями - страница потеряна,
				// но сам обход завершается штатно с тем, что успели собрать.
				pageLogger.Error("Page extraction failed, stopping crawl", extractErr, port.Fields{"kind": string(ee.Kind)})
				break
			}
			pageLogger.Error("Unexpected extraction failure, stopping crawl", extractErr, nil)
			break
		}

		if len(ads) == 0 {
			pageLogger.Info("Empty ads list, pagination exhausted", nil)
			break
		}

		for _, raw := range ads {
			adLogger := pageLogger.WithFields(port.Fields{"ad_id": raw.ListID.String()})

			candidate, validationErrs := uc.normalizer.Execute(ctx, raw)
			if len(validationErrs) > 0 {
				// Плохое объявление не роняет ни страницу, ни обход.
				adLogger.Warn("Ad failed validation, skipping", port.Fields{"errors": validationErrs.Error()})
				continue
			}

			if knownKeys.Contains(candidate.ID, candidate.URL) {
				// Выдача отсортирована от новых к старым: раз это объявление
				// уже в базе, все дальнейшие мы тоже уже видели.
				adLogger.Info("Reached previously crawled territory, stopping crawl", port.Fields{
					"ads_processed": totalProcessed,
				})
				return totalProcessed, nil
			}

			outcome, upsertErr := uc.upserter.Execute(ctx, *candidate)
			switch {
			case errors.Is(upsertErr, domain.ErrIdentityAmbiguous):
				adLogger.Warn("Ambiguous identity match, ad left for manual review", nil)
				continue
			case upsertErr != nil:
				// Откат уже произошел на уровне транзакции хранилища.
				adLogger.Error("Failed to persist ad, continuing with next", upsertErr, nil)
				continue
			}

			adLogger.Debug("Ad processed", port.Fields{"outcome": string(outcome)})
			totalProcessed++
		}
	}

	ucLogger.Info("City crawl finished", port.Fields{"ads_processed": totalProcessed})
	return totalProcessed, nil
}
