package port

import (
	"context"

	"leboncoin-parser-service/internal/core/domain"
)

// LeboncoinFetcherPort отвечает за доставку HTML страницы выдачи.
// Ретраи и прокси - забота адаптера; ядро повторных попыток не делает.
type LeboncoinFetcherPort interface {
	// FetchSearchPage возвращает сырой HTML страницы page (нумерация с 1)
	// для базового поискового URL города.
	FetchSearchPage(ctx context.Context, baseURL string, page int) (string, error)
}

// SearchURLBuilderPort строит и проверяет поисковые URL выдачи по коммуне.
type SearchURLBuilderPort interface {
	// BuildCitySearchURL собирает канонический URL выдачи для коммуны
	// (транслитерация, дефисы вместо пробелов).
	BuildCitySearchURL(city domain.City) string

	// VerifySearchURL запрашивает URL и убеждается, что он отдает
	// ожидаемую разметку выдачи.
	VerifySearchURL(ctx context.Context, url string) error
}

// AdExtractorPort превращает сырой HTML выдачи в список сырых объявлений.
// Возвращает domain.ErrNoResults на странице с маркером "нет результатов"
// и *domain.ExtractionError, когда разметка сайта разошлась с ожидаемой.
type AdExtractorPort interface {
	ExtractAds(html string) ([]domain.RawAd, error)
}
