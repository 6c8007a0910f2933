package leboncoinfetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leboncoin-parser-service/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
)

// структура данных Next.js на странице выдачи
type nextDataRoot struct {
	Props nextDataProps `json:"props"`
}

type nextDataProps struct {
	PageProps nextDataPageProps `json:"pageProps"`
}

type nextDataPageProps struct {
	SearchData *nextDataSearchData `json:"searchData"`
}

type nextDataSearchData struct {
	Ads []domain.RawAd `json:"ads"`
}

// AdExtractorAdapter разбирает HTML выдачи leboncoin: находит узел
// script#__NEXT_DATA__ и достает из него список сырых объявлений.
type AdExtractorAdapter struct{}

// NewAdExtractorAdapter - конструктор
func NewAdExtractorAdapter() *AdExtractorAdapter {
	return &AdExtractorAdapter{}
}

// ExtractAds возвращает сырые объявления страницы выдачи.
// Маркер "нет результатов" дает domain.ErrNoResults; любое расхождение
// разметки с ожидаемой - *domain.ExtractionError с видом поломки.
func (a *AdExtractorAdapter) ExtractAds(html string) ([]domain.RawAd, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, domain.NewExtractionError(domain.KindMalformedPayload, fmt.Errorf("failed to parse HTML: %w", err))
	}

	// Маркер пустой выдачи проверяется до поиска узла данных:
	// на странице "нет результатов" узла данных может не быть вовсе.
	if doc.Find(`div[data-test-id="noResult"]`).Length() > 0 {
		return nil, domain.ErrNoResults
	}

	script := doc.Find("script#__NEXT_DATA__")
	if script.Length() == 0 {
		return nil, domain.NewExtractionError(domain.KindMissingDataNode, errors.New(`no script tag with id "__NEXT_DATA__" found`))
	}

	var root nextDataRoot
	if err := json.Unmarshal([]byte(script.Text()), &root); err != nil {
		return nil, domain.NewExtractionError(domain.KindMalformedPayload, fmt.Errorf("failed to decode data node JSON: %w", err))
	}

	searchData := root.Props.PageProps.SearchData
	if searchData == nil {
		return nil, domain.NewExtractionError(domain.KindUnexpectedShape, errors.New("path props.pageProps.searchData is absent"))
	}
	if searchData.Ads == nil {
		return nil, domain.NewExtractionError(domain.KindUnexpectedShape, errors.New("path props.pageProps.searchData.ads is absent"))
	}

	return searchData.Ads, nil
}
