package leboncoinfetcher

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"leboncoin-parser-service/internal/constants"
	"leboncoin-parser-service/internal/core/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BuildCitySearchURL собирает канонический поисковый URL выдачи для коммуны:
// диакритика снимается, пробелы заменяются дефисами.
func (a *LeboncoinFetcherAdapter) BuildCitySearchURL(city domain.City) string {
	name := strings.TrimSpace(city.CityName)
	name = stripAccents(name)
	name = strings.ReplaceAll(name, " ", "-")

	return fmt.Sprintf(constants.CitySearchURLFormat, name, strings.TrimSpace(city.Zipcode))
}

// buildPaginatedURL добавляет номер страницы к базовому URL выдачи.
// Нумерация страниц на сайте начинается с 1.
func buildPaginatedURL(baseURL string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL %s: %w", baseURL, err)
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// stripAccents снимает диакритику: NFD-разложение и удаление
// комбинируемых знаков (Mn).
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
