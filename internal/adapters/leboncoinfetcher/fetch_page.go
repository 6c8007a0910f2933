package leboncoinfetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/port"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// FetchSearchPage возвращает сырой HTML страницы выдачи. Ответ 502 от
// прокси считается временным и повторяется до maxRetries раз, остальные
// ошибки транспорта возвращаются сразу.
func (a *LeboncoinFetcherAdapter) FetchSearchPage(ctx context.Context, baseURL string, page int) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchLogger := logger.WithFields(port.Fields{"component": "LeboncoinFetcherAdapter(FetchSearchPage)"})

	targetURL, err := buildPaginatedURL(baseURL, page)
	if err != nil {
		return "", fmt.Errorf("leboncoin adapter: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		html, status, fetchErr := a.fetchOnce(targetURL, fetchLogger)
		if fetchErr == nil {
			return html, nil
		}

		if status == http.StatusBadGateway {
			fetchLogger.Warn("HTTP 502 from upstream, retrying", port.Fields{
				"url":     targetURL,
				"attempt": attempt,
				"max":     a.maxRetries,
			})
			lastErr = fetchErr
			continue
		}

		return "", fetchErr
	}

	fetchLogger.Error("Exhausted retries fetching search page", lastErr, port.Fields{"url": targetURL})
	return "", fmt.Errorf("leboncoin adapter: failed to fetch %s after %d attempts: %w", targetURL, a.maxRetries, lastErr)
}

// VerifySearchURL запрашивает URL и убеждается, что страница несет
// разметку выдачи: узел данных, панель фильтров и блок объявлений.
func (a *LeboncoinFetcherAdapter) VerifySearchURL(ctx context.Context, url string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	verifyLogger := logger.WithFields(port.Fields{"component": "LeboncoinFetcherAdapter(VerifySearchURL)"})

	html, _, err := a.fetchOnce(url, verifyLogger)
	if err != nil {
		return fmt.Errorf("leboncoin adapter: failed to fetch %s for verification: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("leboncoin adapter: failed to parse HTML from %s: %w", url, err)
	}

	if doc.Find("script#__NEXT_DATA__").Length() == 0 ||
		doc.Find(`div[data-test-id="sticky-filters-panel"]`).Length() == 0 ||
		doc.Find(`div[class="mb-lg"]`).Length() == 0 {
		return fmt.Errorf("leboncoin adapter: URL %s does not serve the expected search markup", url)
	}

	return nil
}

// fetchOnce выполняет один запрос через одноразовый клон коллектора.
// Клон наследует лимиты и прокси родителя, но имеет свои обработчики.
func (a *LeboncoinFetcherAdapter) fetchOnce(targetURL string, logger port.LoggerPort) (string, int, error) {
	collector := a.collector.Clone()

	var html string
	var statusCode int
	var responseErr error // Для хранения ошибки из колбэка

	collector.OnRequest(func(r *colly.Request) {
		logger.Debug("Making request to fetch search page", port.Fields{
			"url": r.URL.String(),
		})
	})

	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		html = string(r.Body)
	})

	collector.OnError(func(r *colly.Response, err error) {
		statusCode = r.StatusCode
		logger.Error("Failed to fetch search page", err, port.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		})
		responseErr = fmt.Errorf("request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	// Ошибки обрабатываются в OnError, но проверяем и сам вызов Visit
	// (например, если домен не разрешен)
	visitErr := collector.Visit(targetURL)
	if visitErr != nil {
		logger.Error("Failed to initiate visit", visitErr, port.Fields{"url": targetURL})
		return "", 0, fmt.Errorf("failed to visit URL %s: %w", targetURL, visitErr)
	}
	collector.Wait()

	if responseErr != nil {
		return "", statusCode, responseErr
	}

	return html, statusCode, nil
}
