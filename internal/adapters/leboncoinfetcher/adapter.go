package leboncoinfetcher

import (
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/gocolly/colly/v2/proxy"
)

// LeboncoinFetcherAdapter отвечает за все взаимодействия с сайтом leboncoin.
type LeboncoinFetcherAdapter struct {
	// родительский коллектор, который разделяет лимиты
	collector  *colly.Collector
	maxRetries int
}

// NewLeboncoinFetcherAdapter - конструктор. proxyURL может быть пустым,
// тогда запросы идут напрямую.
func NewLeboncoinFetcherAdapter(proxyURL string, maxRetries int) (*LeboncoinFetcherAdapter, error) {

	// родительский коллектор
	c := colly.NewCollector(colly.AllowedDomains("www.leboncoin.fr"), colly.AllowURLRevisit())

	// Эти правила будут наследоваться всеми клонами коллектора
	err := c.Limit(&colly.LimitRule{
		DomainGlob: "www.leboncoin.fr",

		// Параллелизм на уровне HTTP-запросов
		Parallelism: 1,

		// задержка от 0 до 3 секунд после завершения предыдущего
		RandomDelay: 3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("LeboncoinFetcherAdapter: failed to set limit rule: %w", err)
	}

	if proxyURL != "" {
		switcher, proxyErr := proxy.RoundRobinProxySwitcher(proxyURL)
		if proxyErr != nil {
			return nil, fmt.Errorf("LeboncoinFetcherAdapter: failed to configure proxy: %w", proxyErr)
		}
		c.SetProxyFunc(switcher)
	}

	extensions.RandomUserAgent(c) // На каждый запрос будет подставлен User-Agent реального браузера
	extensions.Referer(c)         // Автоматически подставляет заголовок Referer, имитируя навигацию

	if maxRetries < 1 {
		maxRetries = 1
	}

	return &LeboncoinFetcherAdapter{
		collector:  c,
		maxRetries: maxRetries,
	}, nil
}
