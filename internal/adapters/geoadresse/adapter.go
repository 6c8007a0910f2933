package geoadresse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"

	"github.com/gocolly/colly/v2"
)

const searchEndpoint = "https://api-adresse.data.gouv.fr/search/"

// GeoAdresseAdapter - клиент государственного гео-справочника
// api-adresse.data.gouv.fr: по почтовому индексу возвращает коммуны.
type GeoAdresseAdapter struct {
	collector *colly.Collector
}

// NewGeoAdresseAdapter - конструктор
func NewGeoAdresseAdapter() (*GeoAdresseAdapter, error) {
	c := colly.NewCollector(colly.AllowedDomains("api-adresse.data.gouv.fr"), colly.AllowURLRevisit())

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "api-adresse.data.gouv.fr",
		Parallelism: 1,
		RandomDelay: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("GeoAdresseAdapter: failed to set limit rule: %w", err)
	}

	return &GeoAdresseAdapter{collector: c}, nil
}

// LookupByPostalCode возвращает все коммуны почтового индекса.
// Пустой список означает, что справочник индекс не знает.
func (a *GeoAdresseAdapter) LookupByPostalCode(ctx context.Context, postalCode string) ([]domain.City, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	lookupLogger := logger.WithFields(port.Fields{"component": "GeoAdresseAdapter(LookupByPostalCode)"})

	q := url.Values{}
	q.Set("q", postalCode)
	q.Set("type", "municipality")
	targetURL := searchEndpoint + "?" + q.Encode()

	collector := a.collector.Clone()

	var cities []domain.City
	var responseErr error

	collector.OnResponse(func(r *colly.Response) {
		var data featureCollection
		if jsonErr := json.Unmarshal(r.Body, &data); jsonErr != nil {
			responseErr = fmt.Errorf("geoadresse adapter: failed to decode response for %s: %w", postalCode, jsonErr)
			return
		}

		for _, f := range data.Features {
			cities = append(cities, domain.City{
				Zipcode:   postalCode,
				InseeCode: f.Properties.CityCode,
				CityName:  f.Properties.City,
			})
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		lookupLogger.Error("Municipality lookup request failed", err, port.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		})
		responseErr = fmt.Errorf("geoadresse adapter: request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if visitErr := collector.Visit(targetURL); visitErr != nil {
		return nil, fmt.Errorf("geoadresse adapter: failed to visit %s: %w", targetURL, visitErr)
	}
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}

	lookupLogger.Info("Municipality lookup finished", port.Fields{
		"postal_code": postalCode,
		"cities":      len(cities),
	})
	return cities, nil
}
