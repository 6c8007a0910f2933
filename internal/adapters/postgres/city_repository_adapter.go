package postgres

import (
	"context"
	"errors"
	"fmt"

	"leboncoin-parser-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CityRepositoryAdapter - справочник коммун и их поисковых URL в PostgreSQL.
// Он же отвечает за резолв (город, индекс) -> код INSEE при нормализации.
type CityRepositoryAdapter struct {
	pool *pgxpool.Pool
}

// NewCityRepositoryAdapter создает новый экземпляр адаптера.
func NewCityRepositoryAdapter(pool *pgxpool.Pool) (*CityRepositoryAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &CityRepositoryAdapter{pool: pool}, nil
}

// LookupInseeCode переводит пару (название города, почтовый индекс) в код INSEE.
func (a *CityRepositoryAdapter) LookupInseeCode(ctx context.Context, cityName, zipcode string) (string, error) {
	var insee string
	err := a.pool.QueryRow(ctx,
		`SELECT insee_code FROM cities WHERE zipcode = $1 AND city_name = $2;`,
		zipcode, cityName,
	).Scan(&insee)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("city %s (%s): %w", cityName, zipcode, domain.ErrCityNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up insee code for %s (%s): %w", cityName, zipcode, err)
	}
	return insee, nil
}

// UpsertCity вставляет или обновляет коммуну по коду INSEE.
func (a *CityRepositoryAdapter) UpsertCity(ctx context.Context, city domain.City) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO cities (zipcode, insee_code, city_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (insee_code) DO UPDATE SET
			zipcode = EXCLUDED.zipcode,
			city_name = EXCLUDED.city_name;
	`, city.Zipcode, city.InseeCode, city.CityName)
	if err != nil {
		return fmt.Errorf("failed to upsert city %s: %w", city.InseeCode, err)
	}
	return nil
}

// UpsertCityURL закрепляет поисковый URL за кодом INSEE.
func (a *CityRepositoryAdapter) UpsertCityURL(ctx context.Context, cityURL domain.CityURL) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO leboncoin_urls (insee_code, url)
		VALUES ($1, $2)
		ON CONFLICT (insee_code) DO UPDATE SET url = EXCLUDED.url;
	`, cityURL.InseeCode, cityURL.URL)
	if err != nil {
		return fmt.Errorf("failed to upsert URL for city %s: %w", cityURL.InseeCode, err)
	}
	return nil
}

// GetCrawlURL возвращает поисковый URL, закрепленный за кодом INSEE.
func (a *CityRepositoryAdapter) GetCrawlURL(ctx context.Context, inseeCode string) (string, error) {
	var url string
	err := a.pool.QueryRow(ctx,
		`SELECT url FROM leboncoin_urls WHERE insee_code = $1;`,
		inseeCode,
	).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("insee code %s: %w", inseeCode, domain.ErrCityNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get crawl URL for %s: %w", inseeCode, err)
	}
	return url, nil
}
