package usecases

import (
	"context"

	"github.com/google/uuid"
)

// CrawlCityUseCasePort - верхнеуровневая точка входа: постраничный обход
// выдачи одного города. Возвращает число обработанных объявлений.
type CrawlCityUseCasePort interface {
	Execute(ctx context.Context, inseeCode, startURL string, taskID uuid.UUID) (int, error)
}
