package port

import (
	"context"

	"leboncoin-parser-service/internal/core/domain"
)

// ListingStoragePort - контракт хранилища объявлений.
// Каждый метод записи выполняется в собственной транзакции.
type ListingStoragePort interface {
	// FindByAnyKey ищет существующее объявление, у которого совпал
	// id ИЛИ url ИЛИ title. Возвращает nil, если совпадений нет.
	FindByAnyKey(ctx context.Context, id int64, url, title string) (*domain.Listing, error)

	// InsertWithImages атомарно вставляет объявление вместе с изображениями:
	// либо сохраняется все, либо ничего.
	InsertWithImages(ctx context.Context, listing domain.Listing) error

	// Update перезаписывает поля существующего объявления и довставляет
	// недостающие изображения (имеющиеся строки не трогаются).
	Update(ctx context.Context, listing domain.Listing) error

	// ListKnownKeys возвращает ключи всех сохраненных объявлений коммуны
	// для ранней остановки пагинации.
	ListKnownKeys(ctx context.Context, inseeCode string) (domain.KnownKeys, error)
}
