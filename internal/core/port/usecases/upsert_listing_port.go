package usecases

import (
	"context"

	"leboncoin-parser-service/internal/core/domain"
)

// UpsertListingUseCasePort решает, вставка это или обновление,
// и применяет кандидата к хранилищу.
type UpsertListingUseCasePort interface {
	Execute(ctx context.Context, candidate domain.Listing) (domain.UpsertOutcome, error)
}
