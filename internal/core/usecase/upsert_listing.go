package usecase

import (
	"context"
	"fmt"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"
)

// UpsertListingUseCase решает судьбу провалидированного кандидата:
// вставка нового объявления или обновление существующего.
// Идентичность определяется правилом "2 из 3" по ключам (id, url, title).
type UpsertListingUseCase struct {
	storage port.ListingStoragePort
}

// NewUpsertListingUseCase создает новый экземпляр use case.
func NewUpsertListingUseCase(storage port.ListingStoragePort) *UpsertListingUseCase {
	return &UpsertListingUseCase{storage: storage}
}

// Execute применяет кандидата к хранилищу. На один логический объект
// в БД остается не больше одной строки.
func (uc *UpsertListingUseCase) Execute(ctx context.Context, candidate domain.Listing) (domain.UpsertOutcome, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "UpsertListing",
		"ad_id":    candidate.ID,
	})

	// Дизъюнктивный поиск: id ИЛИ url ИЛИ title. Запрос намеренно широкий,
	// чтобы пережить смену id или url на стороне сайта.
	existing, err := uc.storage.FindByAnyKey(ctx, candidate.ID, candidate.URL, candidate.Title)
	if err != nil {
		ucLogger.Error("Failed to look up existing listing", err, nil)
		return domain.OutcomeRejected, fmt.Errorf("failed to look up listing %d: %w", candidate.ID, err)
	}

	if existing == nil {
		if err := uc.storage.InsertWithImages(ctx, candidate); err != nil {
			ucLogger.Error("Failed to insert new listing", err, nil)
			return domain.OutcomeRejected, fmt.Errorf("failed to insert listing %d: %w", candidate.ID, err)
		}
		ucLogger.Info("Inserted new listing", port.Fields{"image_count": len(candidate.Images)})
		return domain.OutcomeInserted, nil
	}

	// Что-то совпало. Одного совпадения (например, только заголовка у другого
	// объявления) недостаточно - требуем согласия минимум двух ключей из трех.
	matches := 0
	if existing.ID == candidate.ID {
		matches++
	}
	if existing.URL == candidate.URL {
		matches++
	}
	if existing.Title == candidate.Title {
		matches++
	}
	if matches < 2 {
		ucLogger.Warn("Partial identity match, rejecting ad for manual review", port.Fields{
			"stored_id":   existing.ID,
			"stored_url":  existing.URL,
			"match_count": matches,
		})
		return domain.OutcomeRejected, domain.ErrIdentityAmbiguous
	}

	updated, changed := mergeListing(*existing, candidate)

	newImages := missingImages(existing.Images, candidate.Images)
	if len(newImages) == 0 && !changed {
		// Повторный прогон того же кандидата: ничего не пишем,
		// чтобы не плодить ложных переносов цены в old_price.
		ucLogger.Debug("Candidate is identical to stored listing, nothing to update", nil)
		return domain.OutcomeUpdated, nil
	}

	updated.Images = newImages
	if err := uc.storage.Update(ctx, updated); err != nil {
		ucLogger.Error("Failed to update listing", err, nil)
		return domain.OutcomeRejected, fmt.Errorf("failed to update listing %d: %w", existing.ID, err)
	}

	ucLogger.Info("Updated existing listing", port.Fields{"new_image_count": len(newImages)})
	return domain.OutcomeUpdated, nil
}

// mergeListing накладывает кандидата на сохраненную запись.
// Все поля, кроме цены и изображений, просто перезаписываются.
// Цена особая: при изменении старое значение уходит в OldPrice
// (одношаговая история, а не полный журнал).
func mergeListing(stored, candidate domain.Listing) (domain.Listing, bool) {
	merged := candidate
	// Первичный ключ строки не меняется: Update адресует запись по нему.
	merged.ID = stored.ID
	merged.OldPrice = stored.OldPrice

	if stored.Price != candidate.Price {
		prev := stored.Price
		merged.OldPrice = &prev
	}

	merged.Images = nil
	probe := stored
	probe.Images = nil
	probe.OldPrice = merged.OldPrice
	changed := !listingsEqual(probe, merged)

	return merged, changed
}

// listingsEqual сравнивает записи по значениям полей (без изображений).
func listingsEqual(a, b domain.Listing) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.URL == b.URL &&
		a.PublicationDate.Equal(b.PublicationDate) &&
		a.Status == b.Status &&
		a.Price == b.Price &&
		floatPtrEqual(a.OldPrice, b.OldPrice) &&
		stringPtrEqual(a.ImmoSellType, b.ImmoSellType) &&
		a.OwnerType == b.OwnerType &&
		a.RealEstateType == b.RealEstateType &&
		floatPtrEqual(a.Square, b.Square) &&
		intPtrEqual(a.Rooms, b.Rooms) &&
		intPtrEqual(a.Bedrooms, b.Bedrooms) &&
		intPtrEqual(a.Bathrooms, b.Bathrooms) &&
		stringPtrEqual(a.EnergyRate, b.EnergyRate) &&
		stringPtrEqual(a.GES, b.GES) &&
		floatPtrEqual(a.LandSurface, b.LandSurface) &&
		intPtrEqual(a.FloorNumber, b.FloorNumber) &&
		intPtrEqual(a.NbFloorsBuilding, b.NbFloorsBuilding) &&
		intPtrEqual(a.BuildingYear, b.BuildingYear) &&
		floatPtrEqual(a.AnnualCharges, b.AnnualCharges) &&
		boolPtrEqual(a.Parking, b.Parking) &&
		boolPtrEqual(a.Cellar, b.Cellar) &&
		boolPtrEqual(a.SwimmingPool, b.SwimmingPool) &&
		boolPtrEqual(a.Elevator, b.Elevator) &&
		boolPtrEqual(a.FaiIncluded, b.FaiIncluded) &&
		stringPtrEqual(a.Equipments, b.Equipments) &&
		stringPtrEqual(a.OutsideAccess, b.OutsideAccess) &&
		floatPtrEqual(a.Latitude, b.Latitude) &&
		floatPtrEqual(a.Longitude, b.Longitude) &&
		a.LocationCity == b.LocationCity &&
		a.LocationInseeCode == b.LocationInseeCode
}

// missingImages возвращает URL кандидата, которых еще нет у сохраненной записи.
// Изображения только добавляются, существующие строки никогда не трогаются.
func missingImages(stored, candidate []string) []string {
	known := make(map[string]struct{}, len(stored))
	for _, u := range stored {
		known[u] = struct{}{}
	}
	var missing []string
	for _, u := range candidate {
		if _, ok := known[u]; !ok {
			missing = append(missing, u)
		}
	}
	return missing
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
