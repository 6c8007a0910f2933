package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"leboncoin-parser-service/internal/core/domain"
)

// fakeListingStorage записывает вызовы и отвечает подготовленными данными.
type fakeListingStorage struct {
	existing *domain.Listing
	findErr  error

	inserted []domain.Listing
	updated  []domain.Listing

	insertErr error
	updateErr error

	knownKeys domain.KnownKeys
	knownErr  error
}

func (f *fakeListingStorage) FindByAnyKey(ctx context.Context, id int64, url, title string) (*domain.Listing, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.existing, nil
}

func (f *fakeListingStorage) InsertWithImages(ctx context.Context, listing domain.Listing) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, listing)
	return nil
}

func (f *fakeListingStorage) Update(ctx context.Context, listing domain.Listing) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, listing)
	return nil
}

func (f *fakeListingStorage) ListKnownKeys(ctx context.Context, inseeCode string) (domain.KnownKeys, error) {
	if f.knownErr != nil {
		return domain.KnownKeys{}, f.knownErr
	}
	return f.knownKeys, nil
}

func sampleListing() domain.Listing {
	return domain.Listing{
		ID:                2501234567,
		Title:             "Maison 5 pièces 120 m²",
		Description:       "Belle maison avec jardin.",
		URL:               "https://www.leboncoin.fr/ad/ventes_immobilieres/2501234567",
		PublicationDate:   time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC),
		Status:            domain.StatusActive,
		Price:             450000,
		OwnerType:         domain.OwnerProfessional,
		RealEstateType:    domain.RealEstateHouse,
		LocationCity:      "Bordeaux",
		LocationInseeCode: "33063",
		Images:            []string{"https://img.leboncoin.fr/large/1.jpg"},
	}
}

func TestUpsertInsertsNewListing(t *testing.T) {
	storage := &fakeListingStorage{}
	uc := NewUpsertListingUseCase(storage)

	outcome, err := uc.Execute(context.Background(), sampleListing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != domain.OutcomeInserted {
		t.Errorf("outcome = %q; want inserted", outcome)
	}
	if len(storage.inserted) != 1 {
		t.Fatalf("inserted %d listings; want 1", len(storage.inserted))
	}
	if len(storage.updated) != 0 {
		t.Errorf("updated %d listings; want 0", len(storage.updated))
	}
}

func TestUpsertRejectsSingleKeyMatch(t *testing.T) {
	// Совпал только заголовок - это другое объявление с таким же названием.
	stored := sampleListing()
	stored.ID = 999
	stored.URL = "https://www.leboncoin.fr/ad/ventes_immobilieres/999"

	storage := &fakeListingStorage{existing: &stored}
	uc := NewUpsertListingUseCase(storage)

	outcome, err := uc.Execute(context.Background(), sampleListing())
	if !errors.Is(err, domain.ErrIdentityAmbiguous) {
		t.Fatalf("err = %v; want ErrIdentityAmbiguous", err)
	}
	if outcome != domain.OutcomeRejected {
		t.Errorf("outcome = %q; want rejected", outcome)
	}
	if len(storage.inserted)+len(storage.updated) != 0 {
		t.Error("storage must not be written on ambiguous identity")
	}
}

// Двух совпавших ключей из трех достаточно: сменившийся заголовок
// при стабильных id и url - то же объявление, переименованное продавцом.
func TestUpsertAcceptsTwoKeyMatch(t *testing.T) {
	stored := sampleListing()
	storage := &fakeListingStorage{existing: &stored}
	uc := NewUpsertListingUseCase(storage)

	candidate := sampleListing()
	candidate.Title = "Maison rénovée 5 pièces 120 m²"

	outcome, err := uc.Execute(context.Background(), candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != domain.OutcomeUpdated {
		t.Errorf("outcome = %q; want updated", outcome)
	}
	if len(storage.updated) != 1 {
		t.Fatalf("updated %d listings; want 1", len(storage.updated))
	}
	if got := storage.updated[0]; got.Title != candidate.Title {
		t.Errorf("Title = %q; want the candidate's new title %q", got.Title, candidate.Title)
	}
	if len(storage.inserted) != 0 {
		t.Errorf("inserted %d listings; want 0", len(storage.inserted))
	}
}

func TestUpsertMovesPriceToOldPrice(t *testing.T) {
	stored := sampleListing()
	storage := &fakeListingStorage{existing: &stored}
	uc := NewUpsertListingUseCase(storage)

	candidate := sampleListing()
	candidate.Price = 430000

	outcome, err := uc.Execute(context.Background(), candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != domain.OutcomeUpdated {
		t.Errorf("outcome = %q; want updated", outcome)
	}
	if len(storage.updated) != 1 {
		t.Fatalf("updated %d listings; want 1", len(storage.updated))
	}

	got := storage.updated[0]
	if got.Price != 430000 {
		t.Errorf("Price = %f; want 430000", got.Price)
	}
	if got.OldPrice == nil || *got.OldPrice != 450000 {
		t.Errorf("OldPrice = %v; want previous price 450000", got.OldPrice)
	}
}

func TestUpsertKeepsOldPriceOnePriceChangeDeep(t *testing.T) {
	// Повторное изменение цены перезаписывает OldPrice, а не наращивает историю.
	prev := 470000.0
	stored := sampleListing()
	stored.OldPrice = &prev

	storage := &fakeListingStorage{existing: &stored}
	uc := NewUpsertListingUseCase(storage)

	candidate := sampleListing()
	candidate.Price = 430000

	if _, err := uc.Execute(context.Background(), candidate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := storage.updated[0]
	if got.OldPrice == nil || *got.OldPrice != 450000 {
		t.Errorf("OldPrice = %v; want 450000 (the immediately preceding price)", got.OldPrice)
	}
}

func TestUpsertIdenticalCandidateSkipsWrite(t *testing.T) {
	stored := sampleListing()
	storage := &fakeListingStorage{existing: &stored}
	uc := NewUpsertListingUseCase(storage)

	outcome, err := uc.Execute(context.Background(), sampleListing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != domain.OutcomeUpdated {
		t.Errorf("outcome = %q; want updated", outcome)
	}
	if len(storage.updated) != 0 {
		t.Errorf("updated %d listings; identical candidate must not touch storage", len(storage.updated))
	}
}

func TestUpsertAddsOnlyMissingImages(t *testing.T) {
	stored := sampleListing()
	storage := &fakeListingStorage{existing: &stored}
	uc := NewUpsertListingUseCase(storage)

	candidate := sampleListing()
	candidate.Images = []string{
		"https://img.leboncoin.fr/large/1.jpg", // уже в базе
		"https://img.leboncoin.fr/large/2.jpg",
	}

	if _, err := uc.Execute(context.Background(), candidate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storage.updated) != 1 {
		t.Fatalf("updated %d listings; want 1", len(storage.updated))
	}

	got := storage.updated[0]
	if len(got.Images) != 1 || got.Images[0] != "https://img.leboncoin.fr/large/2.jpg" {
		t.Errorf("Images = %v; want only the new image", got.Images)
	}
}

func TestUpsertPropagatesStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")

	uc := NewUpsertListingUseCase(&fakeListingStorage{findErr: boom})
	if outcome, err := uc.Execute(context.Background(), sampleListing()); !errors.Is(err, boom) || outcome != domain.OutcomeRejected {
		t.Errorf("find failure: outcome=%q err=%v; want rejected with wrapped error", outcome, err)
	}

	uc = NewUpsertListingUseCase(&fakeListingStorage{insertErr: boom})
	if outcome, err := uc.Execute(context.Background(), sampleListing()); !errors.Is(err, boom) || outcome != domain.OutcomeRejected {
		t.Errorf("insert failure: outcome=%q err=%v; want rejected with wrapped error", outcome, err)
	}
}
