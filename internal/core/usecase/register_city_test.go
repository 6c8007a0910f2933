package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"leboncoin-parser-service/internal/core/domain"
)

// fakeMunicipalityLookup отвечает подготовленным списком коммун.
type fakeMunicipalityLookup struct {
	cities []domain.City
	err    error
}

func (f *fakeMunicipalityLookup) LookupByPostalCode(ctx context.Context, postalCode string) ([]domain.City, error) {
	return f.cities, f.err
}

// fakeURLBuilder строит предсказуемые URL и валит проверку для выбранных из них.
type fakeURLBuilder struct {
	failVerify map[string]struct{} // URL, не прошедшие проверку
}

func (f *fakeURLBuilder) BuildCitySearchURL(city domain.City) string {
	return fmt.Sprintf("https://www.leboncoin.fr/cl/ventes_immobilieres/cp_%s_%s", city.CityName, city.Zipcode)
}

func (f *fakeURLBuilder) VerifySearchURL(ctx context.Context, url string) error {
	if _, ok := f.failVerify[url]; ok {
		return errors.New("unexpected page markup")
	}
	return nil
}

// recordingCityRepo запоминает сохраненные коммуны и URL.
type recordingCityRepo struct {
	cities []domain.City
	urls   []domain.CityURL

	cityErr error
	urlErr  error
}

func (r *recordingCityRepo) UpsertCity(ctx context.Context, city domain.City) error {
	if r.cityErr != nil {
		return r.cityErr
	}
	r.cities = append(r.cities, city)
	return nil
}

func (r *recordingCityRepo) UpsertCityURL(ctx context.Context, url domain.CityURL) error {
	if r.urlErr != nil {
		return r.urlErr
	}
	r.urls = append(r.urls, url)
	return nil
}

func (r *recordingCityRepo) GetCrawlURL(ctx context.Context, inseeCode string) (string, error) {
	return "", domain.ErrCityNotFound
}

func TestRegisterCityRegistersAllMunicipalities(t *testing.T) {
	// Один почтовый индекс - несколько коммун.
	lookup := &fakeMunicipalityLookup{cities: []domain.City{
		{Zipcode: "29200", InseeCode: "29019", CityName: "Brest"},
		{Zipcode: "29200", InseeCode: "29075", CityName: "Gouesnou"},
	}}
	repo := &recordingCityRepo{}
	uc := NewRegisterCityUseCase(lookup, &fakeURLBuilder{}, repo)

	registered, err := uc.Execute(context.Background(), "29200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(registered) != 2 {
		t.Fatalf("registered %d cities; want 2", len(registered))
	}
	if len(repo.cities) != 2 || len(repo.urls) != 2 {
		t.Errorf("persisted %d cities and %d urls; want 2 and 2", len(repo.cities), len(repo.urls))
	}
	if registered[0].InseeCode != "29019" {
		t.Errorf("first registered insee code = %q; want 29019", registered[0].InseeCode)
	}
}

func TestRegisterCityUnknownPostalCode(t *testing.T) {
	uc := NewRegisterCityUseCase(&fakeMunicipalityLookup{}, &fakeURLBuilder{}, &recordingCityRepo{})

	_, err := uc.Execute(context.Background(), "00000")
	if !errors.Is(err, domain.ErrCityNotFound) {
		t.Fatalf("err = %v; want ErrCityNotFound", err)
	}
}

func TestRegisterCityLookupFailure(t *testing.T) {
	boom := errors.New("gateway timeout")
	uc := NewRegisterCityUseCase(&fakeMunicipalityLookup{err: boom}, &fakeURLBuilder{}, &recordingCityRepo{})

	_, err := uc.Execute(context.Background(), "29200")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want wrapped lookup error", err)
	}
}

func TestRegisterCitySkipsUnverifiableURL(t *testing.T) {
	lookup := &fakeMunicipalityLookup{cities: []domain.City{
		{Zipcode: "29200", InseeCode: "29019", CityName: "Brest"},
		{Zipcode: "29200", InseeCode: "29075", CityName: "Gouesnou"},
	}}
	repo := &recordingCityRepo{}
	builder := &fakeURLBuilder{failVerify: map[string]struct{}{
		"https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Gouesnou_29200": {},
	}}
	uc := NewRegisterCityUseCase(lookup, builder, repo)

	registered, err := uc.Execute(context.Background(), "29200")
	if err != nil {
		t.Fatalf("unverifiable URL must not fail the whole registration: %v", err)
	}
	if len(registered) != 1 || registered[0].InseeCode != "29019" {
		t.Errorf("registered = %v; want only Brest", registered)
	}
	if len(repo.cities) != 1 {
		t.Errorf("persisted %d cities; skipped city must not be stored", len(repo.cities))
	}
}

func TestRegisterCityStorageFailureReturnsPartial(t *testing.T) {
	lookup := &fakeMunicipalityLookup{cities: []domain.City{
		{Zipcode: "29200", InseeCode: "29019", CityName: "Brest"},
	}}
	uc := NewRegisterCityUseCase(lookup, &fakeURLBuilder{}, &recordingCityRepo{cityErr: errors.New("disk full")})

	registered, err := uc.Execute(context.Background(), "29200")
	if err == nil {
		t.Fatal("expected storage error to propagate")
	}
	if len(registered) != 0 {
		t.Errorf("registered = %v; want empty partial result", registered)
	}
}
