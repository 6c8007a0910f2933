package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"leboncoin-parser-service/internal/core/domain"
)

// fakeCityResolver отвечает заранее заданным кодом INSEE либо ошибкой.
type fakeCityResolver struct {
	inseeCode string
	err       error
}

func (f *fakeCityResolver) LookupInseeCode(ctx context.Context, cityName, zipcode string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.inseeCode, nil
}

func validRawAd() domain.RawAd {
	lat, lng := 48.8566, 2.3522
	return domain.RawAd{
		ListID:               json.Number("2501234567"),
		Subject:              "Maison 5 pièces 120 m²",
		Body:                 "Belle maison avec jardin.",
		URL:                  "https://www.leboncoin.fr/ad/ventes_immobilieres/2501234567",
		FirstPublicationDate: "2026-05-12 09:30:00",
		Status:               "active",
		Price:                json.RawMessage(`[450000]`),
		Owner:                domain.RawOwner{Type: "pro"},
		Location: domain.RawLocation{
			City:    "Bordeaux",
			Zipcode: "33000",
			Lat:     &lat,
			Lng:     &lng,
		},
		Attributes: []domain.RawAttribute{
			{Key: "real_estate_type", Value: "2", ValueLabel: "Maison"},
			{Key: "square", Value: "120", ValueLabel: "120"},
			{Key: "rooms", Value: "5", ValueLabel: "5"},
			{Key: "bedrooms", Value: "3", ValueLabel: "3 chambres"},
			{Key: "energy_rate", Value: "c", ValueLabel: "c"},
			{Key: "parking", Value: "true", ValueLabel: "Parking"},
		},
		Images: domain.RawImages{
			Urls:      []string{"https://img.leboncoin.fr/thumb/1.jpg"},
			UrlsLarge: []string{"https://img.leboncoin.fr/large/1.jpg"},
		},
	}
}

func TestNormalizeAdValid(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)

	listing, errs := uc.Execute(context.Background(), validRawAd())
	if len(errs) > 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}

	if listing.ID != 2501234567 {
		t.Errorf("ID = %d; want 2501234567", listing.ID)
	}
	if listing.Price != 450000 {
		t.Errorf("Price = %f; want 450000 (first element of price array)", listing.Price)
	}
	if listing.OwnerType != domain.OwnerProfessional {
		t.Errorf("OwnerType = %q; want professional", listing.OwnerType)
	}
	if listing.RealEstateType != domain.RealEstateHouse {
		t.Errorf("RealEstateType = %q; want House", listing.RealEstateType)
	}
	if listing.Bedrooms == nil || *listing.Bedrooms != 3 {
		t.Errorf("Bedrooms = %v; want 3 (first token of %q)", listing.Bedrooms, "3 chambres")
	}
	if listing.EnergyRate == nil || *listing.EnergyRate != "C" {
		t.Errorf("EnergyRate = %v; want C", listing.EnergyRate)
	}
	if listing.Parking == nil || !*listing.Parking {
		t.Errorf("Parking = %v; want true", listing.Parking)
	}
	if listing.LocationInseeCode != "33063" {
		t.Errorf("LocationInseeCode = %q; want 33063", listing.LocationInseeCode)
	}
	if len(listing.Images) != 1 || listing.Images[0] != "https://img.leboncoin.fr/large/1.jpg" {
		t.Errorf("Images = %v; want large preview to win over the small one", listing.Images)
	}
}

func TestNormalizeAdRequiredFields(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)

	tests := []struct {
		name      string
		mutate    func(*domain.RawAd)
		wantField string
	}{
		{"missing id", func(r *domain.RawAd) { r.ListID = "" }, "id"},
		{"empty title", func(r *domain.RawAd) { r.Subject = "" }, "title"},
		{"title too long", func(r *domain.RawAd) { r.Subject = strings.Repeat("x", 101) }, "title"},
		{"empty url", func(r *domain.RawAd) { r.URL = "" }, "url"},
		{"url too long", func(r *domain.RawAd) { r.URL = "https://" + strings.Repeat("x", 250) }, "url"},
		{"bad date", func(r *domain.RawAd) { r.FirstPublicationDate = "yesterday" }, "publication_date"},
		{"bad status", func(r *domain.RawAd) { r.Status = "pending" }, "status"},
		{"missing price", func(r *domain.RawAd) { r.Price = nil }, "price"},
		{"negative price", func(r *domain.RawAd) { r.Price = json.RawMessage(`-1`) }, "price"},
		{"latitude out of range", func(r *domain.RawAd) { v := 91.0; r.Location.Lat = &v }, "latitude"},
		{"longitude out of range", func(r *domain.RawAd) { v := -181.0; r.Location.Lng = &v }, "longitude"},
	}

	for _, tt := range tests {
		raw := validRawAd()
		tt.mutate(&raw)

		listing, errs := uc.Execute(context.Background(), raw)
		if listing != nil {
			t.Errorf("%s: expected rejection, got listing %d", tt.name, listing.ID)
			continue
		}
		if !hasFieldError(errs, tt.wantField) {
			t.Errorf("%s: expected error on field %q, got %v", tt.name, tt.wantField, errs)
		}
	}
}

func TestNormalizeAdPriceForms(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)

	tests := []struct {
		name  string
		price json.RawMessage
		want  float64
	}{
		{"numeric scalar", json.RawMessage(`325000`), 325000},
		{"numeric array", json.RawMessage(`[450000, 470000]`), 450000},
		{"string scalar with spaces", json.RawMessage(`"450 000"`), 450000},
		{"string with comma decimal", json.RawMessage(`"1 234,5"`), 1234.5},
		{"string array", json.RawMessage(`["325 000"]`), 325000},
	}

	for _, tt := range tests {
		raw := validRawAd()
		raw.Price = tt.price

		listing, errs := uc.Execute(context.Background(), raw)
		if len(errs) > 0 {
			t.Errorf("%s: unexpected validation errors: %v", tt.name, errs)
			continue
		}
		if listing.Price != tt.want {
			t.Errorf("%s: Price = %f; want %f", tt.name, listing.Price, tt.want)
		}
	}
}

// Лимит заголовка считается в символах, а не в байтах: заголовок
// с диакритикой короче 100 символов проходит, даже когда в UTF-8
// он длиннее 100 байт.
func TestNormalizeAdAccentedTitleLength(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)

	raw := validRawAd()
	raw.Subject = strings.Repeat("é", 60) // 60 символов, 120 байт

	listing, errs := uc.Execute(context.Background(), raw)
	if len(errs) > 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if listing.Title != raw.Subject {
		t.Errorf("Title = %q; want the accented title kept as is", listing.Title)
	}

	raw.Subject = strings.Repeat("é", 101)
	if listing, errs = uc.Execute(context.Background(), raw); !hasFieldError(errs, "title") {
		t.Errorf("101-char title: expected error on title, got %v / %v", listing, errs)
	}
}

func TestNormalizeAdEnumFallbacks(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)

	raw := validRawAd()
	raw.Owner.Type = "agence"
	raw.Attributes = []domain.RawAttribute{
		{Key: "real_estate_type", Value: "9", ValueLabel: "Loft"},
	}

	listing, errs := uc.Execute(context.Background(), raw)
	if len(errs) > 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if listing.OwnerType != domain.OwnerPrivate {
		t.Errorf("OwnerType = %q; want fallback private", listing.OwnerType)
	}
	if listing.RealEstateType != domain.RealEstateOther {
		t.Errorf("RealEstateType = %q; want fallback Other", listing.RealEstateType)
	}
}

func TestNormalizeAdUnknownCity(t *testing.T) {
	raw := validRawAd()

	// Нестрогий режим: объявление проходит с пустым кодом INSEE.
	lenient := NewNormalizeAdUseCase(&fakeCityResolver{err: domain.ErrCityNotFound}, false)
	listing, errs := lenient.Execute(context.Background(), raw)
	if len(errs) > 0 {
		t.Fatalf("lenient mode: unexpected validation errors: %v", errs)
	}
	if listing.LocationInseeCode != "" {
		t.Errorf("lenient mode: LocationInseeCode = %q; want empty", listing.LocationInseeCode)
	}

	// Строгий режим: то же объявление отклоняется.
	strict := NewNormalizeAdUseCase(&fakeCityResolver{err: domain.ErrCityNotFound}, true)
	listing, errs = strict.Execute(context.Background(), raw)
	if listing != nil {
		t.Fatal("strict mode: expected rejection for unregistered city")
	}
	if !hasFieldError(errs, "location_inseecode") {
		t.Errorf("strict mode: expected error on location_inseecode, got %v", errs)
	}
}

func TestNormalizeAdCityLookupFailure(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{err: errors.New("connection refused")}, false)

	listing, errs := uc.Execute(context.Background(), validRawAd())
	if listing != nil {
		t.Fatal("expected rejection on infrastructure failure")
	}
	if !hasFieldError(errs, "location_inseecode") {
		t.Errorf("expected error on location_inseecode, got %v", errs)
	}
}

func TestNormalizeAdStrictRequiresImages(t *testing.T) {
	raw := validRawAd()
	raw.Images = domain.RawImages{}

	lenient := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)
	if listing, errs := lenient.Execute(context.Background(), raw); len(errs) > 0 || len(listing.Images) != 0 {
		t.Fatalf("lenient mode: want empty image list without errors, got %v / %v", listing, errs)
	}

	strict := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, true)
	listing, errs := strict.Execute(context.Background(), raw)
	if listing != nil {
		t.Fatal("strict mode: expected rejection for missing images")
	}
	if !hasFieldError(errs, "images") {
		t.Errorf("strict mode: expected error on images, got %v", errs)
	}
}

func TestNormalizeAdNegativeAttributes(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)

	raw := validRawAd()
	raw.Attributes = append(raw.Attributes, domain.RawAttribute{Key: "land_plot_surface", Value: "-50", ValueLabel: "-50"})

	listing, errs := uc.Execute(context.Background(), raw)
	if listing != nil {
		t.Fatal("expected rejection for negative surface")
	}
	if !hasFieldError(errs, "land_surface") {
		t.Errorf("expected error on land_surface, got %v", errs)
	}
}

// FloorNumber намеренно без проверки знака: подвалы бывают.
func TestNormalizeAdNegativeFloorAllowed(t *testing.T) {
	uc := NewNormalizeAdUseCase(&fakeCityResolver{inseeCode: "33063"}, false)

	raw := validRawAd()
	raw.Attributes = append(raw.Attributes, domain.RawAttribute{Key: "floor_number", Value: "-1", ValueLabel: "-1"})

	listing, errs := uc.Execute(context.Background(), raw)
	if len(errs) > 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if listing.FloorNumber == nil || *listing.FloorNumber != -1 {
		t.Errorf("FloorNumber = %v; want -1", listing.FloorNumber)
	}
}

func hasFieldError(errs domain.ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
