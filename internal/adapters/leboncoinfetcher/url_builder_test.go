package leboncoinfetcher

import (
	"testing"

	"leboncoin-parser-service/internal/core/domain"
)

func TestBuildCitySearchURL(t *testing.T) {
	adapter, err := NewLeboncoinFetcherAdapter("", 3)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}

	tests := []struct {
		city domain.City
		want string
	}{
		{
			city: domain.City{CityName: "Bordeaux", Zipcode: "33000"},
			want: "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Bordeaux_33000",
		},
		{
			city: domain.City{CityName: "Évry-Courcouronnes", Zipcode: "91000"},
			want: "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Evry-Courcouronnes_91000",
		},
		{
			city: domain.City{CityName: "Saint Étienne", Zipcode: "42000"},
			want: "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Saint-Etienne_42000",
		},
		{
			city: domain.City{CityName: "  Besançon ", Zipcode: " 25000"},
			want: "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Besancon_25000",
		},
	}

	for _, tt := range tests {
		got := adapter.BuildCitySearchURL(tt.city)
		if got != tt.want {
			t.Errorf("BuildCitySearchURL(%q, %q) = %q; want %q", tt.city.CityName, tt.city.Zipcode, got, tt.want)
		}
	}
}

func TestBuildPaginatedURL(t *testing.T) {
	tests := []struct {
		baseURL string
		page    int
		want    string
	}{
		{
			baseURL: "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Bordeaux_33000",
			page:    1,
			want:    "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Bordeaux_33000?page=1",
		},
		{
			baseURL: "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Bordeaux_33000?page=4",
			page:    5,
			want:    "https://www.leboncoin.fr/cl/ventes_immobilieres/cp_Bordeaux_33000?page=5",
		},
	}

	for _, tt := range tests {
		got, err := buildPaginatedURL(tt.baseURL, tt.page)
		if err != nil {
			t.Errorf("buildPaginatedURL(%q, %d) returned error: %v", tt.baseURL, tt.page, err)
			continue
		}
		if got != tt.want {
			t.Errorf("buildPaginatedURL(%q, %d) = %q; want %q", tt.baseURL, tt.page, got, tt.want)
		}
	}
}

func TestStripAccents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Besançon", "Besancon"},
		{"Évry", "Evry"},
		{"Nîmes", "Nimes"},
		{"Orléans", "Orleans"},
		{"Paris", "Paris"},
	}

	for _, tt := range tests {
		if got := stripAccents(tt.in); got != tt.want {
			t.Errorf("stripAccents(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
