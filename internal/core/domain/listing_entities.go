package domain

import (
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const (
	OwnerProfessional = "professional"
	OwnerPrivate      = "private"
)

// Канонические типы недвижимости (значения enum в БД).
const (
	RealEstateApartment = "Apartment"
	RealEstateHouse     = "House"
	RealEstateOther     = "Other"
	RealEstateParking   = "Parking"
	RealEstateLand      = "Land"
)

// Listing - каноническое представление одного объявления.
// Соответствует таблице `annonces`.
type Listing struct {
	ID              int64  // идентификатор объявления на стороне источника
	Title           string // обязательное, не длиннее 100 символов
	Description     string
	URL             string // обязательное, не длиннее 255 символов
	PublicationDate time.Time
	Status          string // active | inactive
	Price           float64
	OldPrice        *float64 // предыдущая цена, заполняется при изменении Price
	ImmoSellType    *string
	OwnerType       string // professional | private
	RealEstateType  string // Apartment | House | Other | Parking | Land

	Square           *float64
	Rooms            *int
	Bedrooms         *int
	Bathrooms        *int
	EnergyRate       *string // одна буква A-G
	GES              *string // одна буква A-G
	LandSurface      *float64
	FloorNumber      *int
	NbFloorsBuilding *int
	BuildingYear     *int
	AnnualCharges    *float64

	// Удобства: nil - неизвестно, иначе известное значение.
	Parking      *bool
	Cellar       *bool
	SwimmingPool *bool
	Elevator     *bool
	FaiIncluded  *bool

	Equipments    *string
	OutsideAccess *string

	Latitude  *float64
	Longitude *float64

	LocationCity      string
	LocationInseeCode string // код INSEE коммуны; пустой, если город не распознан (только в нестрогом режиме)

	// Упорядоченный список URL изображений. Строки таблицы `images`
	// создаются вместе с новым объявлением и далее только добавляются.
	Images []string
}

// Image - одна строка таблицы `images`. Принадлежит ровно одному объявлению,
// пара (ad_id, url) уникальна.
type Image struct {
	ID   int64
	AdID int64
	URL  string
}

// City - справочная запись коммуны, заполняется при онбординге почтового индекса.
type City struct {
	Zipcode   string
	InseeCode string
	CityName  string
}

// CityURL - поисковый URL leboncoin, закрепленный за коммуной.
type CityURL struct {
	InseeCode string
	URL       string
}

// KnownKeys - множество идентификаторов уже сохраненных объявлений,
// загружается один раз перед обходом города для ранней остановки пагинации.
type KnownKeys struct {
	IDs  map[int64]struct{}
	URLs map[string]struct{}
}

// Contains сообщает, известно ли объявление хотя бы по одному из ключей.
func (k KnownKeys) Contains(id int64, url string) bool {
	if _, ok := k.IDs[id]; ok {
		return true
	}
	_, ok := k.URLs[url]
	return ok
}

// UpsertOutcome - решение движка идемпотентной записи по одному кандидату.
type UpsertOutcome string

const (
	OutcomeInserted UpsertOutcome = "inserted"
	OutcomeUpdated  UpsertOutcome = "updated"
	OutcomeRejected UpsertOutcome = "rejected"
)
