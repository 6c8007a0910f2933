package constants

// Базовые адреса leboncoin.
const (
	LeboncoinRoot = "https://www.leboncoin.fr"
	// Формат поискового URL коммуны: cp_<Город>_<индекс> (категория "продажа недвижимости").
	CitySearchURLFormat = LeboncoinRoot + "/cl/ventes_immobilieres/cp_%s_%s"
)

// RealEstateTypeMap - соответствие подписей источника каноническому enum.
// Поиск точный, все ненайденное уходит в Other.
var RealEstateTypeMap = map[string]string{
	"Appartement": "Apartment",
	"Maison":      "House",
	"Autre":       "Other",
	"Parking":     "Parking",
	"Terrain":     "Land",
}

// OwnerTypeMap - тип владельца объявления; по умолчанию частник.
var OwnerTypeMap = map[string]string{
	"pro":         "professional",
	"particulier": "private",
}

// Форматы даты публикации, встречающиеся в гидрационном JSON.
var PublicationDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}
