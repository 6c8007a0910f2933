package geoadresse

// GeoJSON-ответ эндпоинта /search у api-adresse.data.gouv.fr
type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties featureProperties `json:"properties"`
}

type featureProperties struct {
	City     string `json:"city"`
	CityCode string `json:"citycode"`
	Postcode string `json:"postcode"`
}
