package domain

import "encoding/json"

// RawAd - одно объявление в том виде, в каком оно лежит в гидрационном
// JSON страницы выдачи. Никаких гарантий: любое поле может отсутствовать.
// Живет только до нормализации и в БД не попадает.
type RawAd struct {
	ListID               json.Number     `json:"list_id"`
	Subject              string          `json:"subject"`
	Body                 string          `json:"body"`
	URL                  string          `json:"url"`
	FirstPublicationDate string          `json:"first_publication_date"`
	Status               string          `json:"status"`
	Price                json.RawMessage `json:"price"` // скаляр либо массив, берем первый элемент
	Owner                RawOwner        `json:"owner"`
	Location             RawLocation     `json:"location"`
	Attributes           []RawAttribute  `json:"attributes"`
	Images               RawImages       `json:"images"`
}

// RawAttribute - тройка {key, value, value_label} из массива attributes.
type RawAttribute struct {
	Key        string      `json:"key"`
	Value      interface{} `json:"value"`
	ValueLabel string      `json:"value_label"`
}

type RawOwner struct {
	Type string `json:"type"` // "pro" | "particulier"
}

type RawLocation struct {
	City    string   `json:"city"`
	Zipcode string   `json:"zipcode"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

type RawImages struct {
	Urls      []string `json:"urls"`
	UrlsLarge []string `json:"urls_large"`
}

// AttributeValues - значения одного атрибута после сворачивания списка троек в карту.
type AttributeValues struct {
	Value      interface{}
	ValueLabel string
}

// FlattenAttributes сворачивает список троек в карту key -> значения
// для доступа за O(1) при нормализации.
func FlattenAttributes(attrs []RawAttribute) map[string]AttributeValues {
	m := make(map[string]AttributeValues, len(attrs))
	for _, a := range attrs {
		m[a.Key] = AttributeValues{Value: a.Value, ValueLabel: a.ValueLabel}
	}
	return m
}
