package usecase

import (
	"context"
	"bytes"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"leboncoin-parser-service/internal/constants"
	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/coerce"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"
)

const (
	maxTitleLen = 100
	maxURLLen   = 255
)

// NormalizeAdUseCase приводит сырое объявление к каноническому Listing.
// Всё приведение типов идет через пакет coerce; неизвестные атрибуты
// оставляют поле незаполненным (nil), а не нулевым.
type NormalizeAdUseCase struct {
	cityResolver port.CityResolverPort
	strict       bool
}

// NewNormalizeAdUseCase создает новый экземпляр use case.
// strict - отклонять ли объявления без кода INSEE и без изображений.
func NewNormalizeAdUseCase(cityResolver port.CityResolverPort, strict bool) *NormalizeAdUseCase {
	return &NormalizeAdUseCase{
		cityResolver: cityResolver,
		strict:       strict,
	}
}

// Execute выполняет нормализацию и валидацию одного объявления.
// Либо возвращается кандидат, удовлетворяющий всем ограничениям схемы,
// либо непустой список ошибок - частично валидных Listing не бывает.
func (uc *NormalizeAdUseCase) Execute(ctx context.Context, raw domain.RawAd) (*domain.Listing, domain.ValidationErrors) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "NormalizeAd",
		"ad_id":    raw.ListID.String(),
	})

	var errs domain.ValidationErrors

	listing := &domain.Listing{
		Title:       raw.Subject,
		Description: raw.Body,
		URL:         raw.URL,
		Status:      raw.Status,
	}

	if id := coerce.ToInt(raw.ListID); id != nil && *id > 0 {
		listing.ID = int64(*id)
	} else {
		errs.Add("id", "missing or non-positive source id")
	}

	// Лимиты считаются в символах, как VARCHAR в БД, а не в байтах:
	// французские заголовки с диакритикой длиннее в UTF-8.
	if raw.Subject == "" {
		errs.Add("title", "required field is empty")
	} else if utf8.RuneCountInString(raw.Subject) > maxTitleLen {
		errs.Add("title", "exceeds maximum length of 100")
	}

	if raw.URL == "" {
		errs.Add("url", "required field is empty")
	} else if utf8.RuneCountInString(raw.URL) > maxURLLen {
		errs.Add("url", "exceeds maximum length of 255")
	}

	if pubDate, ok := parsePublicationDate(raw.FirstPublicationDate); ok {
		listing.PublicationDate = pubDate
	} else {
		errs.Add("publication_date", "missing or unparseable")
	}

	if raw.Status != domain.StatusActive && raw.Status != domain.StatusInactive {
		errs.Add("status", "must be active or inactive")
	}

	if price := extractPrice(raw.Price); price != nil && *price >= 0 {
		listing.Price = *price
	} else if price != nil {
		errs.Add("price", "must be non-negative")
	} else {
		errs.Add("price", "missing or non-numeric")
	}

	listing.OwnerType = coerce.MapEnum(raw.Owner.Type, constants.OwnerTypeMap, domain.OwnerPrivate)

	// Сворачиваем тройки атрибутов в карту и раскладываем по полям.
	attrs := domain.FlattenAttributes(raw.Attributes)

	listing.RealEstateType = coerce.MapEnum(attrLabel(attrs, "real_estate_type"), constants.RealEstateTypeMap, domain.RealEstateOther)

	listing.Square = nonNegativeFloat(coerce.ToFloat(attrLabel(attrs, "square")), "square", &errs)
	listing.Rooms = nonNegativeInt(coerce.ToInt(attrLabel(attrs, "rooms")), "rooms", &errs)
	// Подпись вида "3 chambres" - берем первый токен.
	listing.Bedrooms = nonNegativeInt(coerce.FirstInt(attrLabel(attrs, "bedrooms")), "bedrooms", &errs)
	listing.Bathrooms = nonNegativeInt(coerce.ToInt(attrLabel(attrs, "bathrooms")), "bathrooms", &errs)
	listing.LandSurface = nonNegativeFloat(coerce.ToFloat(attrLabel(attrs, "land_plot_surface")), "land_surface", &errs)
	listing.FloorNumber = coerce.ToInt(attrLabel(attrs, "floor_number"))
	listing.NbFloorsBuilding = nonNegativeInt(coerce.ToInt(attrLabel(attrs, "nb_floors_building")), "nb_floors_building", &errs)
	listing.BuildingYear = nonNegativeInt(coerce.ToInt(attrLabel(attrs, "building_year")), "building_year", &errs)
	listing.AnnualCharges = nonNegativeFloat(coerce.ToFloat(attrLabel(attrs, "annual_charges")), "annual_charges", &errs)
	listing.OldPrice = nonNegativeFloat(coerce.ToFloat(attrLabel(attrs, "old_price")), "old_price", &errs)

	if v, ok := attrs["energy_rate"]; ok {
		listing.EnergyRate = coerce.LetterGrade(v.ValueLabel)
	}
	if v, ok := attrs["ges"]; ok {
		listing.GES = coerce.LetterGrade(v.ValueLabel)
	}

	listing.Parking = coerce.ToBool(attrValue(attrs, "parking"))
	listing.Cellar = coerce.ToBool(attrValue(attrs, "cellar"))
	listing.SwimmingPool = coerce.ToBool(attrValue(attrs, "swimming_pool"))
	listing.Elevator = coerce.ToBool(attrValue(attrs, "elevator"))
	listing.FaiIncluded = coerce.ToBool(attrValue(attrs, "fai_included"))

	listing.Equipments = optionalString(attrLabel(attrs, "equipments"))
	listing.OutsideAccess = optionalString(attrLabel(attrs, "outside_access"))
	listing.ImmoSellType = optionalString(attrLabel(attrs, "immo_sell_type"))

	if raw.Location.Lat != nil {
		if *raw.Location.Lat < -90 || *raw.Location.Lat > 90 {
			errs.Add("latitude", "out of range")
		} else {
			listing.Latitude = raw.Location.Lat
		}
	}
	if raw.Location.Lng != nil {
		if *raw.Location.Lng < -180 || *raw.Location.Lng > 180 {
			errs.Add("longitude", "out of range")
		} else {
			listing.Longitude = raw.Location.Lng
		}
	}

	listing.LocationCity = raw.Location.City

	// Крупные превью предпочтительнее, обычные - запасной вариант.
	if len(raw.Images.UrlsLarge) > 0 {
		listing.Images = raw.Images.UrlsLarge
	} else {
		listing.Images = raw.Images.Urls
	}
	if len(listing.Images) == 0 && uc.strict {
		errs.Add("images", "at least one image is required")
	}

	// Разрешение кода INSEE через справочник коммун.
	if raw.Location.City != "" && raw.Location.Zipcode != "" {
		inseeCode, err := uc.cityResolver.LookupInseeCode(ctx, raw.Location.City, raw.Location.Zipcode)
		switch {
		case err == nil:
			listing.LocationInseeCode = inseeCode
		case errors.Is(err, domain.ErrCityNotFound):
			if uc.strict {
				errs.Add("location_inseecode", "city is not registered")
			} else {
				ucLogger.Warn("City not found in registry, keeping ad without INSEE code", port.Fields{
					"city":    raw.Location.City,
					"zipcode": raw.Location.Zipcode,
				})
			}
		default:
			errs.Add("location_inseecode", "city lookup failed: "+err.Error())
		}
	} else if uc.strict {
		errs.Add("location_inseecode", "city name and zipcode are required")
	}

	if len(errs) > 0 {
		ucLogger.Debug("Ad rejected by validation", port.Fields{"error_count": len(errs)})
		return nil, errs
	}

	return listing, nil
}

// parsePublicationDate пробует известные форматы даты источника.
func parsePublicationDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range constants.PublicationDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extractPrice достает цену: источник отдает либо скаляр, либо массив,
// у массива значимым является первый элемент. Сам скаляр может быть
// и числом, и строкой вида "450 000" - приведение отдано пакету coerce.
func extractPrice(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil
	}

	if seq, ok := value.([]interface{}); ok {
		if len(seq) == 0 {
			return nil
		}
		value = seq[0]
	}

	return coerce.ToFloat(value)
}

func attrLabel(attrs map[string]domain.AttributeValues, key string) string {
	return attrs[key].ValueLabel
}

func attrValue(attrs map[string]domain.AttributeValues, key string) interface{} {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	return v.Value
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNegativeInt(v *int, field string, errs *domain.ValidationErrors) *int {
	if v != nil && *v < 0 {
		errs.Add(field, "must be non-negative")
		return nil
	}
	return v
}

func nonNegativeFloat(v *float64, field string, errs *domain.ValidationErrors) *float64 {
	if v != nil && *v < 0 {
		errs.Add(field, "must be non-negative")
		return nil
	}
	return v
}
