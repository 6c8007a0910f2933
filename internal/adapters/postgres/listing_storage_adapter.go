package postgres

import (
	"context"
	"errors"
	"fmt"

	"leboncoin-parser-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mmcloughlin/geohash"
)

const geohashPrecision = 5

// ListingStorageAdapter реализует ListingStoragePort для PostgreSQL.
// Каждая запись и обновление выполняются в отдельной транзакции:
// сбой по одному объявлению не трогает остальные.
type ListingStorageAdapter struct {
	pool *pgxpool.Pool
}

// NewListingStorageAdapter создает новый экземпляр адаптера.
func NewListingStorageAdapter(pool *pgxpool.Pool) (*ListingStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &ListingStorageAdapter{pool: pool}, nil
}

const listingColumns = `
	id, title, description, url, publication_date, price, old_price, immo_sell_type,
	status, type, real_estate_type, square, rooms, bedrooms, bathrooms,
	energy_rate, ges, latitude, longitude, location_city, location_inseecode,
	land_surface, parking, cellar, swimming_pool, equipments, elevator,
	fai_included, floor_number, nb_floors_building, outside_access,
	building_year, annual_charges`

// FindByAnyKey ищет объявление по любому из трех ключей.
// Возвращает (nil, nil), когда совпадений нет.
func (a *ListingStorageAdapter) FindByAnyKey(ctx context.Context, id int64, url, title string) (*domain.Listing, error) {
	row := a.pool.QueryRow(ctx, `
		SELECT`+listingColumns+`
		FROM annonces
		WHERE id = $1 OR url = $2 OR title = $3
		LIMIT 1;
	`, id, url, title)

	var l domain.Listing
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.URL, &l.PublicationDate, &l.Price, &l.OldPrice, &l.ImmoSellType,
		&l.Status, &l.OwnerType, &l.RealEstateType, &l.Square, &l.Rooms, &l.Bedrooms, &l.Bathrooms,
		&l.EnergyRate, &l.GES, &l.Latitude, &l.Longitude, &l.LocationCity, &l.LocationInseeCode,
		&l.LandSurface, &l.Parking, &l.Cellar, &l.SwimmingPool, &l.Equipments, &l.Elevator,
		&l.FaiIncluded, &l.FloorNumber, &l.NbFloorsBuilding, &l.OutsideAccess,
		&l.BuildingYear, &l.AnnualCharges,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing by keys: %w", err)
	}

	images, err := a.loadImages(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.Images = images

	return &l, nil
}

// InsertWithImages вставляет объявление вместе со всеми его картинками
// в одной транзакции.
func (a *ListingStorageAdapter) InsertWithImages(ctx context.Context, listing domain.Listing) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO annonces (`+listingColumns+`, geohash)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33, $34
		);
	`, listingArgs(listing)...)
	if err != nil {
		return fmt.Errorf("failed to insert listing %d: %w", listing.ID, err)
	}

	if err := insertImages(ctx, tx, listing.ID, listing.Images); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update перезаписывает поля объявления и дописывает новые картинки.
// listing.Images здесь содержит только те URL, которых у записи еще нет.
func (a *ListingStorageAdapter) Update(ctx context.Context, listing domain.Listing) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE annonces SET
			title = $2, description = $3, url = $4, publication_date = $5,
			price = $6, old_price = $7, immo_sell_type = $8, status = $9,
			type = $10, real_estate_type = $11, square = $12, rooms = $13,
			bedrooms = $14, bathrooms = $15, energy_rate = $16, ges = $17,
			latitude = $18, longitude = $19, location_city = $20,
			location_inseecode = $21, land_surface = $22, parking = $23,
			cellar = $24, swimming_pool = $25, equipments = $26, elevator = $27,
			fai_included = $28, floor_number = $29, nb_floors_building = $30,
			outside_access = $31, building_year = $32, annual_charges = $33,
			geohash = $34
		WHERE id = $1;
	`, listingArgs(listing)...)
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", listing.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %d not found for update", listing.ID)
	}

	if err := insertImages(ctx, tx, listing.ID, listing.Images); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListKnownKeys возвращает (id, url) всех объявлений коммуны.
func (a *ListingStorageAdapter) ListKnownKeys(ctx context.Context, inseeCode string) (domain.KnownKeys, error) {
	keys := domain.KnownKeys{
		IDs:  make(map[int64]struct{}),
		URLs: make(map[string]struct{}),
	}

	rows, err := a.pool.Query(ctx, `SELECT id, url FROM annonces WHERE location_inseecode = $1;`, inseeCode)
	if err != nil {
		return keys, fmt.Errorf("failed to query known keys for %s: %w", inseeCode, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var url string
		if err := rows.Scan(&id, &url); err != nil {
			return keys, fmt.Errorf("failed to scan known key: %w", err)
		}
		keys.IDs[id] = struct{}{}
		keys.URLs[url] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return keys, fmt.Errorf("failed to read known keys: %w", err)
	}

	return keys, nil
}

func (a *ListingStorageAdapter) loadImages(ctx context.Context, adID int64) ([]string, error) {
	rows, err := a.pool.Query(ctx, `SELECT url FROM images WHERE ad_id = $1 ORDER BY id;`, adID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images for listing %d: %w", adID, err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan image url: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read images: %w", err)
	}

	return urls, nil
}

func insertImages(ctx context.Context, tx pgx.Tx, adID int64, urls []string) error {
	for _, url := range urls {
		if _, err := tx.Exec(ctx, `INSERT INTO images (ad_id, url) VALUES ($1, $2);`, adID, url); err != nil {
			return fmt.Errorf("failed to insert image for listing %d: %w", adID, err)
		}
	}
	return nil
}

// listingArgs выстраивает аргументы в порядке listingColumns + geohash.
func listingArgs(l domain.Listing) []interface{} {
	return []interface{}{
		l.ID, l.Title, l.Description, l.URL, l.PublicationDate, l.Price, l.OldPrice, l.ImmoSellType,
		l.Status, l.OwnerType, l.RealEstateType, l.Square, l.Rooms, l.Bedrooms, l.Bathrooms,
		l.EnergyRate, l.GES, l.Latitude, l.Longitude, l.LocationCity, l.LocationInseeCode,
		l.LandSurface, l.Parking, l.Cellar, l.SwimmingPool, l.Equipments, l.Elevator,
		l.FaiIncluded, l.FloorNumber, l.NbFloorsBuilding, l.OutsideAccess,
		l.BuildingYear, l.AnnualCharges,
		computeGeohash(l.Latitude, l.Longitude),
	}
}

// computeGeohash считает пятизначный геохэш, когда известны обе координаты.
func computeGeohash(lat, lng *float64) *string {
	if lat == nil || lng == nil {
		return nil
	}
	gh := geohash.Encode(*lat, *lng)
	gh = gh[:geohashPrecision]
	return &gh
}
