package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/repository/base"
)

const listingColumns = `id, owner_id, title, price_per_hour, postal_area, availability_status, category, created_at`

type ListingRepository struct {
	*base.Repository
}

func NewListingRepository(q base.Querier) *ListingRepository {
	return &ListingRepository{Repository: base.NewRepository(q)}
}

// GetByID получает объявление по ID
func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	listing, err := scanListing(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get listing by id: %w", err)
	}

	return listing, nil
}

// GetByIDForUpdate получает объявление и блокирует строку до конца транзакции.
// Сериализует создание бронирований на одну и ту же технику.
func (r *ListingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 FOR UPDATE`

	listing, err := scanListing(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock listing: %w", err)
	}

	return listing, nil
}

// GetByIDs получает объявления по списку ID (порядок не гарантируется)
func (r *ListingRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ANY($1)`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get listings by ids: %w", err)
	}
	defer rows.Close()

	var listings []*model.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return listings, nil
}

func scanListing(row pgx.Row) (*model.Listing, error) {
	var listing model.Listing
	var availability string

	err := row.Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.Title,
		&listing.PricePerHour,
		&listing.PostalArea,
		&availability,
		&listing.Category,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.AvailabilityStatus = model.AvailabilityStatus(availability)
	return &listing, nil
}
