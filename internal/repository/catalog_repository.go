package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randya04/POSitive/internal/domain"
)

// CatalogRepository reads the restaurant/branch reference data owned by
// an external catalog process.
type CatalogRepository interface {
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	ListBranches(ctx context.Context, restaurantID string) ([]domain.Branch, error)
	RestaurantNames(ctx context.Context, ids []string) (map[string]string, error)
	BranchNames(ctx context.Context, ids []string) (map[string]string, error)
	BranchInRestaurant(ctx context.Context, branchID, restaurantID string) (bool, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository instantiates the repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name FROM restaurants ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Restaurant
	for rows.Next() {
		var restaurant domain.Restaurant
		if err := rows.Scan(&restaurant.ID, &restaurant.Name); err != nil {
			return nil, err
		}
		result = append(result, restaurant)
	}
	return result, rows.Err()
}

func (r *catalogRepository) ListBranches(ctx context.Context, restaurantID string) ([]domain.Branch, error) {
	const query = "SELECT id, name, restaurant_id FROM branches WHERE restaurant_id=$1 ORDER BY name"

	rows, err := r.pool.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Branch
	for rows.Next() {
		var branch domain.Branch
		if err := rows.Scan(&branch.ID, &branch.Name, &branch.RestaurantID); err != nil {
			return nil, err
		}
		result = append(result, branch)
	}
	return result, rows.Err()
}

func (r *catalogRepository) RestaurantNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.namesByIDs(ctx, "restaurants", ids)
}

func (r *catalogRepository) BranchNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.namesByIDs(ctx, "branches", ids)
}

func (r *catalogRepository) namesByIDs(ctx context.Context, table string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.pool.Query(ctx, "SELECT id, name FROM "+table+" WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *catalogRepository) BranchInRestaurant(ctx context.Context, branchID, restaurantID string) (bool, error) {
	const query = "SELECT EXISTS (SELECT 1 FROM branches WHERE id=$1 AND restaurant_id=$2)"

	var exists bool
	if err := r.pool.QueryRow(ctx, query, branchID, restaurantID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
