package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no record matches the given filters.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidFilterField is returned for filter keys outside the registry.
	ErrInvalidFilterField = errors.New("invalid filter field")
	// ErrInvalidSortField is returned for sort keys outside the registry.
	ErrInvalidSortField = errors.New("invalid sort field")
	// ErrInvalidSearchField is returned when a declared search field is not a
	// registered column.
	ErrInvalidSearchField = errors.New("invalid search field")
)

const defaultPageSize = 20

// Repository provides typed CRUD plus filter/sort/paginate/search over one
// entity. Only columns declared in the field registry are accepted for
// filtering and sorting, so arbitrary identifiers never reach the SQL layer.
type Repository[T any] struct {
	db           *gorm.DB
	fields       map[string]struct{}
	searchFields []string
}

// New builds a repository with an explicit field registry and the entity's
// declared searchable text columns.
func New[T any](db *gorm.DB, fields, searchFields []string) *Repository[T] {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return &Repository[T]{db: db, fields: set, searchFields: searchFields}
}

// ListParams controls List queries. Zero values mean: first page, default
// size, no sort, no search. Scopes carry extra predicates (price ranges and
// the like) that are not plain equality filters.
type ListParams struct {
	Page       int
	Size       int
	SortBy     string
	Descending bool
	Filters    map[string]any
	UseOr      bool
	Search     string
	Preloads   []string
	Scopes     []func(*gorm.DB) *gorm.DB
}

// Get returns the single entity matching all filters exactly.
func (r *Repository[T]) Get(ctx context.Context, filters map[string]any, preloads ...string) (*T, error) {
	q := r.db.WithContext(ctx)
	for _, key := range sortedKeys(filters) {
		if _, ok := r.fields[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilterField, key)
		}
		q = q.Where(key+" = ?", filters[key])
	}
	for _, assoc := range preloads {
		q = q.Preload(assoc)
	}

	var entity T
	if err := q.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// List returns one page of entities plus the total count of the filtered set
// before pagination. Explicit filters are joined by OR when params.UseOr is
// set, otherwise by AND; a search term ORs a case-insensitive substring match
// across the entity's declared search fields.
func (r *Repository[T]) List(ctx context.Context, params ListParams) ([]T, int64, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.Size
	if size <= 0 {
		size = defaultPageSize
	}

	var model T
	q := r.db.WithContext(ctx).Model(&model)

	if len(params.Filters) > 0 {
		group := r.db
		for i, key := range sortedKeys(params.Filters) {
			if _, ok := r.fields[key]; !ok {
				return nil, 0, fmt.Errorf("%w: %s", ErrInvalidFilterField, key)
			}
			cond, value := key+" = ?", params.Filters[key]
			switch {
			case i == 0:
				group = r.db.Where(cond, value)
			case params.UseOr:
				group = group.Or(cond, value)
			default:
				group = group.Where(cond, value)
			}
		}
		q = q.Where(group)
	}

	if params.Search != "" && len(r.searchFields) > 0 {
		pattern := "%" + strings.ToLower(params.Search) + "%"
		group := r.db
		for i, field := range r.searchFields {
			if _, ok := r.fields[field]; !ok {
				return nil, 0, fmt.Errorf("%w: %s", ErrInvalidSearchField, field)
			}
			cond := "LOWER(" + field + ") LIKE ?"
			if i == 0 {
				group = r.db.Where(cond, pattern)
			} else {
				group = group.Or(cond, pattern)
			}
		}
		q = q.Where(group)
	}

	if len(params.Scopes) > 0 {
		q = q.Scopes(params.Scopes...)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.SortBy != "" {
		if _, ok := r.fields[params.SortBy]; !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidSortField, params.SortBy)
		}
		direction := "asc"
		if params.Descending {
			direction = "desc"
		}
		q = q.Order(params.SortBy + " " + direction)
	}

	for _, assoc := range params.Preloads {
		q = q.Preload(assoc)
	}

	var items []T
	if err := q.Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Save upserts the entity: insert when no id has been assigned yet, update
// otherwise. Server-assigned id and timestamps are populated on first save.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// Delete hard-deletes the entity. Owned children declared with cascade
// constraints are removed by the store.
func (r *Repository[T]) Delete(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Delete(entity).Error
}

// sortedKeys keeps generated WHERE clauses deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
