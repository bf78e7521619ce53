package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxhub/max-backend/internal/model"
)

// GroupRepository handles group data access.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id int) (*model.Group, error) {
	g := &model.Group{}
	var curatorName *string
	err := r.pool.QueryRow(ctx,
		`SELECT g.id, g.name, g.curator_id,
		        u.last_name || ' ' || u.first_name,
		        g.created_at, g.updated_at
		 FROM groups g
		 LEFT JOIN users u ON u.id = g.curator_id
		 WHERE g.id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.CuratorID, &curatorName, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if curatorName != nil {
		g.CuratorName = *curatorName
	}
	return g, nil
}

// List retrieves all groups ordered by name.
func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.id, g.name, g.curator_id,
		        u.last_name || ' ' || u.first_name,
		        g.created_at, g.updated_at
		 FROM groups g
		 LEFT JOIN users u ON u.id = g.curator_id
		 ORDER BY g.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		var curatorName *string
		if err := rows.Scan(&g.ID, &g.Name, &g.CuratorID, &curatorName, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if curatorName != nil {
			g.CuratorName = *curatorName
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListCuratedByTeacher retrieves the groups a teacher curates, in
// ascending group-id order. The aggregator relies on this ordering for
// deterministic merge results.
func (r *GroupRepository) ListCuratedByTeacher(ctx context.Context, teacherID int) ([]model.Group, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, curator_id, created_at, updated_at
		 FROM groups WHERE curator_id = $1 ORDER BY id`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CuratorID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO groups (name, curator_id) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		g.Name, g.CuratorID,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
}

// Update modifies an existing group.
func (r *GroupRepository) Update(ctx context.Context, g *model.Group) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE groups SET name = $1, curator_id = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3`,
		g.Name, g.CuratorID, g.ID,
	)
	return err
}

// Delete removes a group by ID.
func (r *GroupRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	return err
}
