package tasks

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	tasksdomain "casa360/internal/domain/tasks"
)

// Pools resolves the tenant database pool for one house.
type Pools interface {
	House(ctx context.Context, houseID int64) (*gorm.DB, error)
}

type PostgresRepository struct {
	pools Pools
	tx    *gorm.DB
}

func NewPostgres(pools Pools) *PostgresRepository {
	return &PostgresRepository{pools: pools}
}

func (r *PostgresRepository) conn(ctx context.Context, houseID int64) (*gorm.DB, error) {
	if r.tx != nil {
		return r.tx, nil
	}
	pool, err := r.pools.House(ctx, houseID)
	if err != nil {
		return nil, err
	}
	return pool.WithContext(ctx), nil
}

func (r *PostgresRepository) Transaction(ctx context.Context, houseID int64, fn func(tasksdomain.Repository) error) error {
	pool, err := r.pools.House(ctx, houseID)
	if err != nil {
		return err
	}
	return pool.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{pools: r.pools, tx: tx})
	})
}

func (r *PostgresRepository) ListTasks(ctx context.Context, houseID int64, includeDone bool) ([]tasksdomain.Task, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	query := conn.Order("created_at desc")
	if !includeDone {
		query = query.Where("done = false")
	}
	var tasks []tasksdomain.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *PostgresRepository) GetTask(ctx context.Context, houseID, id int64) (*tasksdomain.Task, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var task tasksdomain.Task
	if err := conn.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tasksdomain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *PostgresRepository) CreateTask(ctx context.Context, houseID int64, task *tasksdomain.Task) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Create(task).Error
}

func (r *PostgresRepository) UpdateTask(ctx context.Context, houseID int64, task *tasksdomain.Task) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Model(&tasksdomain.Task{}).Where("id = ?", task.ID).
		Select("title", "description", "assignee_id", "points", "due_date", "done", "completed_by", "completed_at").
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasksdomain.ErrTaskNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteTask(ctx context.Context, houseID, id int64) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Delete(&tasksdomain.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tasksdomain.ErrTaskNotFound
	}
	return nil
}

// GetProgress returns a fresh zeroed row for users who have not completed
// anything yet, so callers never have to special-case the first completion.
func (r *PostgresRepository) GetProgress(ctx context.Context, houseID, userID int64) (*tasksdomain.Progress, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var progress tasksdomain.Progress
	if err := conn.First(&progress, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &tasksdomain.Progress{UserID: userID, Level: 1}, nil
		}
		return nil, err
	}
	return &progress, nil
}

func (r *PostgresRepository) SaveProgress(ctx context.Context, houseID int64, progress *tasksdomain.Progress) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "tasks_done", "level", "updated_at"}),
	}).Create(progress).Error
}

func (r *PostgresRepository) ListAchievements(ctx context.Context, houseID, userID int64) ([]tasksdomain.Achievement, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var achievements []tasksdomain.Achievement
	if err := conn.Where("user_id = ?", userID).Order("earned_at asc").Find(&achievements).Error; err != nil {
		return nil, err
	}
	return achievements, nil
}

func (r *PostgresRepository) AddAchievement(ctx context.Context, houseID int64, achievement *tasksdomain.Achievement) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).Create(achievement).Error
}
