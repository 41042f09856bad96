package tasks

import "context"

type Repository interface {
	Transaction(ctx context.Context, houseID int64, fn func(Repository) error) error

	ListTasks(ctx context.Context, houseID int64, includeDone bool) ([]Task, error)
	GetTask(ctx context.Context, houseID, id int64) (*Task, error)
	CreateTask(ctx context.Context, houseID int64, task *Task) error
	UpdateTask(ctx context.Context, houseID int64, task *Task) error
	DeleteTask(ctx context.Context, houseID, id int64) error

	GetProgress(ctx context.Context, houseID, userID int64) (*Progress, error)
	SaveProgress(ctx context.Context, houseID int64, progress *Progress) error
	ListAchievements(ctx context.Context, houseID, userID int64) ([]Achievement, error)
	AddAchievement(ctx context.Context, houseID int64, achievement *Achievement) error
}
