package tasks

import "time"

type Task struct {
	ID          int64   `gorm:"primaryKey"`
	Title       string  `gorm:"not null"`
	Description *string `gorm:"type:text"`
	AssigneeID  *int64  `gorm:"index"`
	Points      int     `gorm:"not null;default:10"`
	DueDate     *time.Time
	Done        bool  `gorm:"not null;default:false"`
	CompletedBy *int64
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Task) TableName() string { return "tasks" }

// Progress is the per-user gamification state within one house.
type Progress struct {
	UserID    int64     `gorm:"primaryKey"`
	Points    int64     `gorm:"not null;default:0"`
	TasksDone int64     `gorm:"not null;default:0"`
	Level     int       `gorm:"not null;default:1"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Progress) TableName() string { return "user_progress" }

type Achievement struct {
	UserID   int64     `gorm:"primaryKey"`
	Code     string    `gorm:"primaryKey;size:32"`
	EarnedAt time.Time `gorm:"autoCreateTime"`
}

func (Achievement) TableName() string { return "user_achievements" }

type CreateTaskInput struct {
	Title       string
	Description string
	AssigneeID  *int64
	Points      int
	DueDate     *time.Time
}

type UpdateTaskInput struct {
	ID          int64
	Title       *string
	Description *string
	AssigneeID  *int64
	Points      *int
	DueDate     *time.Time
}
