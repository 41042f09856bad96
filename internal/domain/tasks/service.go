package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultTaskPoints = 10
	maxTaskPoints     = 1000
	levelStep         = 100
)

// Achievement thresholds, checked after every completed task.
const (
	AchFirstTask    = "first_task"
	AchTenTasks     = "ten_tasks"
	AchHundredTasks = "hundred_tasks"
	AchThousandPts  = "thousand_points"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListTasks(ctx context.Context, houseID int64, includeDone bool) ([]Task, error) {
	return s.repo.ListTasks(ctx, houseID, includeDone)
}

func (s *Service) GetTask(ctx context.Context, houseID, id int64) (*Task, error) {
	return s.repo.GetTask(ctx, houseID, id)
}

func (s *Service) CreateTask(ctx context.Context, houseID int64, input CreateTaskInput) (*Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.Points == 0 {
		input.Points = defaultTaskPoints
	}
	if input.Points < 1 || input.Points > maxTaskPoints {
		return nil, fmt.Errorf("%w: points must be between 1 and %d", ErrValidation, maxTaskPoints)
	}

	task := Task{
		Title:      input.Title,
		AssigneeID: input.AssigneeID,
		Points:     input.Points,
		DueDate:    input.DueDate,
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		task.Description = &description
	}
	if err := s.repo.CreateTask(ctx, houseID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Service) UpdateTask(ctx context.Context, houseID int64, input UpdateTaskInput) (*Task, error) {
	task, err := s.repo.GetTask(ctx, houseID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidation)
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.AssigneeID != nil {
		task.AssigneeID = input.AssigneeID
	}
	if input.Points != nil {
		if *input.Points < 1 || *input.Points > maxTaskPoints {
			return nil, fmt.Errorf("%w: points must be between 1 and %d", ErrValidation, maxTaskPoints)
		}
		task.Points = *input.Points
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.repo.UpdateTask(ctx, houseID, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, houseID, id int64) error {
	return s.repo.DeleteTask(ctx, houseID, id)
}

// CompleteTask marks a task done and credits its points to the completing
// user, recomputing level and achievements. Runs in one tenant transaction;
// completing an already-done task is a conflict, not a double credit.
func (s *Service) CompleteTask(ctx context.Context, houseID, taskID, userID int64) (*Progress, error) {
	var result Progress
	err := s.repo.Transaction(ctx, houseID, func(tx Repository) error {
		task, err := tx.GetTask(ctx, houseID, taskID)
		if err != nil {
			return err
		}
		if task.Done {
			return ErrTaskAlreadyDone
		}

		now := time.Now().UTC()
		task.Done = true
		task.CompletedBy = &userID
		task.CompletedAt = &now
		if err := tx.UpdateTask(ctx, houseID, task); err != nil {
			return err
		}

		progress, err := tx.GetProgress(ctx, houseID, userID)
		if err != nil {
			return err
		}
		progress.Points += int64(task.Points)
		progress.TasksDone++
		progress.Level = LevelForPoints(progress.Points)
		if err := tx.SaveProgress(ctx, houseID, progress); err != nil {
			return err
		}

		if err := s.awardAchievements(ctx, tx, houseID, progress); err != nil {
			return err
		}

		result = *progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) Progress(ctx context.Context, houseID, userID int64) (*Progress, []Achievement, error) {
	progress, err := s.repo.GetProgress(ctx, houseID, userID)
	if err != nil {
		return nil, nil, err
	}
	achievements, err := s.repo.ListAchievements(ctx, houseID, userID)
	if err != nil {
		return nil, nil, err
	}
	return progress, achievements, nil
}

// LevelForPoints maps cumulative points to a level: each level costs
// levelStep more than the previous one (0, 100, 300, 600, ...).
func LevelForPoints(points int64) int {
	level := 1
	var threshold, cost int64
	for {
		cost += levelStep
		threshold += cost
		if points < threshold {
			return level
		}
		level++
	}
}

func (s *Service) awardAchievements(ctx context.Context, tx Repository, houseID int64, progress *Progress) error {
	earned, err := tx.ListAchievements(ctx, houseID, progress.UserID)
	if err != nil {
		return err
	}
	has := make(map[string]bool, len(earned))
	for _, achievement := range earned {
		has[achievement.Code] = true
	}

	award := func(code string, qualified bool) error {
		if !qualified || has[code] {
			return nil
		}
		return tx.AddAchievement(ctx, houseID, &Achievement{UserID: progress.UserID, Code: code})
	}

	if err := award(AchFirstTask, progress.TasksDone >= 1); err != nil {
		return err
	}
	if err := award(AchTenTasks, progress.TasksDone >= 10); err != nil {
		return err
	}
	if err := award(AchHundredTasks, progress.TasksDone >= 100); err != nil {
		return err
	}
	return award(AchThousandPts, progress.Points >= 1000)
}
