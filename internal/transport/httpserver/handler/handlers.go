package handler

import (
	financedomain "casa360/internal/domain/finance"
	housedomain "casa360/internal/domain/house"
	tasksdomain "casa360/internal/domain/tasks"
	userdomain "casa360/internal/domain/user"
	"casa360/pkg/jwtutil"
	"casa360/pkg/logger"
)

type Handlers struct {
	Users   *userdomain.Service
	Houses  *housedomain.Service
	Finance *financedomain.Service
	Tasks   *tasksdomain.Service

	jwt *jwtutil.Issuer
	log logger.Logger
}

func New(users *userdomain.Service, houses *housedomain.Service, finance *financedomain.Service, tasks *tasksdomain.Service, jwt *jwtutil.Issuer, log logger.Logger) *Handlers {
	return &Handlers{
		Users:   users,
		Houses:  houses,
		Finance: finance,
		Tasks:   tasks,
		jwt:     jwt,
		log:     log,
	}
}
