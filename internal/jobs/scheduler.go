// Package jobs runs the service's scheduled maintenance work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"washwise/internal/user"
)

// usageResetSpec fires at midnight UTC on the first of each month: plan
// quotas run per calendar month.
const usageResetSpec = "0 0 1 * *"

type Scheduler struct {
	cron  *cron.Cron
	users *user.Repository
	log   *zap.Logger
}

func NewScheduler(users *user.Repository, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		users: users,
		log:   log,
	}
	if _, err := s.cron.AddFunc(usageResetSpec, s.resetMonthlyUsage); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) resetMonthlyUsage() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.users.ResetAllMonthlyUsage(ctx)
	if err != nil {
		s.log.Error("monthly usage reset failed", zap.Error(err))
		return
	}
	s.log.Info("monthly usage counters reset", zap.Int64("users", n))
}
