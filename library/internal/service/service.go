package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/internal/errs"
	libraryRepo "github.com/Astemirdum/library-system/library/internal/repository"
	"github.com/Astemirdum/library-system/pkg/kafka"
)

type Service struct {
	log      *zap.Logger
	repo     libraryRepo.Repository
	enqueuer kafka.Enqueuer
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used for checkout and overdue dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo libraryRepo.Repository, enqueuer kafka.Enqueuer, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:      log.Named("service"),
		repo:     repo,
		enqueuer: enqueuer,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// txError passes domain errors through and turns every other failure into
// errs.ErrPersistence after logging the cause.
func (s *Service) txError(op string, err error) error {
	if errs.IsDomain(err) {
		return err
	}
	s.log.Error(op, zap.Error(err))
	return errs.ErrPersistence
}

// publish runs after commit, a failed enqueue does not undo the operation.
func (s *Service) publish(event kafka.LibraryEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.enqueuer.Enqueue(kafka.LibraryTopic, event); err != nil {
		s.log.Warn("enqueue event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
