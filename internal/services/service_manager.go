package services

import (
	"log/slog"

	"github.com/fasahat78/startege-sub004/internal/cooldown"
	"github.com/fasahat78/startege-sub004/internal/events"
	"github.com/fasahat78/startege-sub004/internal/metrics"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"github.com/fasahat78/startege-sub004/internal/validator"
)

// ServiceManager hands the HTTP layer its services
type ServiceManager interface {
	Attempt() AttemptService
	Exam() ExamService
	ImportExport() ImportExportService
	Events() EventService
}

type serviceManager struct {
	attempt      AttemptService
	exam         ExamService
	importExport ImportExportService
	events       EventService
}

type ServiceDeps struct {
	Repo      repositories.Repository
	Publisher events.EventPublisher
	Policy    *cooldown.Policy
	Metrics   *metrics.Metrics
	Validator *validator.Validator
	Logger    *slog.Logger

	AttemptOptions []AttemptServiceOption
}

func NewServiceManager(deps ServiceDeps) ServiceManager {
	policy := deps.Policy
	if policy == nil {
		policy = cooldown.DefaultPolicy()
	}
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}

	eventService := NewEventService(deps.Publisher, deps.Logger)
	return &serviceManager{
		attempt:      NewAttemptService(deps.Repo, policy, eventService, deps.Metrics, v, deps.Logger, deps.AttemptOptions...),
		exam:         NewExamService(deps.Repo, eventService, v, deps.Logger),
		importExport: NewImportExportService(deps.Repo, eventService, deps.Logger, v),
		events:       eventService,
	}
}

func (m *serviceManager) Attempt() AttemptService {
	return m.attempt
}

func (m *serviceManager) Exam() ExamService {
	return m.exam
}

func (m *serviceManager) ImportExport() ImportExportService {
	return m.importExport
}

func (m *serviceManager) Events() EventService {
	return m.events
}
