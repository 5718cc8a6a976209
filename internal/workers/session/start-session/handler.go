// internal/workers/session/start-session/handler.go
package startsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prism-workers/internal/catalog"
	"prism-workers/internal/clarification"
	commonerrors "prism-workers/internal/common/errors"
	"prism-workers/internal/common/logger"
	"prism-workers/internal/common/metrics"
	"prism-workers/internal/common/validation"
	"prism-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "start-session"
)

type CourseCatalog interface {
	Get(ctx context.Context, code string) (*models.Course, error)
}

type SessionStore interface {
	Save(ctx context.Context, sess *models.Session) error
}

type Handler struct {
	config     *Config
	courses    CourseCatalog
	sessions   SessionStore
	errHandler *commonerrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, courses CourseCatalog, sessions SessionStore, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		courses:    courses,
		sessions:   sessions,
		errHandler: commonerrors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job,
			commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.Struct(input); !res.Valid {
		return nil, commonerrors.NewInvalidInputError(res.Error())
	}

	course, err := h.courses.Get(ctx, input.Course)
	if err != nil {
		if errors.Is(err, catalog.ErrCourseNotFound) {
			return nil, commonerrors.NewCourseNotFoundError(input.Course)
		}
		return nil, commonerrors.NewQueryExecutionFailedError("course_by_code", err)
	}

	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		StudentID: input.StudentID,
		Course:    course.Code,
		Major:     input.Major,
		Degree:    input.Degree,
		CreatedAt: now,
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		if errors.Is(err, clarification.ErrSessionStoreFailed) {
			return nil, commonerrors.NewSessionStoreFailedError(err)
		}
		return nil, err
	}

	h.logger.Info("session started", map[string]interface{}{
		"sessionId": sess.ID,
		"course":    sess.Course,
	})

	return &Output{
		SessionID:      sess.ID,
		CourseName:     course.Name,
		WelcomeMessage: WelcomeMessage(input.StudentID, course.Code, input.Degree, input.Major),
	}, nil
}

func WelcomeMessage(studentID, course, degree, major string) string {
	return fmt.Sprintf("Session started for %s in %s (%s/%s). How may I help you learn today? Ask me about your course material!",
		studentID, course, degree, major)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
