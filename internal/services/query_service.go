package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/backend"
	"github.com/querylens/querylens/internal/events"
	"github.com/querylens/querylens/internal/history"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/presenter"
	"github.com/querylens/querylens/internal/recommend"
	"github.com/querylens/querylens/internal/session"
	"github.com/querylens/querylens/internal/utils"
)

// QueryBackend executes natural-language questions.
type QueryBackend interface {
	Query(ctx context.Context, question string) (*analytics.QueryResult, error)
}

// SessionState is what the session endpoints return.
type SessionState struct {
	SessionID      string            `json:"sessionId"`
	Pending        bool              `json:"pending"`
	Snapshot       *session.Snapshot `json:"snapshot,omitempty"`
	Interpretation *Interpretation   `json:"interpretation,omitempty"`
}

// QueryService handles question submission and the per-session state that
// results from it.
type QueryService struct {
	logger      *logging.Logger
	backend     QueryBackend
	sessions    *session.Manager
	history     history.Store
	events      events.Publisher
	recommender recommend.Recommender
	interpret   *InterpretService
	views       *ViewService

	// Background work (recommendations, events) outlives the request.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewQueryService creates a new QueryService
func NewQueryService(
	logger *logging.Logger,
	queryBackend QueryBackend,
	sessions *session.Manager,
	historyStore history.Store,
	publisher events.Publisher,
	recommender recommend.Recommender,
	interpret *InterpretService,
	views *ViewService,
) *QueryService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if recommender == nil {
		recommender = recommend.Disabled{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QueryService{
		logger:      logger,
		backend:     queryBackend,
		sessions:    sessions,
		history:     historyStore,
		events:      publisher,
		recommender: recommender,
		interpret:   interpret,
		views:       views,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// Submit runs a question for a session. Only one query per session may be
// in flight; a second submission fails with QUERY_PENDING. On success the
// session snapshot is replaced and a recommendation is requested in the
// background. On failure the snapshot is replaced by one carrying only the
// error, and the error is returned as well.
func (s *QueryService) Submit(ctx context.Context, sessionID, question string) (*SessionState, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, NewServiceError(CodeInvalidRequest, "question is required")
	}
	if len(question) > utils.MaxQuestionLength {
		return nil, NewServiceErrorWithDetails(CodeInvalidRequest, "question is too long", map[string]interface{}{
			"max_length": utils.MaxQuestionLength,
		})
	}

	sess := s.sessions.Get(sessionID)
	if !sess.TryBegin() {
		return nil, NewServiceError(CodeQueryPending, "A query is already running for this session")
	}
	defer sess.End()

	log := s.logger.WithContext(ctx).With("session_id", sessionID)
	startTime := time.Now()

	historyCtx, cancel := context.WithTimeout(ctx, utils.HistoryTimeout)
	if err := s.history.Add(historyCtx, sessionID, question); err != nil {
		log.Warn("Failed to record history", "error", err)
	}
	cancel()

	snap := &session.Snapshot{
		ID:          uuid.NewString(),
		Question:    question,
		SubmittedAt: startTime.UTC(),
	}

	qr, err := s.backend.Query(ctx, question)
	snap.CompletedAt = time.Now().UTC()
	if err != nil {
		msg := backend.UserMessage(err)
		snap.Status = session.StatusFailed
		snap.Error = msg
		snap.RecommendationStatus = session.RecommendationNone
		sess.Replace(snap)

		log.Error("Query failed",
			"error", err,
			"latency_ms", time.Since(startTime).Milliseconds())
		s.publish(events.Event{
			Type:      events.QueryFailed,
			SessionID: sessionID,
			Question:  question,
			Error:     msg,
		})
		return nil, queryError(err, msg)
	}

	snap.Status = session.StatusReady
	snap.Result = qr
	switch {
	case recommend.IsDisabled(s.recommender):
		snap.RecommendationStatus = session.RecommendationDisabled
	case !qr.HasData():
		snap.RecommendationStatus = session.RecommendationNone
	default:
		snap.RecommendationStatus = session.RecommendationPending
	}
	sess.Replace(snap)

	if snap.RecommendationStatus == session.RecommendationPending {
		s.dispatchRecommendation(sess, snap, logging.RequestID(ctx))
	}

	interp, err := s.interpret.Interpret(ctx, qr, question, nil)
	if err != nil {
		return nil, err
	}

	ev := events.Event{
		Type:          events.QuerySucceeded,
		SessionID:     sessionID,
		Question:      question,
		Collection:    interp.Collection,
		Records:       interp.Profile.Rows,
		Shape:         interp.Profile.Shape.String(),
		Visualization: string(interp.Visualization.Kind),
	}
	if ms, ok := qr.ExecutionTime(); ok {
		ev.ExecutionTime = &ms
	}
	s.publish(ev)

	log.Info("Query completed",
		"collection", interp.Collection,
		"rows", interp.Profile.Rows,
		"shape", interp.Profile.Shape,
		"visualization", interp.Visualization.Kind,
		"latency_ms", time.Since(startTime).Milliseconds())

	return &SessionState{
		SessionID:      sessionID,
		Pending:        false,
		Snapshot:       snap,
		Interpretation: interp,
	}, nil
}

// queryError maps a backend failure to QUERY_FAILED when the backend answered
// and BACKEND_UNAVAILABLE when it could not be reached.
func queryError(err error, msg string) *ServiceError {
	var be *backend.Error
	if errors.As(err, &be) && be.StatusCode != 0 {
		return NewServiceErrorWithDetails(CodeQueryFailed, msg, map[string]interface{}{"status": be.StatusCode})
	}
	// No response at all
	return NewServiceError(CodeBackendUnavailable, msg)
}

// dispatchRecommendation requests a recommendation for snap without blocking
// the caller. Only the latest request per session may apply its answer.
func (s *QueryService) dispatchRecommendation(sess *session.Session, snap *session.Snapshot, requestID string) {
	seq := sess.NextRecommendation()
	req := recommend.Request{Question: snap.Question, Result: snap.Result}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.baseCtx, utils.RecommendationTimeout)
		defer cancel()
		ctx = logging.WithSessionID(logging.WithRequestID(ctx, requestID), sess.ID)
		log := s.logger.WithContext(ctx)

		rec, err := s.recommender.Recommend(ctx, req)
		status := session.RecommendationApplied
		if err != nil {
			log.Warn("Recommendation failed", "error", err)
			rec, status = nil, session.RecommendationFailed
		}

		if !sess.ApplyRecommendation(seq, snap.ID, rec, status) {
			log.Debug("Dropping stale recommendation", "sequence", seq, "latest", sess.LatestRecommendation())
			return
		}
		if rec == nil {
			return
		}

		log.Debug("Recommendation applied", "visualization", rec.VisualizationType)
		s.publish(events.Event{
			Type:          events.RecommendationApplied,
			SessionID:     sess.ID,
			Question:      snap.Question,
			Visualization: rec.VisualizationType,
		})
	}()
}

// publish emits an event in the background; failures are logged only.
func (s *QueryService) publish(ev events.Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.baseCtx, utils.EventPublishTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Warn("Failed to publish event", "type", ev.Type, "session_id", ev.SessionID, "error", err)
		}
	}()
}

// Current returns the session's current state, interpreted with the
// recommendation when one has arrived.
func (s *QueryService) Current(ctx context.Context, sessionID string) (*SessionState, error) {
	sess := s.sessions.Get(sessionID)
	state := &SessionState{SessionID: sessionID, Pending: sess.Pending()}

	snap := sess.Snapshot()
	if snap == nil {
		return state, nil
	}
	state.Snapshot = snap
	if snap.Status != session.StatusReady {
		return state, nil
	}

	interp, err := s.interpret.Interpret(ctx, snap.Result, snap.Question, snap.Recommendation)
	if err != nil {
		return nil, err
	}
	state.Interpretation = interp
	return state, nil
}

// View renders one of the views over the session's current result. A session
// without a successful result renders the empty state.
func (s *QueryService) View(ctx context.Context, sessionID, view string, state presenter.State) (interface{}, error) {
	snap := s.sessions.Get(sessionID).Snapshot()
	if snap == nil || snap.Status != session.StatusReady {
		return s.views.Render(ctx, nil, "", nil, view, state)
	}
	return s.views.Render(ctx, snap.Result, snap.Question, snap.Recommendation, view, state)
}

// History returns the session's recent questions, most recent first.
func (s *QueryService) History(ctx context.Context, sessionID string) ([]string, error) {
	items, err := s.history.List(ctx, sessionID)
	if err != nil {
		return nil, NewServiceErrorWithDetails(CodeInternal, "Failed to read history", map[string]interface{}{"error": err.Error()})
	}
	return items, nil
}

// ClearHistory forgets the session's recent questions.
func (s *QueryService) ClearHistory(ctx context.Context, sessionID string) error {
	if err := s.history.Clear(ctx, sessionID); err != nil {
		return NewServiceErrorWithDetails(CodeInternal, "Failed to clear history", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// Close cancels background work and waits for it to finish.
func (s *QueryService) Close() {
	s.cancel()
	s.wg.Wait()
}
