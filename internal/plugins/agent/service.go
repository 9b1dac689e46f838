package agent

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
	"github.com/ninglab/ning-backend/internal/sanitize"
)

// Service defines the business logic contract for the interview agent.
type Service interface {
	CreateSession(ctx context.Context, caller *auth.User, req SessionCreateRequest) (*SessionPublic, error)
	Chat(ctx context.Context, caller *auth.User, req ChatRequest) (*ChatResponse, error)
	GetSession(ctx context.Context, caller *auth.User, sid string) (*SessionDetail, error)
}

type service struct {
	repo Repository
}

// NewService creates a new agent service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateSession starts a new interview session for the caller, with an
// optionally declared role and focus.
func (s *service) CreateSession(ctx context.Context, caller *auth.User, req SessionCreateRequest) (*SessionPublic, error) {
	id, err := s.repo.NextSessionID(ctx, caller.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	sess := &Session{
		ID:        strconv.FormatInt(id, 10),
		Role:      req.Role,
		Focus:     req.Focus,
		CreatedAt: nowISO(),
	}
	if err := s.repo.SaveSession(ctx, caller.ID, sess); err != nil {
		return nil, apperror.WrapStore(err)
	}

	slog.Info("agent session created",
		slog.String("user_id", caller.ID),
		slog.String("session_id", sess.ID),
	)

	return &SessionPublic{SessionID: sess.ID}, nil
}

// Chat appends the user's message to the transcript, computes the
// rule-based reply, and appends that too. The two appends are independent
// store calls; a crash in between leaves a transcript ending on a user
// turn, which is accepted.
func (s *service) Chat(ctx context.Context, caller *auth.User, req ChatRequest) (*ChatResponse, error) {
	req.Message = sanitize.Text(req.Message)
	if req.Message == "" {
		return nil, apperror.NewBadRequest("message is required")
	}

	sess, err := s.repo.FindSession(ctx, caller.ID, req.SessionID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	count, err := s.repo.MessageCount(ctx, caller.ID, sess.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	userTurn := &Message{Role: RoleUser, Content: req.Message, Time: nowISO()}
	if err := s.repo.AppendMessage(ctx, caller.ID, sess.ID, count+1, userTurn); err != nil {
		return nil, apperror.WrapStore(err)
	}

	reply := Reply(req.Message, sess.Role, sess.Focus)

	agentTurn := &Message{Role: RoleAssistant, Content: reply.Reply, Time: nowISO()}
	if err := s.repo.AppendMessage(ctx, caller.ID, sess.ID, count+2, agentTurn); err != nil {
		return nil, apperror.WrapStore(err)
	}

	return &reply, nil
}

// GetSession returns the ordered transcript of a session. Gaps in the
// index (from partial failures) are skipped.
func (s *service) GetSession(ctx context.Context, caller *auth.User, sid string) (*SessionDetail, error) {
	sess, err := s.repo.FindSession(ctx, caller.ID, sid)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	count, err := s.repo.MessageCount(ctx, caller.ID, sess.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	messages := make([]Message, 0, count)
	for i := int64(1); i <= count; i++ {
		msg, err := s.repo.FindMessage(ctx, caller.ID, sess.ID, i)
		if err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return nil, apperror.WrapStore(err)
		}
		messages = append(messages, *msg)
	}

	return &SessionDetail{SessionID: sess.ID, Messages: messages}, nil
}
