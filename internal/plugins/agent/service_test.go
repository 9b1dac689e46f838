package agent

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/kvstore"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
)

var alice = &auth.User{ID: "1", Username: "alice"}

func newTestService() Service {
	return NewService(NewRepository(kvstore.NewMemory()))
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func TestCreateSession_SequentialIDs(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	s1, err := svc.CreateSession(ctx, alice, SessionCreateRequest{Role: "后端", Focus: "算法"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s1.SessionID != "1" {
		t.Errorf("expected session id 1, got %s", s1.SessionID)
	}

	s2, err := svc.CreateSession(ctx, alice, SessionCreateRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s2.SessionID != "2" {
		t.Errorf("expected session id 2, got %s", s2.SessionID)
	}
}

func TestChat_AppendsBothTurns(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, alice, SessionCreateRequest{Role: "后端", Focus: "算法"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := svc.Chat(ctx, alice, ChatRequest{SessionID: sess.SessionID, Message: "你好"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Reply == "" {
		t.Fatal("expected a reply")
	}

	detail, err := svc.GetSession(ctx, alice, sess.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(detail.Messages))
	}
	if detail.Messages[0].Role != RoleUser || detail.Messages[0].Content != "你好" {
		t.Errorf("unexpected first turn: %+v", detail.Messages[0])
	}
	if detail.Messages[1].Role != RoleAssistant || detail.Messages[1].Content != resp.Reply {
		t.Errorf("unexpected second turn: %+v", detail.Messages[1])
	}
}

func TestChat_TranscriptOrderAcrossTurns(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, alice, SessionCreateRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, msg := range []string{"你好", "我们聊聊二分", "再聊聊哈希"} {
		if _, err := svc.Chat(ctx, alice, ChatRequest{SessionID: sess.SessionID, Message: msg}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	detail, err := svc.GetSession(ctx, alice, sess.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Messages) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(detail.Messages))
	}
	for i, m := range detail.Messages {
		wantRole := RoleUser
		if i%2 == 1 {
			wantRole = RoleAssistant
		}
		if m.Role != wantRole {
			t.Errorf("message %d: expected role %s, got %s", i, wantRole, m.Role)
		}
	}
	if detail.Messages[2].Content != "我们聊聊二分" {
		t.Errorf("unexpected transcript order: %+v", detail.Messages[2])
	}
}

func TestChat_StripsMarkupFromUserTurn(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, alice, SessionCreateRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Chat(ctx, alice, ChatRequest{SessionID: sess.SessionID, Message: "<b>你好</b>"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	detail, err := svc.GetSession(ctx, alice, sess.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Messages[0].Content != "你好" {
		t.Errorf("expected stored turn %q, got %q", "你好", detail.Messages[0].Content)
	}

	// A message that is nothing but markup collapses to empty and is rejected.
	_, err = svc.Chat(ctx, alice, ChatRequest{SessionID: sess.SessionID, Message: "<script>alert(1)</script>"})
	assertAppError(t, err, http.StatusBadRequest)
}

func TestChat_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, alice, SessionCreateRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Chat(ctx, alice, ChatRequest{SessionID: sess.SessionID, Message: ""})
	assertAppError(t, err, http.StatusBadRequest)
}

func TestChat_UnknownSession(t *testing.T) {
	svc := newTestService()

	_, err := svc.Chat(context.Background(), alice, ChatRequest{SessionID: "999", Message: "你好"})
	assertAppError(t, err, http.StatusNotFound)
}

func TestGetSession_ScopedToOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, alice, SessionCreateRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sessions are namespaced per user, so another user's id space does not
	// see this session.
	bob := &auth.User{ID: "2", Username: "bob"}
	_, err = svc.GetSession(ctx, bob, sess.SessionID)
	assertAppError(t, err, http.StatusNotFound)
}
