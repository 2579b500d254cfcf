package engine

import (
	"context"
	"fmt"
	"testing"

	"docassembly-workers/internal/assembly"
	"docassembly-workers/internal/common/errors"
	"docassembly-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// ==========================
// Test Fakes
// ==========================

type fakeSession struct {
	closeErr  error
	closed    int
	aborted   int
	assembled *assembly.AssemblyResponse
}

func (s *fakeSession) Assemble(AssembleRequest) (*assembly.AssemblyResponse, error) {
	return s.assembled, nil
}

func (s *fakeSession) GetInterview(InterviewRequest) ([]assembly.TaggedPart, error) {
	return nil, nil
}

func (s *fakeSession) GetComponentInfo(string, bool) (*ComponentInfo, error) {
	return &ComponentInfo{}, nil
}

func (s *fakeSession) GetInterviewDefinition(string, InterviewFormat) ([]byte, error) {
	return nil, nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return s.closeErr
}

func (s *fakeSession) Abort() { s.aborted++ }

type fakeClient struct {
	session *fakeSession
	openErr error
}

func (c *fakeClient) Open(context.Context) (Session, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.session, nil
}

// ==========================
// Call / WithSession
// ==========================

func TestCall_ClosesSessionOnSuccess(t *testing.T) {
	sess := &fakeSession{assembled: &assembly.AssemblyResponse{UnansweredVariables: []string{"A"}}}
	client := &fakeClient{session: sess}

	resp, err := Call(context.Background(), client, logger.NewTestLogger(t), "assemble",
		func(s Session) (*assembly.AssemblyResponse, error) {
			return s.Assemble(AssembleRequest{})
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, resp.UnansweredVariables)
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, 0, sess.aborted)
}

func TestCall_ClosesSessionWhenOperationFails(t *testing.T) {
	sess := &fakeSession{}
	client := &fakeClient{session: sess}
	opErr := errors.NewEngineRejectedError("assemble", 400, "bad template")

	err := WithSession(context.Background(), client, logger.NewNoOpLogger(), "assemble",
		func(Session) error { return opErr })

	assert.Same(t, opErr, err)
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, 0, sess.aborted)
}

func TestCall_OpenFailureSkipsClose(t *testing.T) {
	openErr := errors.NewEngineCommunicationError("open session", fmt.Errorf("refused"))
	client := &fakeClient{openErr: openErr}
	called := false

	err := WithSession(context.Background(), client, logger.NewNoOpLogger(), "assemble",
		func(Session) error { called = true; return nil })

	assert.Same(t, openErr, err)
	assert.False(t, called)
}

func TestCall_CloseFailureClassification(t *testing.T) {
	tests := []struct {
		name       string
		closeErr   error
		opErr      error
		wantCode   errors.ErrorCode
		wantNilErr bool
	}{
		{
			name:       "communication failure is swallowed",
			closeErr:   errors.NewEngineCommunicationError("close session", fmt.Errorf("reset")),
			wantNilErr: true,
		},
		{
			name:       "timeout is swallowed",
			closeErr:   errors.NewEngineTimeoutError("close session", fmt.Errorf("deadline")),
			wantNilErr: true,
		},
		{
			name:     "unexpected failure propagates",
			closeErr: fmt.Errorf("boom"),
			wantCode: errors.ErrCodeInternal,
		},
		{
			name:     "unexpected failure never masks the operation error",
			closeErr: fmt.Errorf("boom"),
			opErr:    errors.NewEngineRejectedError("assemble", 422, "no"),
			wantCode: errors.ErrCodeEngineRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{closeErr: tt.closeErr}
			client := &fakeClient{session: sess}

			err := WithSession(context.Background(), client, logger.NewNoOpLogger(), "assemble",
				func(Session) error { return tt.opErr })

			assert.Equal(t, 1, sess.closed)
			assert.Equal(t, 1, sess.aborted, "a failed close must abort the session")
			if tt.wantNilErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.Normalize(err).Code)
		})
	}
}

func TestIsCommunicationAndTimeout(t *testing.T) {
	comm := fmt.Errorf("wrapped: %w", errors.NewEngineCommunicationError("x", fmt.Errorf("y")))
	timeout := errors.NewEngineTimeoutError("x", fmt.Errorf("y"))

	assert.True(t, IsCommunication(comm))
	assert.False(t, IsTimeout(comm))
	assert.True(t, IsTimeout(timeout))
	assert.False(t, IsCommunication(fmt.Errorf("plain")))
}
