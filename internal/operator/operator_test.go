package operator

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/finance-tracker/internal/storage"
)

type mockFinisher struct {
	mock.Mock
}

func (m *mockFinisher) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockFinisher) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type fakeOpener struct {
	tx  *mockFinisher
	err error
}

func (f *fakeOpener) Write(context.Context) (*storage.Writer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return storage.NewWriterFromParts(f.tx, nil, nil), nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(ctx context.Context, ownerID string) error {
	return m.Called(ctx, ownerID).Error(0)
}

func (m *mockNotifier) Listen(ownerID string, fn func()) func() {
	return func() {}
}

type fakeAction struct {
	owner string
	err   error
	block chan struct{}

	mu    sync.Mutex
	calls int
}

func (a *fakeAction) Owner() string {
	return a.owner
}

func (a *fakeAction) Perform(context.Context, *storage.Writer) error {
	if a.block != nil {
		<-a.block
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func startDelegator(t *testing.T, opener WriterOpener, notifier *mockNotifier) *OperatorDelegator {
	t.Helper()
	d := NewOperatorDelegator(opener, notifier, quietLogger(), 2)
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func TestProcess_CommitsAndPublishes(t *testing.T) {
	tx := new(mockFinisher)
	tx.On("Commit", mock.Anything).Return(nil)
	notifier := new(mockNotifier)
	notifier.On("Publish", mock.Anything, "u1").Return(nil)

	d := startDelegator(t, &fakeOpener{tx: tx}, notifier)
	action := &fakeAction{owner: "u1"}

	require.NoError(t, d.Process(context.Background(), action))
	assert.Equal(t, 1, action.calls)
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "Rollback", mock.Anything)
	notifier.AssertExpectations(t)
}

func TestProcess_RollsBackOnActionError(t *testing.T) {
	tx := new(mockFinisher)
	tx.On("Rollback", mock.Anything).Return(nil)
	notifier := new(mockNotifier)

	d := startDelegator(t, &fakeOpener{tx: tx}, notifier)
	err := d.Process(context.Background(), &fakeAction{owner: "u1", err: errors.New("constraint violated")})

	assert.EqualError(t, err, "constraint violated")
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "Commit", mock.Anything)
	notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestProcess_CommitFailureDoesNotPublish(t *testing.T) {
	tx := new(mockFinisher)
	tx.On("Commit", mock.Anything).Return(errors.New("serialization failure"))
	notifier := new(mockNotifier)

	d := startDelegator(t, &fakeOpener{tx: tx}, notifier)
	err := d.Process(context.Background(), &fakeAction{owner: "u1"})

	assert.EqualError(t, err, "serialization failure")
	notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestProcess_PublishFailureStillSucceeds(t *testing.T) {
	tx := new(mockFinisher)
	tx.On("Commit", mock.Anything).Return(nil)
	notifier := new(mockNotifier)
	notifier.On("Publish", mock.Anything, "u1").Return(errors.New("broker down"))

	d := startDelegator(t, &fakeOpener{tx: tx}, notifier)

	assert.NoError(t, d.Process(context.Background(), &fakeAction{owner: "u1"}))
	notifier.AssertExpectations(t)
}

func TestProcess_OpenWriterFailure(t *testing.T) {
	d := startDelegator(t, &fakeOpener{err: errors.New("connection refused")}, new(mockNotifier))

	action := &fakeAction{owner: "u1"}
	err := d.Process(context.Background(), action)

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 0, action.calls)
}

func TestProcess_ContextCancelled(t *testing.T) {
	tx := new(mockFinisher)
	tx.On("Commit", mock.Anything).Return(nil)
	notifier := new(mockNotifier)
	notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)

	d := startDelegator(t, &fakeOpener{tx: tx}, notifier)
	block := make(chan struct{})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Process(ctx, &fakeAction{owner: "u1", block: block})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcess_AfterStop(t *testing.T) {
	d := NewOperatorDelegator(&fakeOpener{}, new(mockNotifier), quietLogger(), 1)
	d.Start()
	d.Stop()
	d.Stop()

	assert.ErrorIs(t, d.Process(context.Background(), &fakeAction{}), ErrStopped)
}
