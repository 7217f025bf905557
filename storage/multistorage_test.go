package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/ans-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorageBackend implements interfaces.StorageBackend for testing
type MockStorageBackend struct {
	mock.Mock
	name string
}

func (m *MockStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	args := m.Called(ctx, id, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(interfaces.ContentID), args.Error(1)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.name
}

func (m *MockStorageBackend) LocationURI() string {
	return "mock://" + m.name
}

// backendBehavior describes how one mocked backend answers.
type backendBehavior struct {
	down    bool
	fetched []byte
	err     error
}

var (
	snapshotDoc = []byte(`{"partition":1,"contracts":[],"events":[]}`)
	snapshotID  = interfaces.ComputeID(snapshotDoc)
	errBackend  = errors.New("connection reset")
)

func buildBackends(t *testing.T, behaviors []backendBehavior, expect func(m *MockStorageBackend, b backendBehavior)) (*MultiStorageBackend, []*MockStorageBackend) {
	t.Helper()
	mocks := make([]*MockStorageBackend, len(behaviors))
	backends := make([]interfaces.StorageBackend, len(behaviors))
	for i, b := range behaviors {
		m := &MockStorageBackend{name: fmt.Sprintf("backend-%d", i)}
		m.On("Available", mock.Anything).Return(!b.down).Maybe()
		if !b.down && expect != nil {
			expect(m, b)
		}
		mocks[i], backends[i] = m, m
	}
	t.Cleanup(func() {
		for _, m := range mocks {
			m.AssertExpectations(t)
		}
	})
	return NewMultiStorageBackend(backends, slog.New(slog.NewTextHandler(io.Discard, nil))), mocks
}

func TestMultiStorageBackend_Available(t *testing.T) {
	tests := map[string]struct {
		behaviors []backendBehavior
		expected  bool
	}{
		"all up":      {[]backendBehavior{{}, {}}, true},
		"one up":      {[]backendBehavior{{down: true}, {}, {down: true}}, true},
		"all down":    {[]backendBehavior{{down: true}, {down: true}}, false},
		"no backends": {nil, false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			multi, _ := buildBackends(t, tt.behaviors, nil)
			assert.Equal(t, tt.expected, multi.Available(context.Background()))
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	tests := map[string]struct {
		behaviors []backendBehavior
		calls     []int // backends Fetch must reach, in order
		wantErr   bool
	}{
		"first answers": {
			behaviors: []backendBehavior{{fetched: snapshotDoc}, {fetched: snapshotDoc}},
			calls:     []int{0},
		},
		"falls through an error": {
			behaviors: []backendBehavior{{err: errBackend}, {fetched: snapshotDoc}},
			calls:     []int{0, 1},
		},
		"skips tampered content": {
			behaviors: []backendBehavior{{fetched: []byte(`{"partition":1,"contracts":[{}]}`)}, {fetched: snapshotDoc}},
			calls:     []int{0, 1},
		},
		"skips a backend that is down": {
			behaviors: []backendBehavior{{down: true}, {fetched: snapshotDoc}},
			calls:     []int{1},
		},
		"every backend fails": {
			behaviors: []backendBehavior{{err: errBackend}, {err: interfaces.ErrContentNotFound}},
			calls:     []int{0, 1},
			wantErr:   true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			multi, mocks := buildBackends(t, tt.behaviors, nil)
			for _, i := range tt.calls {
				b := tt.behaviors[i]
				var ret any
				if b.fetched != nil {
					ret = b.fetched
				}
				mocks[i].On("Fetch", mock.Anything, snapshotID, interfaces.SnapshotType).Return(ret, b.err).Once()
			}

			data, err := multi.Fetch(context.Background(), snapshotID, interfaces.SnapshotType)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, snapshotDoc, data)
		})
	}
}

func TestMultiStorageBackend_FetchNotFound(t *testing.T) {
	multi, mocks := buildBackends(t, []backendBehavior{{}}, nil)
	mocks[0].On("Fetch", mock.Anything, snapshotID, interfaces.EventLogType).Return(nil, interfaces.ErrContentNotFound)

	_, err := multi.Fetch(context.Background(), snapshotID, interfaces.EventLogType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	empty := NewMultiStorageBackend(nil, nil)
	_, err = empty.Fetch(context.Background(), snapshotID, interfaces.EventLogType)
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
}

func TestMultiStorageBackend_Store(t *testing.T) {
	tests := map[string]struct {
		behaviors []backendBehavior
		wantErr   bool
	}{
		"every backend stores":      {behaviors: []backendBehavior{{}, {}}},
		"one failure is tolerated":  {behaviors: []backendBehavior{{}, {err: errBackend}}},
		"down backends are skipped": {behaviors: []backendBehavior{{down: true}, {}}},
		"nothing stored":            {behaviors: []backendBehavior{{err: errBackend}, {err: errBackend}}, wantErr: true},
		"every backend down":        {behaviors: []backendBehavior{{down: true}}, wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			multi, _ := buildBackends(t, tt.behaviors, func(m *MockStorageBackend, b backendBehavior) {
				id := snapshotID
				if b.err != nil {
					id = interfaces.ContentID{}
				}
				m.On("Store", mock.Anything, snapshotDoc, interfaces.SnapshotType).Return(id, b.err).Once()
			})

			id, err := multi.Store(context.Background(), snapshotDoc, interfaces.SnapshotType)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			// the id is derived locally, so it is known even on failure
			assert.Equal(t, snapshotID, id)
		})
	}
}

func TestMultiStorageBackend_LocationURI(t *testing.T) {
	multi, _ := buildBackends(t, []backendBehavior{{}, {}}, nil)
	assert.Equal(t, "multi:[mock://backend-0,mock://backend-1]", multi.LocationURI())
	assert.Equal(t, "multi-storage", multi.Name())
}
