package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/api"
	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory DataAPI. Hooks override the default behaviour.
type fakeAPI struct {
	mu      sync.Mutex
	data    map[models.CollectionName][]models.Record
	listErr map[models.CollectionName]error
	calls   map[string]int

	listHook   func(ctx context.Context, c models.CollectionName) ([]models.Record, error)
	createHook func(c models.CollectionName, p models.Record) (models.Record, error)
	updateHook func(c models.CollectionName, id string, p models.Record) (models.Record, error)
	markErr    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		data:    map[models.CollectionName][]models.Record{},
		listErr: map[models.CollectionName]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) List(ctx context.Context, c models.CollectionName) ([]models.Record, error) {
	f.mu.Lock()
	f.calls["list"]++
	hook := f.listHook
	err := f.listErr[c]
	recs := make([]models.Record, 0, len(f.data[c]))
	for _, r := range f.data[c] {
		recs = append(recs, r.Clone())
	}
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (f *fakeAPI) Create(_ context.Context, c models.CollectionName, p models.Record) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.createHook != nil {
		return f.createHook(c, p)
	}
	rec := p.Clone()
	if _, ok := rec.ID(); !ok {
		rec["id"] = fmt.Sprintf("%s-%d", c, f.calls["create"])
	}
	f.data[c] = append([]models.Record{rec.Clone()}, f.data[c]...)
	return rec, nil
}

func (f *fakeAPI) Update(_ context.Context, c models.CollectionName, id string, p models.Record) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.updateHook != nil {
		return f.updateHook(c, id, p)
	}
	for i, r := range f.data[c] {
		if rid, _ := r.ID(); rid == id {
			merged := r.Clone()
			for k, v := range p {
				merged[k] = v
			}
			f.data[c][i] = merged
			return merged.Clone(), nil
		}
	}
	return nil, &api.APIError{Status: 404, Message: "not found"}
}

func (f *fakeAPI) Delete(_ context.Context, c models.CollectionName, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	for i, r := range f.data[c] {
		if rid, _ := r.ID(); rid == id {
			f.data[c] = append(f.data[c][:i], f.data[c][i+1:]...)
			return nil
		}
	}
	return &api.APIError{Status: 404, Message: "not found"}
}

func (f *fakeAPI) MarkAllNotificationsRead(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["mark"]++
	if f.markErr != nil {
		return "", f.markErr
	}
	for _, r := range f.data[models.Notifications] {
		r["read"] = true
	}
	return fmt.Sprintf("%d notifications marked as read.", len(f.data[models.Notifications])), nil
}

func newTestStore(t *testing.T, f *fakeAPI) (*Store, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(f, logging.Nop(), reg), reg
}

func ids(recs []models.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}

func TestNew_AllCollectionsEmpty(t *testing.T) {
	s, _ := newTestStore(t, newFakeAPI())

	snap := s.Snapshot()
	require.Len(t, snap, 9)
	for _, c := range models.Collections() {
		recs, ok := snap[c]
		require.True(t, ok, c)
		assert.Empty(t, recs)
	}
	assert.False(t, s.Loading())
	assert.NoError(t, s.Err())
}

func TestNew_NilRegistererAndLogger(t *testing.T) {
	f := newFakeAPI()
	s := New(f, nil, nil)
	_, err := s.Create(context.Background(), models.Assets, models.Record{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len(models.Assets))
}

func TestRefreshAll_LoadsEveryCollection(t *testing.T) {
	f := newFakeAPI()
	f.data[models.Assets] = []models.Record{{"id": "a1"}, {"id": "a2"}}
	f.data[models.Loans] = []models.Record{{"id": float64(7)}}

	s, reg := newTestStore(t, f)
	snap, err := s.RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9, f.count("list"))
	require.Len(t, snap, 9)
	assert.Equal(t, []string{"a1", "a2"}, ids(snap[models.Assets]))
	assert.Equal(t, []string{"7"}, ids(s.Collection(models.Loans)))

	_, ok := s.Get(models.Loans, "7")
	assert.True(t, ok, "numeric ids are addressable by their string form")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.refreshTotal.WithLabelValues(outcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.records.WithLabelValues("assets")))
	n, err := testutil.GatherAndCount(reg, "assetflow_store_refresh_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRefreshAll_AllFetchesFailYieldsEmptyCollections(t *testing.T) {
	f := newFakeAPI()
	for _, c := range models.Collections() {
		f.listErr[c] = api.ErrUnavailable
	}
	s, _ := newTestStore(t, f)

	snap, err := s.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 9)
	for _, c := range models.Collections() {
		assert.NotNil(t, snap[c], c)
		assert.Empty(t, snap[c], c)
		assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.fetchFailures.WithLabelValues(string(c))))
	}
	assert.NoError(t, s.Err())
}

func TestRefreshAll_PartialFailureIsolated(t *testing.T) {
	f := newFakeAPI()
	f.data[models.Assets] = []models.Record{{"id": "a1"}}
	f.data[models.Vendors] = []models.Record{{"id": "v1"}}
	f.listErr[models.Vendors] = &api.APIError{Status: 500, Message: "boom"}

	s, _ := newTestStore(t, f)
	require.NoError(t, s.SetCollection(models.Vendors, []models.Record{{"id": "stale"}}))

	_, err := s.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids(s.Collection(models.Assets)))
	assert.Empty(t, s.Collection(models.Vendors), "failed fetch degrades to empty, not to the previous value")
}

func TestRefreshAll_CancelledContextLeavesCacheUntouched(t *testing.T) {
	f := newFakeAPI()
	f.data[models.Assets] = []models.Record{{"id": "new"}}
	s, _ := newTestStore(t, f)
	require.NoError(t, s.SetCollection(models.Assets, []models.Record{{"id": "old"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := s.RefreshAll(ctx)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(s.Err(), context.Canceled))
	assert.False(t, s.Loading())
	assert.Equal(t, []string{"old"}, ids(s.Collection(models.Assets)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.refreshTotal.WithLabelValues(outcomeFailed)))
}

func TestRefreshAll_PanicIsReported(t *testing.T) {
	f := newFakeAPI()
	f.listHook = func(_ context.Context, c models.CollectionName) ([]models.Record, error) {
		if c == models.Users {
			panic("decoder exploded")
		}
		return []models.Record{}, nil
	}
	s, _ := newTestStore(t, f)

	_, err := s.RefreshAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder exploded")
	assert.Error(t, s.Err())

	f.mu.Lock()
	f.listHook = nil
	f.mu.Unlock()
	_, err = s.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.NoError(t, s.Err(), "a new refresh clears the previous error")
}

func TestRefreshAll_LoadingWhileInFlight(t *testing.T) {
	f := newFakeAPI()
	release := make(chan struct{})
	started := make(chan struct{}, 9)
	f.listHook = func(ctx context.Context, _ models.CollectionName) ([]models.Record, error) {
		started <- struct{}{}
		<-release
		return []models.Record{}, nil
	}
	s, _ := newTestStore(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := s.RefreshAll(context.Background())
		done <- err
	}()

	<-started
	assert.True(t, s.Loading())
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not finish")
	}
	assert.False(t, s.Loading())
}

func TestRefreshAll_DropsRecordsWithoutUniqueID(t *testing.T) {
	f := newFakeAPI()
	f.data[models.Assets] = []models.Record{{"id": "a"}, {"name": "no id"}, {"id": "a", "dup": true}, {"id": "b"}}
	s, _ := newTestStore(t, f)

	_, err := s.RefreshAll(context.Background())
	require.NoError(t, err)
	got := s.Collection(models.Assets)
	assert.Equal(t, []string{"a", "b"}, ids(got))
	assert.Nil(t, got[0]["dup"], "first occurrence wins")
}

func TestCreate_PrependsServerRecord(t *testing.T) {
	f := newFakeAPI()
	f.createHook = func(_ models.CollectionName, p models.Record) (models.Record, error) {
		return models.Record{"id": "X", "name": p["name"], "status": "active"}, nil
	}
	s, _ := newTestStore(t, f)
	require.NoError(t, s.SetCollection(models.Assets, []models.Record{{"id": "old"}}))

	rec, err := s.Create(context.Background(), models.Assets, models.Record{"name": "Laptop"})
	require.NoError(t, err)

	want := models.Record{"id": "X", "name": "Laptop", "status": "active"}
	assert.Equal(t, want, rec)

	assets := s.Collection(models.Assets)
	require.Len(t, assets, 2)
	assert.Equal(t, want, assets[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.mutations.WithLabelValues("create", outcomeOK)))
}

func TestCreate_ExistingIDIsNotDuplicated(t *testing.T) {
	f := newFakeAPI()
	f.createHook = func(models.CollectionName, models.Record) (models.Record, error) {
		return models.Record{"id": "b", "v": 2}, nil
	}
	s, _ := newTestStore(t, f)
	require.NoError(t, s.SetCollection(models.Loans, []models.Record{{"id": "a"}, {"id": "b", "v": 1}}))

	_, err := s.Create(context.Background(), models.Loans, models.Record{})
	require.NoError(t, err)
	got := s.Collection(models.Loans)
	assert.Equal(t, []string{"b", "a"}, ids(got))
	assert.EqualValues(t, 2, got[0]["v"])
}

func TestCreate_FailureLeavesCollection(t *testing.T) {
	tests := []struct {
		name    string
		hook    func(models.CollectionName, models.Record) (models.Record, error)
		wantErr error
	}{
		{
			name: "server error",
			hook: func(models.CollectionName, models.Record) (models.Record, error) {
				return nil, &api.APIError{Status: 400, Message: "name required"}
			},
			wantErr: api.ErrBadRequest,
		},
		{
			name: "no id in response",
			hook: func(models.CollectionName, models.Record) (models.Record, error) {
				return models.Record{"name": "x"}, nil
			},
			wantErr: models.ErrMissingID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPI()
			f.createHook = tt.hook
			s, _ := newTestStore(t, f)
			before := s.Version()

			_, err := s.Create(context.Background(), models.Assets, models.Record{"name": "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, 0, s.Len(models.Assets))
			assert.Equal(t, before, s.Version())
			assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.mutations.WithLabelValues("create", outcomeFailed)))
		})
	}
}

func TestUnknownCollection(t *testing.T) {
	f := newFakeAPI()
	s, _ := newTestStore(t, f)
	ctx := context.Background()

	_, err := s.Create(ctx, "widgets", models.Record{})
	assert.True(t, errors.Is(err, ErrUnknownCollection))
	_, err = s.Update(ctx, "widgets", "1", models.Record{})
	assert.True(t, errors.Is(err, ErrUnknownCollection))
	assert.True(t, errors.Is(s.Remove(ctx, "widgets", "1"), ErrUnknownCollection))
	assert.True(t, errors.Is(s.SetCollection("widgets", nil), ErrUnknownCollection))

	assert.Equal(t, 0, f.count("create")+f.count("update")+f.count("delete"), "no server call for unknown names")
	assert.Empty(t, s.Collection("widgets"))
	assert.Equal(t, 0, s.Len("widgets"))
}

func TestUpdate_ReplacesInPlace(t *testing.T) {
	f := newFakeAPI()
	f.data[models.Maintenances] = []models.Record{
		{"id": "m1", "status": "pending"},
		{"id": "m2", "status": "pending"},
		{"id": "m3", "status": "pending"},
	}
	s, _ := newTestStore(t, f)
	_, err := s.RefreshAll(context.Background())
	require.NoError(t, err)

	rec, err := s.Update(context.Background(), models.Maintenances, "m2", models.Record{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", rec["status"])

	got := s.Collection(models.Maintenances)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(got))
	assert.Equal(t, models.Record{"id": "m2", "status": "completed"}, got[1])
	assert.Equal(t, models.Record{"id": "m1", "status": "pending"}, got[0])
	assert.Equal(t, models.Record{"id": "m3", "status": "pending"}, got[2])
}

func TestUpdate_NotCachedIsNoop(t *testing.T) {
	f := newFakeAPI()
	f.updateHook = func(_ models.CollectionName, id string, _ models.Record) (models.Record, error) {
		return models.Record{"id": id}, nil
	}
	s, _ := newTestStore(t, f)
	require.NoError(t, s.SetCollection(models.Vendors, []models.Record{{"id": "v1"}}))
	before := s.Version()

	_, err := s.Update(context.Background(), models.Vendors, "ghost", models.Record{})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, ids(s.Collection(models.Vendors)))
	assert.Equal(t, before, s.Version())
}

func TestUpdate_ReturnedIDMustMatch(t *testing.T) {
	f := newFakeAPI()
	f.updateHook = func(_ models.CollectionName, id string, p models.Record) (models.Record, error) {
		if id == "7" {
			return models.Record{"id": 7.0, "name": "Numeric"}, nil
		}
		return models.Record{"id": "other", "name": "Wrong"}, nil
	}
	s, _ := newTestStore(t, f)
	require.NoError(t, s.SetCollection(models.Vendors, []models.Record{{"id": 7.0, "name": "Acme"}, {"id": "v2", "name": "Beta"}}))

	_, err := s.Update(context.Background(), models.Vendors, "7", models.Record{})
	require.NoError(t, err)
	got, ok := s.Get(models.Vendors, "7")
	require.True(t, ok)
	assert.Equal(t, "Numeric", got["name"])

	before := s.Version()
	_, err = s.Update(context.Background(), models.Vendors, "v2", models.Record{})
	require.ErrorIs(t, err, ErrIDMismatch)
	assert.Equal(t, before, s.Version())
	assert.Equal(t, []string{"7", "v2"}, ids(s.Collection(models.Vendors)))
	_, ok = s.Get(models.Vendors, "other")
	assert.False(t, ok)
	got, _ = s.Get(models.Vendors, "v2")
	assert.Equal(t, "Beta", got["name"])

	_, err = s.Update(context.Background(), models.Vendors, "", models.Record{})
	require.ErrorIs(t, err, models.ErrMissingID)
	assert.Equal(t, 2, f.count("update"))
}

func TestUpdate_FailureLeavesCollection(t *testing.T) {
	f := newFakeAPI()
	s, _ := newTestStore(t, f)
	require.NoError(t, s.SetCollection(models.Vendors, []models.Record{{"id": "v1", "name": "Acme"}}))

	_, err := s.Update(context.Background(), models.Vendors, "v1", models.Record{"name": "Other"})
	require.Error(t, err, "fake server has no v1")
	assert.True(t, errors.Is(err, api.ErrNotFound))

	got, ok := s.Get(models.Vendors, "v1")
	require.True(t, ok)
	assert.Equal(t, "Acme", got["name"])
}

func TestRemove_ThenRemoveAgainFails(t *testing.T) {
	f := newFakeAPI()
	f.data[models.Properties] = []models.Record{{"id": "p1"}, {"id": "p2"}}
	s, _ := newTestStore(t, f)
	_, err := s.RefreshAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Remove(context.Background(), models.Properties, "p1"))
	assert.Equal(t, []string{"p2"}, ids(s.Collection(models.Properties)))

	err = s.Remove(context.Background(), models.Properties, "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrNotFound))
	assert.Equal(t, []string{"p2"}, ids(s.Collection(models.Properties)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.mutations.WithLabelValues("remove", outcomeFailed)))
}

func TestSetCollection_Overwrites(t *testing.T) {
	s, _ := newTestStore(t, newFakeAPI())
	require.NoError(t, s.SetCollection(models.Activities, []models.Record{{"id": "x"}}))
	require.NoError(t, s.SetCollection(models.Activities, []models.Record{{"id": "y"}, {"id": "z"}}))
	assert.Equal(t, []string{"y", "z"}, ids(s.Collection(models.Activities)))

	require.NoError(t, s.SetCollection(models.Activities, nil))
	assert.NotNil(t, s.Collection(models.Activities))
	assert.Equal(t, 0, s.Len(models.Activities))
}

func TestMarkAllNotificationsRead(t *testing.T) {
	f := newFakeAPI()
	f.data[models.Notifications] = []models.Record{{"id": "n1", "read": false}, {"id": "n2", "read": false}}
	s, _ := newTestStore(t, f)
	_, err := s.RefreshAll(context.Background())
	require.NoError(t, err)

	msg, err := s.MarkAllNotificationsRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2 notifications marked as read.", msg)
	for _, n := range s.Collection(models.Notifications) {
		assert.Equal(t, true, n["read"])
	}

	f.markErr = api.ErrUnavailable
	_, err = s.MarkAllNotificationsRead(context.Background())
	assert.True(t, errors.Is(err, api.ErrUnavailable))
}

func TestReadersReturnCopies(t *testing.T) {
	s, _ := newTestStore(t, newFakeAPI())
	require.NoError(t, s.SetCollection(models.Assets, []models.Record{
		{"id": "a", "tags": []any{"x"}, "meta": map[string]any{"k": "v"}},
	}))

	got := s.Collection(models.Assets)
	got[0]["id"] = "mutated"
	got[0]["tags"].([]any)[0] = "y"
	got[0]["meta"].(map[string]any)["k"] = "w"

	one, ok := s.Get(models.Assets, "a")
	require.True(t, ok)
	assert.Equal(t, "a", one["id"])
	assert.Equal(t, []any{"x"}, one["tags"])
	assert.Equal(t, map[string]any{"k": "v"}, one["meta"])

	snap := s.Snapshot()
	snap[models.Assets] = nil
	assert.Equal(t, 1, s.Len(models.Assets))
}

func TestVersionIncreasesOnChange(t *testing.T) {
	f := newFakeAPI()
	s, _ := newTestStore(t, f)

	v0 := s.Version()
	_, err := s.Create(context.Background(), models.Assets, models.Record{})
	require.NoError(t, err)
	v1 := s.Version()
	assert.Greater(t, v1, v0)

	_, err = s.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Greater(t, s.Version(), v1)
}

func TestConcurrentMutationsAreSafe(t *testing.T) {
	f := newFakeAPI()
	s, _ := newTestStore(t, f)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Create(context.Background(), models.Assets, models.Record{})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.Loading()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len(models.Assets))
}
