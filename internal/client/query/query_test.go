package query

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idsOf(recs []models.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}

var assets = []models.Record{
	{"id": "1", "name": "MacBook Pro", "category": "it_equipment", "status": "active", "serial_number": "C02X", "current_value": float64(1500)},
	{"id": "2", "name": "Desk", "category": "furniture", "status": "in_repair", "assigned_to_email": "bob@corp.io", "current_value": "200.5"},
	{"id": "3", "name": "Monitor", "category": "it_equipment", "status": "active", "note": "spare macbook screen"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "empty filter", filter: Filter{}, want: []string{"1", "2", "3"}},
		{name: "all is no constraint", filter: Filter{Equals: map[string]string{"category": "all", "status": ""}}, want: []string{"1", "2", "3"}},
		{name: "equals", filter: Filter{Equals: map[string]string{"category": "it_equipment"}}, want: []string{"1", "3"}},
		{name: "equals combined", filter: Filter{Equals: map[string]string{"category": "it_equipment", "status": "in_repair"}}, want: []string{}},
		{name: "search any string field", filter: Filter{Search: "MACBOOK"}, want: []string{"1", "3"}},
		{name: "search restricted fields", filter: Filter{Search: "macbook", SearchFields: DefaultSearchFields(models.Assets)}, want: []string{"1"}},
		{name: "search by email", filter: Filter{Search: "bob@", SearchFields: DefaultSearchFields(models.Assets)}, want: []string{"2"}},
		{name: "search and equals", filter: Filter{Search: "o", Equals: map[string]string{"status": "active"}}, want: []string{"1", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idsOf(Apply(assets, tt.filter)))
		})
	}
}

func TestDefaultSearchFields(t *testing.T) {
	f := DefaultSearchFields(models.Assets)
	require.NotEmpty(t, f)
	f[0] = "mutated"
	assert.Equal(t, "name", DefaultSearchFields(models.Assets)[0])
	assert.Nil(t, DefaultSearchFields(models.Vendors))
}

func TestSortBy(t *testing.T) {
	recs := []models.Record{
		{"id": "a", "name": "delta", "price": float64(10), "created_date": "2024-03-01T10:00:00Z"},
		{"id": "b", "name": "Alpha", "price": float64(2), "created_date": "2024-01-15"},
		{"id": "c", "name": "charlie"},
		{"id": "d", "name": "bravo", "price": float64(10), "created_date": "2024-02-01T00:00:00.123456"},
	}

	tests := []struct {
		name  string
		field string
		desc  bool
		want  []string
	}{
		{name: "string ascending ignores case", field: "name", want: []string{"b", "d", "c", "a"}},
		{name: "numeric stable", field: "price", want: []string{"b", "a", "d", "c"}},
		{name: "numeric descending missing last", field: "price", desc: true, want: []string{"a", "d", "b", "c"}},
		{name: "dates", field: "created_date", want: []string{"b", "d", "a", "c"}},
		{name: "dates descending", field: "created_date", desc: true, want: []string{"a", "d", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortBy(recs, tt.field, tt.desc)
			assert.Equal(t, tt.want, idsOf(got))
		})
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, idsOf(recs), "input is not reordered")
}

func TestRecent(t *testing.T) {
	loans := []models.Record{
		{"id": "1", "loan_date": "2024-01-01"},
		{"id": "2", "created_date": "2024-05-01T00:00:00Z"},
		{"id": "3"},
		{"id": "4", "created_date": "2024-03-01"},
	}
	assert.Equal(t, []string{"2", "4", "1"}, idsOf(Recent(loans, 3, "created_date", "loan_date")))
	assert.Equal(t, []string{"2", "4", "1", "3"}, idsOf(Recent(loans, 10, "created_date", "loan_date")))
	assert.Equal(t, []string{"2", "4"}, idsOf(Recent(loans, 2)))
}

func TestDashboard(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := map[models.CollectionName][]models.Record{
		models.Assets: append(assets, models.Record{"id": "4", "name": "Chair"}),
		models.Properties: {
			{"id": "p1", "price": float64(100000)},
			{"id": "p2", "price": float64(0), "monthly_cost": "2500"},
			{"id": "p3"},
		},
		models.Loans: {
			{"id": "l1", "status": "active", "expected_return_date": "2024-05-01"},
			{"id": "l2", "status": "active", "expected_return_date": "2024-07-01"},
			{"id": "l3", "status": "returned", "expected_return_date": "2024-01-01"},
			{"id": "l4", "status": "active"},
		},
		models.Maintenances: {
			{"id": "m1", "status": "pending"},
			{"id": "m2", "status": "in_progress"},
			{"id": "m3", "status": "completed"},
		},
		models.Procurements: {
			{"id": "r1", "status": "manager_approved"},
			{"id": "r2", "status": "rejected"},
		},
		models.Notifications: {
			{"id": "n1", "read": true},
			{"id": "n2", "read": false},
			{"id": "n3"},
		},
	}

	st := Dashboard(snap, now)

	assert.Equal(t, 4, st.TotalAssets)
	assert.Equal(t, 3, st.TotalProperties)
	assert.InDelta(t, 1700.5, st.TotalAssetValue, 1e-9)
	assert.InDelta(t, 102500, st.TotalPropertyValue, 1e-9)
	assert.Equal(t, 3, st.ActiveLoans)
	assert.Equal(t, 1, st.OverdueLoans)
	assert.Equal(t, 2, st.OpenMaintenance)
	assert.Equal(t, 1, st.PendingProcurement)
	assert.Equal(t, 3, st.Notifications)
	assert.Equal(t, 2, st.UnreadNotifications)
	assert.Equal(t, []CategoryCount{
		{Category: "it_equipment", Count: 2},
		{Category: "furniture", Count: 1},
		{Category: "other", Count: 1},
	}, st.AssetsByCategory)
	assert.Len(t, st.RecentAssets, 4)
}

func TestCountByStatus(t *testing.T) {
	recs := append([]models.Record{{"id": "4"}}, assets...)
	assert.Equal(t, map[string]int{"active": 2, "in_repair": 1, "unknown": 1}, CountByStatus(recs))
	assert.Empty(t, CountByStatus(nil))
}

func TestDashboard_EmptySnapshot(t *testing.T) {
	st := Dashboard(map[models.CollectionName][]models.Record{}, time.Now())
	assert.Zero(t, st.TotalAssets)
	assert.Empty(t, st.AssetsByCategory)
	assert.Empty(t, st.RecentActivity)
}
