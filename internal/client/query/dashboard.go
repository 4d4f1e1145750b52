package query

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
)

const uncategorised = "other"

var (
	openMaintenance    = []string{"pending", "approved", "in_progress"}
	pendingProcurement = []string{"pending", "manager_approved"}
)

// CategoryCount is the number of assets in one category.
type CategoryCount struct {
	Category string
	Count    int
}

// Stats are the headline figures of the dashboard.
type Stats struct {
	TotalAssets         int
	TotalProperties     int
	TotalAssetValue     float64
	TotalPropertyValue  float64
	ActiveLoans         int
	OverdueLoans        int
	OpenMaintenance     int
	PendingProcurement  int
	Notifications       int
	UnreadNotifications int
	AssetsByCategory    []CategoryCount

	RecentAssets     []models.Record
	RecentProperties []models.Record
	RecentLoans      []models.Record
	RecentActivity   []models.Record
}

// Dashboard summarises snap as of now.
func Dashboard(snap map[models.CollectionName][]models.Record, now time.Time) Stats {
	assets := snap[models.Assets]
	properties := snap[models.Properties]
	loans := snap[models.Loans]
	notifications := snap[models.Notifications]

	st := Stats{
		TotalAssets:     len(assets),
		TotalProperties: len(properties),
		Notifications:   len(notifications),
	}

	byCategory := map[string]int{}
	for _, a := range assets {
		if v, ok := a.Float("current_value"); ok {
			st.TotalAssetValue += v
		}
		cat := a.String("category")
		if cat == "" {
			cat = uncategorised
		}
		byCategory[cat]++
	}
	st.AssetsByCategory = make([]CategoryCount, 0, len(byCategory))
	for cat, n := range byCategory {
		st.AssetsByCategory = append(st.AssetsByCategory, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(st.AssetsByCategory, func(i, j int) bool {
		a, b := st.AssetsByCategory[i], st.AssetsByCategory[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})

	for _, p := range properties {
		if v, ok := p.Float("price"); ok && v != 0 {
			st.TotalPropertyValue += v
		} else if v, ok := p.Float("monthly_cost"); ok {
			st.TotalPropertyValue += v
		}
	}

	for _, l := range loans {
		if l.String("status") != "active" {
			continue
		}
		st.ActiveLoans++
		if due, ok := l.Time("expected_return_date"); ok && due.Before(now) {
			st.OverdueLoans++
		}
	}

	st.OpenMaintenance = countStatus(snap[models.Maintenances], openMaintenance)
	st.PendingProcurement = countStatus(snap[models.Procurements], pendingProcurement)

	for _, n := range notifications {
		if read, _ := n["read"].(bool); !read {
			st.UnreadNotifications++
		}
	}

	st.RecentAssets = Recent(assets, 5)
	st.RecentProperties = Recent(properties, 5)
	st.RecentLoans = Recent(loans, 5, "created_date", "loan_date")
	st.RecentActivity = Recent(snap[models.Activities], 6)
	return st
}

func countStatus(records []models.Record, statuses []string) int {
	n := 0
	for _, r := range records {
		s := r.String("status")
		for _, want := range statuses {
			if s == want {
				n++
				break
			}
		}
	}
	return n
}

// CountByStatus counts records per "status" value. A missing status is
// counted as "unknown".
func CountByStatus(records []models.Record) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		s := r.String("status")
		if s == "" {
			s = "unknown"
		}
		out[s]++
	}
	return out
}

func firstTime(r models.Record, fields []string) (time.Time, bool) {
	for _, f := range fields {
		if t, ok := r.Time(f); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
