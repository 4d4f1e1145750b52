package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/client/query"
)

// titleFields are tried in order to pick a human label for a record.
var titleFields = []string{"name", "title", "full_name", "email", "message", "description"}

func title(r models.Record) string {
	for _, f := range titleFields {
		if s := r.String(f); s != "" {
			return s
		}
	}
	return ""
}

func renderTable(w io.Writer, records []models.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
	for _, r := range records {
		id, _ := r.ID()
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, title(r), r.String("status"))
	}
	return tw.Flush()
}

func renderRecord(w io.Writer, r models.Record) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func renderDashboard(w io.Writer, st query.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Assets\t%d\tvalue %.2f\n", st.TotalAssets, st.TotalAssetValue)
	fmt.Fprintf(tw, "Properties\t%d\tvalue %.2f\n", st.TotalProperties, st.TotalPropertyValue)
	fmt.Fprintf(tw, "Active loans\t%d\toverdue %d\n", st.ActiveLoans, st.OverdueLoans)
	fmt.Fprintf(tw, "Open maintenance\t%d\t\n", st.OpenMaintenance)
	fmt.Fprintf(tw, "Pending procurement\t%d\t\n", st.PendingProcurement)
	fmt.Fprintf(tw, "Notifications\t%d\tunread %d\n", st.Notifications, st.UnreadNotifications)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(st.AssetsByCategory) > 0 {
		fmt.Fprintln(w, "\nAssets by category:")
		for _, c := range st.AssetsByCategory {
			fmt.Fprintf(w, "  %s: %d\n", c.Category, c.Count)
		}
	}

	sections := []struct {
		label   string
		records []models.Record
	}{
		{"Recent assets", st.RecentAssets},
		{"Recent properties", st.RecentProperties},
		{"Recent loans", st.RecentLoans},
		{"Recent activity", st.RecentActivity},
	}
	for _, s := range sections {
		if len(s.records) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", s.label)
		if err := renderTable(w, s.records); err != nil {
			return err
		}
	}
	return nil
}
