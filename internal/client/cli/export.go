package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/client/query"
	"github.com/dmitrijs2005/assetflow/internal/client/store"
	"github.com/dmitrijs2005/assetflow/internal/filex"
)

type reportSummary struct {
	AssetsTotal        int            `json:"assetsTotal"`
	TotalValue         float64        `json:"totalValue"`
	LoansActive        int            `json:"loansActive"`
	MaintenanceOpen    int            `json:"maintenanceOpen"`
	ProcurementPending int            `json:"procurementPending"`
	ByStatus           map[string]int `json:"byStatus"`
}

// jsonReport is built from cached data only; no server call is made.
type jsonReport struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Summary     reportSummary   `json:"summary"`
	Assets      []models.Record `json:"assets"`
	Loans       []models.Record `json:"loans"`
	Maintenance []models.Record `json:"maintenance"`
	Procurement []models.Record `json:"procurement"`
}

func buildJSONReport(snap store.Snapshot, now time.Time) jsonReport {
	st := query.Dashboard(snap, now)
	return jsonReport{
		GeneratedAt: now.UTC(),
		Summary: reportSummary{
			AssetsTotal:        st.TotalAssets,
			TotalValue:         st.TotalAssetValue,
			LoansActive:        st.ActiveLoans,
			MaintenanceOpen:    st.OpenMaintenance,
			ProcurementPending: st.PendingProcurement,
			ByStatus:           query.CountByStatus(snap[models.Assets]),
		},
		Assets:      orEmpty(snap[models.Assets]),
		Loans:       orEmpty(snap[models.Loans]),
		Maintenance: orEmpty(snap[models.Maintenances]),
		Procurement: orEmpty(snap[models.Procurements]),
	}
}

func orEmpty(recs []models.Record) []models.Record {
	if recs == nil {
		return []models.Record{}
	}
	return recs
}

// exportJSON writes the cached report into the reports directory.
func (a *App) exportJSON() error {
	now := a.now()
	b, err := json.MarshalIndent(buildJSONReport(a.store.Snapshot(), now), "", "  ")
	if err != nil {
		return a.fail(err)
	}

	filename := fmt.Sprintf("assetflow-report-%d.json", now.UnixMilli())
	f, err := filex.CreateInDir(a.reportsDir, filename)
	if err != nil {
		return a.fail(err)
	}
	n, err := f.Write(b)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return a.fail(err)
	}
	a.printf("Saved %s (%d bytes)\n", f.Name(), n)
	return nil
}
