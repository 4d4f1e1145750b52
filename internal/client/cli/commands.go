package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/assetflow/internal/client/api"
	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/client/query"
	"github.com/dmitrijs2005/assetflow/internal/filex"
)

var errUsage = errors.New("usage")

// usage prints the expected form of a command and returns errUsage.
func (a *App) usage(form string) error {
	a.println("Usage:", form)
	return errUsage
}

func (a *App) collectionArg(args []string, form string, n int) (models.CollectionName, error) {
	if len(args) < n {
		return "", a.usage(form)
	}
	name, err := models.ParseCollection(args[0])
	if err != nil {
		return "", a.fail(err)
	}
	return name, nil
}

// List prints a collection, optionally filtered and sorted.
func (a *App) List(ctx context.Context, args []string) error {
	name, err := a.collectionArg(args, "list <collection> [search] [field=value ...] [sort=field[:desc]]", 1)
	if err != nil {
		return err
	}

	q := parseListArgs(args[1:])
	records := query.Apply(a.store.Collection(name), query.Filter{
		Search:       q.search,
		SearchFields: query.DefaultSearchFields(name),
		Equals:       q.equals,
	})
	if q.sortBy != "" {
		records = query.SortBy(records, q.sortBy, q.desc)
	}

	if len(records) == 0 {
		a.printf("No %s found\n", name)
		return nil
	}
	return renderTable(a.out, records)
}

func (a *App) Show(ctx context.Context, args []string) error {
	name, err := a.collectionArg(args, "show <collection> <id>", 2)
	if err != nil {
		return err
	}
	rec, ok := a.store.Get(name, args[1])
	if !ok {
		a.printf("%s %s not found\n", name, args[1])
		return nil
	}
	return renderRecord(a.out, rec)
}

// Create sends a new record built from field=value arguments. With no
// arguments the fields are prompted for.
func (a *App) Create(ctx context.Context, args []string) error {
	name, err := a.collectionArg(args, "create <collection> [field=value ...]", 1)
	if err != nil {
		return err
	}

	fields := args[1:]
	if len(fields) == 0 {
		if fields, err = GetAssignments(a.reader, a.out); err != nil {
			return a.fail(err)
		}
	}
	payload, err := parseAssignments(fields)
	if err != nil {
		return a.fail(err)
	}
	if len(payload) == 0 {
		a.println("Nothing to create")
		return nil
	}

	rec, err := a.store.Create(ctx, name, payload)
	if err != nil {
		return a.fail(err)
	}
	id, _ := rec.ID()
	a.printf("Created %s %s\n", name, id)
	return nil
}

func (a *App) Update(ctx context.Context, args []string) error {
	name, err := a.collectionArg(args, "update <collection> <id> field=value ...", 3)
	if err != nil {
		return err
	}
	payload, err := parseAssignments(args[2:])
	if err != nil {
		return a.fail(err)
	}
	if _, err := a.store.Update(ctx, name, args[1], payload); err != nil {
		return a.fail(err)
	}
	a.printf("Updated %s %s\n", name, args[1])
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	name, err := a.collectionArg(args, "delete <collection> <id>", 2)
	if err != nil {
		return err
	}
	if err := a.store.Remove(ctx, name, args[1]); err != nil {
		return a.fail(err)
	}
	a.printf("Deleted %s %s\n", name, args[1])
	return nil
}

// Refresh reloads every collection and prints the resulting counts.
func (a *App) Refresh(ctx context.Context) error {
	snap, err := a.store.RefreshAll(ctx)
	if err != nil {
		return a.fail(err)
	}
	parts := make([]string, 0, len(snap))
	for _, name := range models.Collections() {
		parts = append(parts, fmt.Sprintf("%s=%d", name, len(snap[name])))
	}
	a.println("Refreshed:", strings.Join(parts, " "))
	return nil
}

func (a *App) MarkRead(ctx context.Context) error {
	msg, err := a.store.MarkAllNotificationsRead(ctx)
	if err != nil {
		return a.fail(err)
	}
	if msg == "" {
		msg = "All notifications marked as read"
	}
	a.println(msg)
	return nil
}

func (a *App) Dashboard(ctx context.Context) error {
	return renderDashboard(a.out, query.Dashboard(a.store.Snapshot(), a.now()))
}

// Report downloads the asset report into the reports directory. The json
// format is exported from cached data.
func (a *App) Report(ctx context.Context, args []string) error {
	format := api.ReportCSV
	if len(args) > 0 {
		format = api.ReportFormat(strings.ToLower(args[0]))
	}
	if format == "json" {
		return a.exportJSON()
	}
	if format != api.ReportCSV && format != api.ReportPDF {
		return a.usage("report csv|pdf|json")
	}

	filename := fmt.Sprintf("assets-%s.%s", a.now().Format("20060102-150405"), format)
	f, err := filex.CreateInDir(a.reportsDir, filename)
	if err != nil {
		return a.fail(err)
	}

	n, err := a.files.DownloadAssetReport(ctx, format, f)
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

// Upload sends a local image as a property image and prints the server's
// reply.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("upload <image path>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return a.fail(err)
	}
	defer f.Close()

	resp, err := a.files.UploadPropertyImage(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return a.fail(err)
	}
	if url, ok := resp["url"].(string); ok && url != "" {
		a.println("Uploaded:", url)
		return nil
	}
	return renderRecord(a.out, models.Record(resp))
}
