package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/client/session"
)

var profileFields = []struct {
	key    string
	prompt string
}{
	{"full_name", "Full name"},
	{"department", "Department"},
	{"phone", "Phone"},
	{"employee_id", "Employee ID"},
}

func isProfileField(key string) bool {
	for _, f := range profileFields {
		if f.key == key {
			return true
		}
	}
	return false
}

// Profile edits the signed-in user's own details and adopts the updated
// account. Fields are given as field=value or, with no arguments, prompted
// for with the current values as defaults. Values are sent as strings.
func (a *App) Profile(ctx context.Context, args []string) error {
	u := a.session.User()
	if u == nil {
		return a.fail(session.ErrNotSignedIn)
	}
	id, ok := models.NormalizeID(u.ID)
	if !ok {
		return a.fail(models.ErrMissingID)
	}

	payload := models.Record{}
	if len(args) > 0 {
		for _, arg := range args {
			key, val, ok := strings.Cut(arg, "=")
			if !ok || !isProfileField(key) {
				return a.usage("profile [full_name=... department=... phone=... employee_id=...]")
			}
			payload[key] = strings.TrimSpace(val)
		}
	} else {
		current := models.Record(u.Extra).Clone()
		if current == nil {
			current = models.Record{}
		}
		current["full_name"] = u.FullName
		for _, f := range profileFields {
			v, err := GetTextWithDefault(a.reader, f.prompt, current.String(f.key), a.out)
			if err != nil {
				return a.fail(err)
			}
			payload[f.key] = v
		}
	}

	rec, err := a.store.Update(ctx, models.Users, id, payload)
	if err != nil {
		return a.fail(err)
	}
	updated, err := models.UserFromRecord(rec)
	if err == nil {
		err = a.session.AdoptUser(ctx, updated)
	}
	if err != nil {
		return a.fail(err)
	}
	a.println("Profile updated.")
	return nil
}
