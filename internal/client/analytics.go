package client

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// Dashboard is one load of the admin analytics view.
type Dashboard struct {
	Users    []domain.Identity
	Overview domain.Overview
}

// Query filters and sorts the loaded users.
func (d *Dashboard) Query(q domain.UserQuery) []domain.Identity {
	return domain.QueryUsers(d.Users, q)
}

// Analytics backs the admin dashboard.
type Analytics struct {
	view    View
	api     RegularAPI
	admins  ports.IdentityRepository
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

func NewAnalytics(view View, api RegularAPI, admins ports.IdentityRepository, timeout time.Duration, log zerolog.Logger) *Analytics {
	return &Analytics{
		view:    view,
		api:     api,
		admins:  admins,
		timeout: timeout,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Load gathers regular users from the backend and administrators from the
// document store. Only administrators may load the dashboard.
func (a *Analytics) Load(ctx context.Context) (*Dashboard, error) {
	if !a.view.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	ctx, cancel := callContext(ctx, a.timeout)
	defer cancel()

	regular, err := a.api.ListUsers(ctx, a.view.Token())
	if err != nil {
		a.log.Error().Err(err).Msg("failed to load users from backend")
		return nil, err
	}
	admins, err := a.admins.List(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to load administrators")
		return nil, err
	}

	users := mergeUsers(regular, admins)
	return &Dashboard{Users: users, Overview: domain.Summarize(users, a.now())}, nil
}

// mergeUsers concatenates the lists, dropping repeated ids.
func mergeUsers(lists ...[]domain.Identity) []domain.Identity {
	seen := make(map[string]struct{})
	var out []domain.Identity
	for _, list := range lists {
		for _, u := range list {
			if _, dup := seen[u.ID]; dup {
				continue
			}
			seen[u.ID] = struct{}{}
			u.Normalize()
			out = append(out, u)
		}
	}
	return out
}

var csvHeader = []string{"Name", "Email", "Plan", "Total Revenue", "Monthly Revenue", "Assessments", "Storage Used", "Status", "Created Date"}

// ExportCSV writes users as a CSV table with a header row.
func ExportCSV(w io.Writer, users []domain.Identity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, u := range users {
		row := []string{
			u.DisplayName,
			u.Email,
			string(u.PlanTier),
			strconv.FormatFloat(u.TotalRevenue, 'f', 2, 64),
			strconv.FormatFloat(u.MonthlyRevenue, 'f', 2, 64),
			strconv.Itoa(u.AssessmentsCompleted),
			strconv.FormatFloat(u.StorageUsedMB, 'f', -1, 64),
			string(u.SubscriptionStatus),
			u.CreatedAt.Format(time.DateOnly),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
