// ABOUTME: Dashboard statistics over loaded CRM collections and ASCII rendering
// ABOUTME: Conversion rate, pipeline value, active contacts and recent activity
package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
	"golang.org/x/sync/errgroup"
)

// RecentLimit is how many activities the dashboard lists.
const RecentLimit = 5

// Data is everything the dashboard and graphs are computed from.
type Data struct {
	Deals      []models.Deal
	Contacts   []models.Contact
	Companies  []models.Company
	Activities []models.Activity
}

// Load fetches every collection concurrently. The first failure cancels the
// rest and is returned.
func Load(ctx context.Context, svc *service.Services) (*Data, error) {
	data := &Data{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res := svc.Deals.GetAll(gctx)
		data.Deals = res.Value
		return wrapLoad("deals", res.Err)
	})
	g.Go(func() error {
		res := svc.Contacts.GetAll(gctx)
		data.Contacts = res.Value
		return wrapLoad("contacts", res.Err)
	})
	g.Go(func() error {
		res := svc.Companies.GetAll(gctx)
		data.Companies = res.Value
		return wrapLoad("companies", res.Err)
	})
	g.Go(func() error {
		res := svc.Activities.GetAll(gctx)
		data.Activities = res.Value
		return wrapLoad("activities", res.Err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func wrapLoad(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

type DashboardStats struct {
	TotalDeals     int
	ClosedDeals    int
	PipelineValue  float64
	ClosedValue    float64
	ConversionRate string
	ActiveContacts int
	TotalContacts  int
	TotalCompanies int

	Columns []pipeline.Column
	// Unstaged counts deals whose stage is not in the pipeline.
	Unstaged int

	RecentActivity []ActivityItem
}

type ActivityItem struct {
	Activity models.Activity
	// Contact is the contact's name, empty when the reference dangles.
	Contact string
}

// ConversionRate is closed/total as a percentage with one decimal, "0%" for no deals.
func ConversionRate(closed, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(closed)/float64(total)*100)
}

// ActiveContacts counts contacts whose status is active.
func ActiveContacts(contacts []models.Contact) int {
	n := 0
	for _, c := range contacts {
		if c.Status == models.StatusActive {
			n++
		}
	}
	return n
}

// RecentActivities returns up to limit activities, newest first.
func RecentActivities(activities []models.Activity, limit int) []models.Activity {
	sorted := append([]models.Activity(nil), activities...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// GenerateDashboardStats computes the dashboard from loaded data.
func GenerateDashboardStats(data *Data) *DashboardStats {
	grouping := pipeline.GroupByStage(data.Deals)
	closed := grouping.Deals(models.StageClosed)

	stats := &DashboardStats{
		TotalDeals:     len(data.Deals),
		ClosedDeals:    len(closed),
		PipelineValue:  pipeline.AggregateStageValue(data.Deals),
		ClosedValue:    pipeline.AggregateStageValue(closed),
		ConversionRate: ConversionRate(len(closed), len(data.Deals)),
		ActiveContacts: ActiveContacts(data.Contacts),
		TotalContacts:  len(data.Contacts),
		TotalCompanies: len(data.Companies),
		Columns:        pipeline.Summarize(data.Deals),
		Unstaged:       len(grouping.Unstaged),
	}

	for _, a := range RecentActivities(data.Activities, RecentLimit) {
		stats.RecentActivity = append(stats.RecentActivity, ActivityItem{
			Activity: a,
			Contact:  service.ContactName(data.Contacts, a.ContactID),
		})
	}
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  DEALBOARD DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("METRICS\n")
	out.WriteString(fmt.Sprintf("  Total Deals      %d\n", stats.TotalDeals))
	out.WriteString(fmt.Sprintf("  Pipeline Value   %s\n", pipeline.FormatCurrency(stats.PipelineValue)))
	out.WriteString(fmt.Sprintf("  Closed Value     %s\n", pipeline.FormatCurrency(stats.ClosedValue)))
	out.WriteString(fmt.Sprintf("  Conversion Rate  %s\n", stats.ConversionRate))
	out.WriteString(fmt.Sprintf("  Active Contacts  %d\n\n", stats.ActiveContacts))

	out.WriteString("PIPELINE BY STAGE\n")
	renderPipeline(&out, stats.Columns)
	if stats.Unstaged > 0 {
		out.WriteString(fmt.Sprintf("  ⚠️  %d deals with unknown stage\n", stats.Unstaged))
	}
	out.WriteString("\n")

	out.WriteString("RECENT ACTIVITY\n")
	if len(stats.RecentActivity) == 0 {
		out.WriteString("  No recent activity\n")
	}
	for _, item := range stats.RecentActivity {
		who := item.Contact
		if who == "" {
			who = "Unknown contact"
		}
		out.WriteString(fmt.Sprintf("  %s  %-8s %s: %s\n",
			item.Activity.CreatedAt.Format("Jan 02"), item.Activity.Type, who, item.Activity.Description))
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, cols []pipeline.Column) {
	maxCount := 0
	for _, c := range cols {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, c := range cols {
		barLength := (c.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-10s %s  %2d deals  %10s  (%.1f%%)\n",
			c.Label, bar, c.Count, pipeline.FormatCurrency(c.Value), c.Share))
	}
}
