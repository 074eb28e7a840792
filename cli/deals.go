// ABOUTME: Deal and activity CLI commands
// ABOUTME: Add, list, update, move and delete deals; log and list activities
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/notify"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
)

// now is swapped in tests.
var now = time.Now

// AddDealCommand adds a new deal.
func AddDealCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("add-deal", flag.ContinueOnError)
	title := fs.String("title", "", "Deal title (required)")
	value := fs.Float64("value", 0, "Deal value in dollars (required)")
	stage := fs.String("stage", models.StageLead, "Stage: "+strings.Join(models.Stages, ", "))
	probability := fs.Int("probability", 0, "Win probability 0-100 (default from stage)")
	closeDate := fs.String("close-date", "", "Expected close date YYYY-MM-DD (default 30 days from now)")
	contactID := fs.Int("contact-id", 0, "Contact ID (required)")
	companyID := fs.Int("company-id", 0, "Company ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := forms.NewDealForm(*stage, now())
	form.Stage = *stage
	form.Title = *title
	form.Value = *value
	form.ContactID = *contactID
	form.CompanyID = *companyID
	if *probability > 0 {
		form.Probability = *probability
	}
	if *closeDate != "" {
		form.CloseDate = *closeDate
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return invalidForm(out, "create deal", failures)
	}

	res := svc.Deals.Create(context.Background(), form.ToFields())
	if err := report(out, res, "create deal", ""); err != nil {
		return err
	}

	d := res.Value
	fmt.Fprintf(out, "✓ Deal created: %s (ID: %d)\n", d.Title, d.ID)
	fmt.Fprintf(out, "  Value: %s\n", pipeline.FormatCurrency(d.Value))
	fmt.Fprintf(out, "  Stage: %s (%d%%)\n", d.Stage, d.Probability)
	return nil
}

// ListDealsCommand lists deals, or prints them as board columns with --board.
func ListDealsCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list-deals", flag.ContinueOnError)
	query := fs.String("query", "", "Search by title")
	stage := fs.String("stage", "", "Filter by stage")
	board := fs.Bool("board", false, "Group deals by stage")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	res := svc.Deals.GetAll(ctx)
	if err := report(out, res, "load deals", ""); err != nil {
		return err
	}
	contacts := svc.Contacts.GetAll(ctx).Value

	if *board {
		printBoard(out, res.Value, contacts)
		return nil
	}

	deals := service.FilterDeals(res.Value, *query, *stage)
	if len(deals) == 0 {
		fmt.Fprintln(out, "No deals found")
		return nil
	}
	if *limit > 0 && len(deals) > *limit {
		deals = deals[:*limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tVALUE\tSTAGE\tPROB\tCLOSE\tCONTACT\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t----\t-----\t-------\t--")
	for _, d := range deals {
		closeDate := "-"
		if !d.CloseDate.IsZero() {
			closeDate = d.CloseDate.Format(forms.DateLayout)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\t%s\t%d\n",
			d.Title, pipeline.FormatCurrency(d.Value), orDash(d.Stage), d.Probability, closeDate,
			orDash(service.ContactName(contacts, d.ContactID)), d.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d deal(s), %s\n", len(deals), pipeline.FormatCurrency(pipeline.AggregateStageValue(deals)))
	return nil
}

func printBoard(out io.Writer, deals []models.Deal, contacts []models.Contact) {
	grouping := pipeline.GroupByStage(deals)
	for _, col := range pipeline.Summarize(deals) {
		fmt.Fprintf(out, "%s (%d) %s  %.1f%%\n", strings.ToUpper(col.Label), col.Count, pipeline.FormatCurrency(col.Value), col.Share)
		for _, d := range grouping.Deals(col.Stage) {
			fmt.Fprintf(out, "  [%d] %s  %s  %s\n", d.ID, d.Title, pipeline.FormatCurrency(d.Value),
				orDash(service.ContactName(contacts, d.ContactID)))
		}
		fmt.Fprintln(out)
	}
	if n := len(grouping.Unstaged); n > 0 {
		fmt.Fprintf(out, "! %d deals with unknown stage\n", n)
	}
}

// UpdateDealCommand updates only the flags that were given. Stage changes go
// through move-deal.
func UpdateDealCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("update-deal", flag.ContinueOnError)
	fs.String("title", "", "Deal title")
	fs.Float64("value", 0, "Deal value in dollars")
	fs.Int("probability", 0, "Win probability 0-100")
	fs.String("close-date", "", "Expected close date YYYY-MM-DD")
	fs.Int("contact-id", 0, "Contact ID")
	fs.Int("company-id", 0, "Company ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}

	ctx := context.Background()
	existing := svc.Deals.GetByID(ctx, id)
	if err := report(out, existing, "load deal", ""); err != nil {
		return err
	}

	// Only the given flags are checked; a stored deal with an unknown stage
	// or no contact can still be edited.
	form := forms.DealFormFrom(*existing.Value)
	fields := service.Fields{}
	var set []string
	fs.Visit(func(f *flag.Flag) {
		getter := f.Value.(flag.Getter)
		switch f.Name {
		case "title":
			form.Title = getter.Get().(string)
			fields["title"], set = form.Title, append(set, "Title")
		case "value":
			form.Value = getter.Get().(float64)
			fields["value"], set = form.Value, append(set, "Value")
		case "probability":
			form.Probability = getter.Get().(int)
			fields["probability"], set = form.Probability, append(set, "Probability")
		case "close-date":
			form.CloseDate = getter.Get().(string)
			fields["closeDate"], set = form.CloseDate, append(set, "CloseDate")
		case "contact-id":
			form.ContactID = getter.Get().(int)
			fields["contactId"], set = form.ContactID, append(set, "ContactID")
		case "company-id":
			form.CompanyID = getter.Get().(int)
			fields["companyId"], set = form.CompanyID, append(set, "CompanyID")
		}
	})
	if len(fields) == 0 {
		return fmt.Errorf("nothing to update: pass at least one flag before the deal ID")
	}
	if failures := forms.ValidateFields(form, set...); len(failures) > 0 {
		return invalidForm(out, "update deal", failures)
	}

	res := svc.Deals.Update(ctx, id, fields)
	if err := report(out, res, "update deal", ""); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Deal updated: %s (ID: %d)\n", res.Value.Title, id)
	return nil
}

// MoveDealCommand moves a deal to another stage: move-deal <id> <stage>.
func MoveDealCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("move-deal", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("target stage is required (%s)", strings.Join(models.Stages, ", "))
	}
	target := fs.Arg(1)

	ctx := context.Background()
	current := svc.Deals.GetByID(ctx, id)
	if err := report(out, current, "move deal", ""); err != nil {
		return err
	}

	res := pipeline.MoveDeal(ctx, svc.Deals, *current.Value, target)
	if res.Noop {
		fmt.Fprintf(out, "Deal %d is already in %s\n", id, target)
		return nil
	}
	if !res.OK() {
		c := &notify.Collector{}
		c.Notify(notify.Describe("move deal", res.Err, res.Failures))
		printNotifications(out, c)
		return ErrFailed
	}
	fmt.Fprintf(out, "✓ Moved %s: %s → %s\n", res.Deal.Title, res.From, res.To)
	return nil
}

// DeleteDealCommand deletes a deal after confirmation.
func DeleteDealCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("delete-deal", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}
	return deleteRecord(out, *yes, fmt.Sprintf("delete deal %d", id), func(ctx context.Context) service.Result[bool] {
		return svc.Deals.Delete(ctx, id)
	})
}

// LogActivityCommand records a call, email, meeting or other activity.
func LogActivityCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("log-activity", flag.ContinueOnError)
	form := forms.NewActivityForm()
	fs.StringVar(&form.Type, "type", form.Type, "Type: "+strings.Join(models.ActivityTypes, ", "))
	fs.StringVar(&form.Description, "description", "", "What happened (required)")
	fs.IntVar(&form.ContactID, "contact-id", 0, "Contact ID")
	fs.IntVar(&form.DealID, "deal-id", 0, "Deal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return invalidForm(out, "log activity", failures)
	}

	res := svc.Activities.Create(context.Background(), form.ToFields())
	if err := report(out, res, "log activity", ""); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Activity logged: %s (ID: %d)\n", res.Value.Type, res.Value.ID)
	return nil
}

// ListActivitiesCommand lists activities newest first.
func ListActivitiesCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list-activities", flag.ContinueOnError)
	contactID := fs.Int("contact-id", 0, "Only activities for this contact")
	limit := fs.Int("limit", 20, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	res := svc.Activities.GetAll(ctx)
	if err := report(out, res, "load activities", ""); err != nil {
		return err
	}
	contacts := svc.Contacts.GetAll(ctx).Value

	activities := res.Value
	if *contactID > 0 {
		activities = service.ContactActivities(activities, *contactID)
	}
	if len(activities) == 0 {
		fmt.Fprintln(out, "No activities found")
		return nil
	}
	if *limit > 0 && len(activities) > *limit {
		activities = activities[:*limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTYPE\tCONTACT\tDESCRIPTION\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-------\t-----------\t--")
	for _, a := range activities {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			a.CreatedAt.Format("2006-01-02 15:04"), a.Type,
			orDash(service.ContactName(contacts, a.ContactID)), a.Description, a.ID)
	}
	_ = w.Flush()
	return nil
}

// DeleteActivityCommand deletes an activity after confirmation.
func DeleteActivityCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("delete-activity", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "activity")
	if err != nil {
		return err
	}
	return deleteRecord(out, *yes, fmt.Sprintf("delete activity %d", id), func(ctx context.Context) service.Result[bool] {
		return svc.Activities.Delete(ctx, id)
	})
}
