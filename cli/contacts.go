// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for managing contacts
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
)

// AddContactCommand adds a new contact.
func AddContactCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ContinueOnError)
	form := forms.NewContactForm()
	fs.StringVar(&form.FirstName, "first", "", "First name (required)")
	fs.StringVar(&form.LastName, "last", "", "Last name (required)")
	fs.StringVar(&form.Email, "email", "", "Email address (required)")
	fs.StringVar(&form.Phone, "phone", "", "Phone number")
	fs.StringVar(&form.Title, "title", "", "Job title")
	fs.StringVar(&form.Status, "status", form.Status, "Status: prospect, active, customer, inactive")
	fs.IntVar(&form.CompanyID, "company-id", 0, "Company ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if failures := forms.Validate(form); len(failures) > 0 {
		return invalidForm(out, "create contact", failures)
	}

	res := svc.Contacts.Create(context.Background(), form.ToFields())
	if err := report(out, res, "create contact", ""); err != nil {
		return err
	}

	contact := res.Value
	fmt.Fprintf(out, "✓ Contact created: %s (ID: %d)\n", contact.FullName(), contact.ID)
	if contact.Email != "" {
		fmt.Fprintf(out, "  Email: %s\n", contact.Email)
	}
	if contact.Phone != "" {
		fmt.Fprintf(out, "  Phone: %s\n", contact.Phone)
	}
	return nil
}

// ListContactsCommand lists contacts matching a search and status.
func ListContactsCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list-contacts", flag.ContinueOnError)
	query := fs.String("query", "", "Search by name, email or title")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	res := svc.Contacts.GetAll(ctx)
	if err := report(out, res, "load contacts", ""); err != nil {
		return err
	}
	companies := svc.Companies.GetAll(ctx).Value

	contacts := service.FilterContacts(res.Value, *query, *status)
	if len(contacts) == 0 {
		fmt.Fprintln(out, "No contacts found")
		return nil
	}
	if *limit > 0 && len(contacts) > *limit {
		contacts = contacts[:*limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tPHONE\tSTATUS\tCOMPANY\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t------\t-------\t--")
	for _, c := range contacts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			c.FullName(), orDash(c.Email), orDash(c.Phone), orDash(c.Status),
			orDash(service.CompanyName(companies, c.CompanyID)), c.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d contact(s)\n", len(contacts))
	return nil
}

// ShowContactCommand prints a contact with its deals and activities.
func ShowContactCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("show-contact", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "contact")
	if err != nil {
		return err
	}

	ctx := context.Background()
	res := svc.Contacts.GetByID(ctx, id)
	if err := report(out, res, "load contact", ""); err != nil {
		return err
	}
	c := res.Value
	companies := svc.Companies.GetAll(ctx).Value
	deals := service.ContactDeals(svc.Deals.GetAll(ctx).Value, id)
	activities := service.ContactActivities(svc.Activities.GetAll(ctx).Value, id)

	fmt.Fprintf(out, "%s (ID: %d)\n", c.FullName(), c.ID)
	fmt.Fprintf(out, "  Email:   %s\n", orDash(c.Email))
	fmt.Fprintf(out, "  Phone:   %s\n", orDash(c.Phone))
	fmt.Fprintf(out, "  Title:   %s\n", orDash(c.Title))
	fmt.Fprintf(out, "  Status:  %s\n", orDash(c.Status))
	fmt.Fprintf(out, "  Company: %s\n", orDash(service.CompanyName(companies, c.CompanyID)))

	fmt.Fprintf(out, "\nDeals (%d)\n", len(deals))
	for _, d := range deals {
		fmt.Fprintf(out, "  [%d] %s  %s  %s\n", d.ID, d.Title, d.Stage, pipeline.FormatCurrency(d.Value))
	}
	fmt.Fprintf(out, "\nActivities (%d)\n", len(activities))
	for _, a := range activities {
		fmt.Fprintf(out, "  %s  %-7s %s\n", a.CreatedAt.Format("2006-01-02"), a.Type, a.Description)
	}
	return nil
}

// UpdateContactCommand updates only the flags that were given.
func UpdateContactCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("update-contact", flag.ContinueOnError)
	fs.String("first", "", "First name")
	fs.String("last", "", "Last name")
	fs.String("email", "", "Email address")
	fs.String("phone", "", "Phone number")
	fs.String("title", "", "Job title")
	fs.String("status", "", "Status: prospect, active, customer, inactive")
	fs.Int("company-id", 0, "Company ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := parseID(fs.Args(), "contact")
	if err != nil {
		return err
	}

	ctx := context.Background()
	existing := svc.Contacts.GetByID(ctx, id)
	if err := report(out, existing, "load contact", ""); err != nil {
		return err
	}

	form := forms.ContactFormFrom(*existing.Value)
	fields := service.Fields{}
	var set []string
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "first":
			form.FirstName, fields["firstName"], set = v, v, append(set, "FirstName")
		case "last":
			form.LastName, fields["lastName"], set = v, v, append(set, "LastName")
		case "email":
			form.Email, fields["email"], set = v, v, append(set, "Email")
		case "phone":
			form.Phone, fields["phone"], set = v, v, append(set, "Phone")
		case "title":
			form.Title, fields["title"], set = v, v, append(set, "Title")
		case "status":
			form.Status, fields["status"], set = v, v, append(set, "Status")
		case "company-id":
			fields["companyId"] = v
		}
	})
	if len(fields) == 0 {
		return fmt.Errorf("nothing to update: pass at least one flag before the contact ID")
	}
	if failures := forms.ValidateFields(form, set...); len(failures) > 0 {
		return invalidForm(out, "update contact", failures)
	}

	res := svc.Contacts.Update(ctx, id, fields)
	if err := report(out, res, "update contact", ""); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Contact updated: %s (ID: %d)\n", res.Value.FullName(), id)
	return nil
}

// DeleteContactCommand deletes a contact after confirmation.
func DeleteContactCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("delete-contact", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "contact")
	if err != nil {
		return err
	}
	return deleteRecord(out, *yes, fmt.Sprintf("delete contact %d", id), func(ctx context.Context) service.Result[bool] {
		return svc.Contacts.Delete(ctx, id)
	})
}

// deleteRecord confirms, deletes and reports.
func deleteRecord(out io.Writer, yes bool, action string, del func(context.Context) service.Result[bool]) error {
	ok, err := confirm(out, yes, action)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Cancelled")
		return nil
	}

	res := del(context.Background())
	if err := report(out, res, action, ""); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Deleted (%s)\n", action)
	return nil
}
