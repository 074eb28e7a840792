// ABOUTME: Company CLI commands
// ABOUTME: Add, list, show, update and delete companies
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

// AddCompanyCommand adds a new company.
func AddCompanyCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("add-company", flag.ContinueOnError)
	var form forms.CompanyForm
	fs.StringVar(&form.Name, "name", "", "Company name (required)")
	fs.StringVar(&form.Industry, "industry", "", "Industry")
	fs.StringVar(&form.Size, "size", "", "Company size, e.g. 50-100")
	fs.StringVar(&form.Website, "website", "", "Website URL")
	fs.StringVar(&form.Address, "address", "", "Address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if failures := forms.Validate(form); len(failures) > 0 {
		return invalidForm(out, "create company", failures)
	}

	res := svc.Companies.Create(context.Background(), form.ToFields())
	if err := report(out, res, "create company", ""); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Company created: %s (ID: %d)\n", res.Value.Name, res.Value.ID)
	if res.Value.Industry != "" {
		fmt.Fprintf(out, "  Industry: %s\n", res.Value.Industry)
	}
	return nil
}

// ListCompaniesCommand lists companies matching a search.
func ListCompaniesCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list-companies", flag.ContinueOnError)
	query := fs.String("query", "", "Search by name or industry")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := svc.Companies.GetAll(context.Background())
	if err := report(out, res, "load companies", ""); err != nil {
		return err
	}

	companies := service.FilterCompanies(res.Value, *query)
	if len(companies) == 0 {
		fmt.Fprintln(out, "No companies found")
		return nil
	}
	if *limit > 0 && len(companies) > *limit {
		companies = companies[:*limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tINDUSTRY\tSIZE\tWEBSITE\tID")
	_, _ = fmt.Fprintln(w, "----\t--------\t----\t-------\t--")
	for _, c := range companies {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			c.Name, orDash(c.Industry), orDash(c.Size), orDash(c.Website), c.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d company(ies)\n", len(companies))
	return nil
}

// ShowCompanyCommand prints a company with its contacts and deals.
func ShowCompanyCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("show-company", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "company")
	if err != nil {
		return err
	}

	ctx := context.Background()
	res := svc.Companies.GetByID(ctx, id)
	if err := report(out, res, "load company", ""); err != nil {
		return err
	}
	company := res.Value
	allContacts := svc.Contacts.GetAll(ctx).Value
	contacts := service.CompanyContacts(allContacts, id)
	deals := service.CompanyDeals(svc.Deals.GetAll(ctx).Value, allContacts, id)

	fmt.Fprintf(out, "%s (ID: %d)\n", company.Name, company.ID)
	fmt.Fprintf(out, "  Industry: %s\n", orDash(company.Industry))
	fmt.Fprintf(out, "  Size:     %s\n", orDash(company.Size))
	fmt.Fprintf(out, "  Website:  %s\n", orDash(company.Website))
	fmt.Fprintf(out, "  Address:  %s\n", orDash(company.Address))

	fmt.Fprintf(out, "\nContacts (%d)\n", len(contacts))
	for _, c := range contacts {
		fmt.Fprintf(out, "  [%d] %s  %s\n", c.ID, c.FullName(), orDash(c.Title))
	}
	fmt.Fprintf(out, "\nDeals (%d, %s)\n", len(deals), pipeline.FormatCurrency(pipeline.AggregateStageValue(deals)))
	for _, d := range deals {
		fmt.Fprintf(out, "  [%d] %s  %s  %s\n", d.ID, d.Title, d.Stage, pipeline.FormatCurrency(d.Value))
	}
	return nil
}

// UpdateCompanyCommand updates only the flags that were given.
func UpdateCompanyCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("update-company", flag.ContinueOnError)
	fs.String("name", "", "Company name")
	fs.String("industry", "", "Industry")
	fs.String("size", "", "Company size")
	fs.String("website", "", "Website URL")
	fs.String("address", "", "Address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "company")
	if err != nil {
		return err
	}

	ctx := context.Background()
	existing := svc.Companies.GetByID(ctx, id)
	if err := report(out, existing, "load company", ""); err != nil {
		return err
	}

	form := forms.CompanyFormFrom(*existing.Value)
	fields := service.Fields{}
	var set []string
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		fields[f.Name] = v
		switch f.Name {
		case "name":
			form.Name, set = v, append(set, "Name")
		case "industry":
			form.Industry, set = v, append(set, "Industry")
		case "size":
			form.Size, set = v, append(set, "Size")
		case "website":
			form.Website, set = v, append(set, "Website")
		case "address":
			form.Address, set = v, append(set, "Address")
		}
	})
	if len(fields) == 0 {
		return fmt.Errorf("nothing to update: pass at least one flag before the company ID")
	}
	if failures := forms.ValidateFields(form, set...); len(failures) > 0 {
		return invalidForm(out, "update company", failures)
	}

	res := svc.Companies.Update(ctx, id, fields)
	if err := report(out, res, "update company", ""); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Company updated: %s (ID: %d)\n", res.Value.Name, id)
	return nil
}

// DeleteCompanyCommand deletes a company after confirmation.
func DeleteCompanyCommand(svc *service.Services, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("delete-company", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "company")
	if err != nil {
		return err
	}
	return deleteRecord(out, *yes, fmt.Sprintf("delete company %d", id), func(ctx context.Context) service.Result[bool] {
		return svc.Companies.Delete(ctx, id)
	})
}
