// ABOUTME: Google Contacts importer
// ABOUTME: Pages through People API connections and writes them through the entity services
package sync

import (
	"context"
	"fmt"
	"io"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/service"
	"go.uber.org/zap"
	"google.golang.org/api/people/v1"
)

type GoogleContact struct {
	ResourceName string
	Name         string
	Email        string
	Phone        string
	Company      string
	JobTitle     string
}

// Outcome says what importing one contact did.
type Outcome int

const (
	Unchanged Outcome = iota
	Created
	Updated
)

// ImportStats summarises one import run.
type ImportStats struct {
	Fetched   int
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Failed    int
}

type ContactsImporter struct {
	svc     *service.Services
	matcher *ContactMatcher
	logger  *zap.Logger
}

// NewContactsImporter loads existing contacts and companies once so every
// imported row can be matched without further reads.
func NewContactsImporter(ctx context.Context, svc *service.Services, logger *zap.Logger) (*ContactsImporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	contacts := svc.Contacts.GetAll(ctx)
	if contacts.Err != nil {
		return nil, fmt.Errorf("failed to load existing contacts: %w", contacts.Err)
	}
	companies := svc.Companies.GetAll(ctx)
	if companies.Err != nil {
		return nil, fmt.Errorf("failed to load existing companies: %w", companies.Err)
	}
	return &ContactsImporter{
		svc:     svc,
		matcher: NewContactMatcher(contacts.Value, companies.Value),
		logger:  logger,
	}, nil
}

// ImportContact creates a contact or fills the blanks of an existing one.
func (ci *ContactsImporter) ImportContact(ctx context.Context, gc *GoogleContact) (Outcome, error) {
	if existing, found := ci.matcher.FindMatch(gc.Email); found {
		updated, err := ci.updateContact(ctx, existing, gc)
		if err != nil || !updated {
			return Unchanged, err
		}
		return Updated, nil
	}

	form := forms.NewContactForm()
	form.FirstName, form.LastName = splitName(gc.Name)
	form.Email = gc.Email
	form.Phone = gc.Phone
	form.Title = gc.JobTitle
	if failures := forms.Validate(form); len(failures) > 0 {
		return Unchanged, fmt.Errorf("%w: %s", service.ErrInvalid, failures[0])
	}

	if gc.Company != "" {
		id, err := ci.findOrCreateCompany(ctx, gc.Company)
		if err != nil {
			return Unchanged, fmt.Errorf("failed to handle company: %w", err)
		}
		form.CompanyID = id
	}

	res := ci.svc.Contacts.Create(ctx, form.ToFields())
	if res.Err != nil {
		return Unchanged, fmt.Errorf("failed to create contact: %w", res.Err)
	}

	ci.matcher.AddContact(res.Value)
	return Created, nil
}

// updateContact only fills fields the existing contact leaves empty.
func (ci *ContactsImporter) updateContact(ctx context.Context, existing *models.Contact, gc *GoogleContact) (bool, error) {
	fields := service.Fields{}
	if gc.Phone != "" && existing.Phone == "" {
		fields["phone"] = gc.Phone
	}
	if gc.JobTitle != "" && existing.Title == "" {
		fields["title"] = gc.JobTitle
	}
	if gc.Company != "" && existing.CompanyID == 0 {
		id, err := ci.findOrCreateCompany(ctx, gc.Company)
		if err != nil {
			return false, fmt.Errorf("failed to handle company: %w", err)
		}
		fields["companyId"] = id
	}

	if len(fields) == 0 {
		return false, nil
	}

	res := ci.svc.Contacts.Update(ctx, existing.ID, fields)
	if res.Err != nil {
		return false, fmt.Errorf("failed to update contact: %w", res.Err)
	}

	ci.matcher.AddContact(res.Value)
	return true, nil
}

func (ci *ContactsImporter) findOrCreateCompany(ctx context.Context, name string) (int, error) {
	if id, ok := ci.matcher.FindCompany(name); ok {
		return id, nil
	}

	res := ci.svc.Companies.Create(ctx, service.Fields{"name": name})
	if res.Err != nil {
		return 0, res.Err
	}
	ci.matcher.AddCompany(*res.Value)
	return res.Value.ID, nil
}

// ImportContacts pages through every connection and imports each one.
// Row failures are counted and logged; only a failed page aborts the run.
func ImportContacts(ctx context.Context, svc *service.Services, source ConnectionSource, out io.Writer, logger *zap.Logger) (ImportStats, error) {
	var stats ImportStats
	if logger == nil {
		logger = zap.NewNop()
	}

	fmt.Fprintln(out, "Syncing Google Contacts...")
	importer, err := NewContactsImporter(ctx, svc, logger)
	if err != nil {
		return stats, err
	}

	pageToken := ""
	for {
		response, err := source.Connections(ctx, pageToken)
		if err != nil {
			return stats, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		if response == nil || response.Connections == nil {
			break
		}
		stats.Fetched += len(response.Connections)

		for _, person := range response.Connections {
			gc := convertPerson(person)

			// Skip contacts without email or name (both are required)
			if gc.Email == "" || gc.Name == "" {
				stats.Skipped++
				continue
			}

			outcome, err := importer.ImportContact(ctx, gc)
			if err != nil {
				stats.Failed++
				logger.Warn("failed to import contact", zap.String("resource", gc.ResourceName), zap.Error(err))
				fmt.Fprintf(out, "  ✗ Failed to import contact %q: %v\n", gc.Name, err)
				continue
			}
			switch outcome {
			case Created:
				stats.Created++
			case Updated:
				stats.Updated++
			default:
				stats.Unchanged++
			}
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
		fmt.Fprintf(out, "  → Fetched %d contacts so far...\n", stats.Fetched)
	}

	fmt.Fprintf(out, "\n✓ Fetched %d contacts from Google\n", stats.Fetched)
	fmt.Fprintf(out, "  ✓ Created %d, updated %d, unchanged %d, skipped %d\n", stats.Created, stats.Updated, stats.Unchanged, stats.Skipped)
	if stats.Failed > 0 {
		fmt.Fprintf(out, "  ✗ %d contacts failed\n", stats.Failed)
	}
	logger.Info("google contacts import finished",
		zap.Int("fetched", stats.Fetched),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// convertPerson converts a People API Person to GoogleContact.
func convertPerson(person *people.Person) *GoogleContact {
	gc := &GoogleContact{
		ResourceName: person.ResourceName,
	}

	if len(person.Names) > 0 && person.Names[0].DisplayName != "" {
		gc.Name = person.Names[0].DisplayName
	}

	// prefer primary, otherwise first available
	for _, email := range person.EmailAddresses {
		if email.Value == "" {
			continue
		}
		if gc.Email == "" {
			gc.Email = email.Value
		}
		if email.Metadata != nil && email.Metadata.Primary {
			gc.Email = email.Value
			break
		}
	}

	for _, phone := range person.PhoneNumbers {
		if phone.Value == "" {
			continue
		}
		if gc.Phone == "" {
			gc.Phone = phone.Value
		}
		if phone.Metadata != nil && phone.Metadata.Primary {
			gc.Phone = phone.Value
			break
		}
	}

	if len(person.Organizations) > 0 {
		org := person.Organizations[0]
		gc.Company = org.Name
		gc.JobTitle = org.Title
	}

	return gc
}
