// sync/contacts_importer_test.go
package sync

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/records"
	"github.com/harperreed/dealboard/records/recordstest"
	"github.com/harperreed/dealboard/service"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/people/v1"
)

func setupTestServices(t *testing.T) (*service.Services, *recordstest.Fake) {
	t.Helper()
	fake := recordstest.New()
	fake.Registry = models.Registry()
	return service.NewServices(fake, zaptest.NewLogger(t)), fake
}

type pagedSource struct {
	pages map[string]*people.ListConnectionsResponse
	err   error
}

func (p *pagedSource) Connections(_ context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.pages[pageToken], nil
}

func person(resource, name, email, org string) *people.Person {
	p := &people.Person{
		ResourceName:   resource,
		Names:          []*people.Name{{DisplayName: name}},
		EmailAddresses: []*people.EmailAddress{{Value: email}},
	}
	if org != "" {
		p.Organizations = []*people.Organization{{Name: org, Title: "Engineer"}}
	}
	return p
}

func TestImportContactCreatesContactAndCompany(t *testing.T) {
	svc, fake := setupTestServices(t)
	ctx := context.Background()

	importer, err := NewContactsImporter(ctx, svc, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to create importer: %v", err)
	}

	outcome, err := importer.ImportContact(ctx, &GoogleContact{
		ResourceName: "people/123",
		Name:         "Alice Smith",
		Email:        "alice@example.com",
		Phone:        "555-1234",
		Company:      "Acme Corp",
	})
	if err != nil {
		t.Fatalf("failed to import contact: %v", err)
	}
	if outcome != Created {
		t.Errorf("expected Created, got %v", outcome)
	}

	contacts := svc.Contacts.GetAll(ctx).Value
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}
	if contacts[0].FirstName != "Alice" || contacts[0].LastName != "Smith" {
		t.Errorf("unexpected name %q %q", contacts[0].FirstName, contacts[0].LastName)
	}
	if contacts[0].CompanyID == 0 {
		t.Error("expected contact to be linked to a company")
	}
	if _, ok := fake.Row(models.TableCompanies, contacts[0].CompanyID); !ok {
		t.Error("expected company to be created")
	}
}

func TestImportContactFillsBlanksOnExisting(t *testing.T) {
	svc, fake := setupTestServices(t)
	fake.Seed(models.TableContacts, records.Record{
		"first_name_c": "Bob", "last_name_c": "Jones", "email_c": "bob@example.com", "title_c": "CTO",
	})
	ctx := context.Background()

	importer, err := NewContactsImporter(ctx, svc, nil)
	if err != nil {
		t.Fatalf("failed to create importer: %v", err)
	}

	outcome, err := importer.ImportContact(ctx, &GoogleContact{
		Name: "Robert Jones", Email: "BOB@example.com", Phone: "555-0000", JobTitle: "Engineer",
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if outcome != Updated {
		t.Errorf("expected Updated, got %v", outcome)
	}

	updates := fake.CallsFor("update")
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	sent := updates[0].Write.Records[0]
	if sent["phone_c"] != "555-0000" {
		t.Errorf("expected phone to be filled, got %v", sent["phone_c"])
	}
	if _, ok := sent["title_c"]; ok {
		t.Error("existing title must not be overwritten")
	}
	if _, ok := sent["first_name_c"]; ok {
		t.Error("name must not be overwritten")
	}

	// a second identical import changes nothing
	outcome, err = importer.ImportContact(ctx, &GoogleContact{Name: "Robert Jones", Email: "bob@example.com", Phone: "555-0000"})
	if err != nil || outcome != Unchanged {
		t.Errorf("expected Unchanged, got %v (%v)", outcome, err)
	}
}

func TestImportContactsPagesAndCounts(t *testing.T) {
	svc, _ := setupTestServices(t)
	source := &pagedSource{pages: map[string]*people.ListConnectionsResponse{
		"": {
			Connections: []*people.Person{
				person("people/1", "Alice Smith", "alice@example.com", "Acme"),
				person("people/2", "", "noname@example.com", ""),
			},
			NextPageToken: "page2",
		},
		"page2": {
			Connections: []*people.Person{
				person("people/3", "Carol White", "carol@example.com", "Acme"),
				person("people/4", "Alice Smith", "alice@example.com", ""),
				person("people/5", "Prince", "prince@example.com", ""),
			},
		},
	}}

	var out bytes.Buffer
	stats, err := ImportContacts(context.Background(), svc, source, &out, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if stats.Fetched != 5 {
		t.Errorf("expected 5 fetched, got %d", stats.Fetched)
	}
	if stats.Created != 2 {
		t.Errorf("expected 2 created, got %d", stats.Created)
	}
	if stats.Unchanged != 1 {
		t.Errorf("expected 1 unchanged duplicate, got %d", stats.Unchanged)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", stats.Skipped)
	}
	if stats.Failed != 1 {
		t.Errorf("expected the single-word name to fail validation, got %d failures", stats.Failed)
	}

	companies := svc.Companies.GetAll(context.Background()).Value
	if len(companies) != 1 {
		t.Errorf("expected one shared company, got %d", len(companies))
	}
}

func TestImportContactsFetchError(t *testing.T) {
	svc, _ := setupTestServices(t)
	source := &pagedSource{err: errors.New("quota exceeded")}

	var out bytes.Buffer
	if _, err := ImportContacts(context.Background(), svc, source, &out, nil); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestImportContactsStoreUnavailable(t *testing.T) {
	svc, fake := setupTestServices(t)
	fake.Err = errors.New("connection refused")

	var out bytes.Buffer
	_, err := ImportContacts(context.Background(), svc, &pagedSource{}, &out, nil)
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestConvertPersonPrefersPrimary(t *testing.T) {
	p := &people.Person{
		ResourceName: "people/9",
		Names:        []*people.Name{{DisplayName: "Dana Scully"}},
		EmailAddresses: []*people.EmailAddress{
			{Value: "work@example.com"},
			{Value: "home@example.com", Metadata: &people.FieldMetadata{Primary: true}},
		},
		PhoneNumbers: []*people.PhoneNumber{{Value: "555-1"}},
	}

	gc := convertPerson(p)
	if gc.Email != "home@example.com" {
		t.Errorf("expected primary email, got %s", gc.Email)
	}
	if gc.Phone != "555-1" {
		t.Errorf("expected first phone, got %s", gc.Phone)
	}
}
