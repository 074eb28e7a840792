// ABOUTME: Dashboard, graph, contact and company pages
// ABOUTME: Loads through the entity services and degrades to empty pages with a flash on failure
package web

import (
	"fmt"
	"net/http"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/notify"
	"github.com/harperreed/dealboard/service"
	"github.com/harperreed/dealboard/viz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (s *Server) handleDashboard(c echo.Context) error {
	var notes []notify.Notification
	data, err := viz.Load(c.Request().Context(), s.svc)
	if err != nil {
		notes = append(notes, notify.Describe("load dashboard", err, nil))
		data = &viz.Data{}
	}

	return s.render(c, http.StatusOK, "dashboard.html", map[string]interface{}{
		"Title": "Dashboard",
		"Stats": viz.GenerateDashboardStats(data),
	}, notes...)
}

func (s *Server) handleGraphs(c echo.Context) error {
	ctx := c.Request().Context()
	var notes []notify.Notification
	data, err := viz.Load(ctx, s.svc)
	if err != nil {
		notes = append(notes, notify.Describe("load graphs", err, nil))
		data = &viz.Data{}
	}

	generator := viz.NewGraphGenerator(data, s.logger)
	pipelineDOT, err := generator.GeneratePipelineGraph(ctx)
	if err != nil {
		s.logger.Error("pipeline graph failed", zap.Error(err))
		notes = append(notes, notify.New(notify.LevelError, "Failed to draw pipeline graph"))
	}
	accountDOT, err := generator.GenerateAccountGraph(ctx)
	if err != nil {
		s.logger.Error("account graph failed", zap.Error(err))
		notes = append(notes, notify.New(notify.LevelError, "Failed to draw account graph"))
	}

	return s.render(c, http.StatusOK, "graphs.html", map[string]interface{}{
		"Title":    "Graphs",
		"Pipeline": pipelineDOT,
		"Accounts": accountDOT,
	}, notes...)
}

type contactRow struct {
	models.Contact
	CompanyName string
}

func (s *Server) handleContacts(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")
	status := c.QueryParam("status")

	res := s.svc.Contacts.GetAll(ctx)
	notes, _ := reported(res, "load contacts", "")
	companies := s.svc.Companies.GetAll(ctx).Value

	var rows []contactRow
	for _, contact := range service.FilterContacts(res.Value, query, status) {
		rows = append(rows, contactRow{Contact: contact, CompanyName: service.CompanyName(companies, contact.CompanyID)})
	}

	return s.render(c, http.StatusOK, "contacts.html", map[string]interface{}{
		"Title":    "Contacts",
		"Contacts": rows,
		"Query":    query,
		"Status":   status,
		"Statuses": models.ContactStatuses,
	}, notes...)
}

func (s *Server) handleContact(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res := s.svc.Contacts.GetByID(ctx, id)
	if notes, ok := reported(res, "load contact", ""); !ok {
		return s.redirect(c, "/contacts", notes)
	}
	contact := *res.Value
	companies := s.svc.Companies.GetAll(ctx).Value

	return s.render(c, http.StatusOK, "contact.html", map[string]interface{}{
		"Title":         contact.FullName(),
		"Contact":       contact,
		"CompanyName":   service.CompanyName(companies, contact.CompanyID),
		"Deals":         service.ContactDeals(s.svc.Deals.GetAll(ctx).Value, id),
		"Activities":    service.ContactActivities(s.svc.Activities.GetAll(ctx).Value, id),
		"ActivityForm":  forms.NewActivityForm(),
		"ActivityTypes": models.ActivityTypes,
	})
}

func (s *Server) contactForm(c echo.Context, status int, action string, form forms.ContactForm, failures []service.Failure, extra ...notify.Notification) error {
	title := "New Contact"
	if action != "/contacts" {
		title = "Edit Contact"
	}
	return s.render(c, status, "contact_form.html", map[string]interface{}{
		"Title":     title,
		"Action":    action,
		"Form":      form,
		"Failures":  failures,
		"Statuses":  models.ContactStatuses,
		"Companies": s.svc.Companies.GetAll(c.Request().Context()).Value,
	}, extra...)
}

func (s *Server) handleNewContact(c echo.Context) error {
	return s.contactForm(c, http.StatusOK, "/contacts", forms.NewContactForm(), nil)
}

func (s *Server) handleCreateContact(c echo.Context) error {
	form, err := bind(c, forms.NewContactForm())
	if err != nil {
		return err
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return s.contactForm(c, http.StatusUnprocessableEntity, "/contacts", form, failures, invalid("create contact", failures))
	}

	res := s.svc.Contacts.Create(c.Request().Context(), form.ToFields())
	notes, ok := reported(res, "create contact", "Contact created")
	if !ok {
		return s.contactForm(c, http.StatusUnprocessableEntity, "/contacts", form, res.Failures, notes...)
	}
	return s.redirect(c, fmt.Sprintf("/contacts/%d", res.Value.ID), notes)
}

func (s *Server) handleEditContact(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	res := s.svc.Contacts.GetByID(c.Request().Context(), id)
	if notes, ok := reported(res, "load contact", ""); !ok {
		return s.redirect(c, "/contacts", notes)
	}
	return s.contactForm(c, http.StatusOK, fmt.Sprintf("/contacts/%d", id), forms.ContactFormFrom(*res.Value), nil)
}

func (s *Server) handleUpdateContact(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	action := fmt.Sprintf("/contacts/%d", id)
	form, err := bind(c, forms.ContactForm{})
	if err != nil {
		return err
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return s.contactForm(c, http.StatusUnprocessableEntity, action, form, failures, invalid("update contact", failures))
	}

	res := s.svc.Contacts.Update(c.Request().Context(), id, form.ToFields())
	notes, ok := reported(res, "update contact", "Contact updated")
	if !ok {
		return s.contactForm(c, http.StatusUnprocessableEntity, action, form, res.Failures, notes...)
	}
	return s.redirect(c, action, notes)
}

func (s *Server) handleDeleteContact(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	res := s.svc.Contacts.Delete(c.Request().Context(), id)
	notes, _ := reported(res, "delete contact", "Contact deleted")
	return s.redirect(c, "/contacts", notes)
}

type companyRow struct {
	models.Company
	Contacts int
}

func (s *Server) handleCompanies(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")

	res := s.svc.Companies.GetAll(ctx)
	notes, _ := reported(res, "load companies", "")
	contacts := s.svc.Contacts.GetAll(ctx).Value

	var rows []companyRow
	for _, company := range service.FilterCompanies(res.Value, query) {
		rows = append(rows, companyRow{Company: company, Contacts: len(service.CompanyContacts(contacts, company.ID))})
	}

	return s.render(c, http.StatusOK, "companies.html", map[string]interface{}{
		"Title":     "Companies",
		"Companies": rows,
		"Query":     query,
	}, notes...)
}

func (s *Server) handleCompany(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res := s.svc.Companies.GetByID(ctx, id)
	if notes, ok := reported(res, "load company", ""); !ok {
		return s.redirect(c, "/companies", notes)
	}
	contacts := s.svc.Contacts.GetAll(ctx).Value
	deals := service.CompanyDeals(s.svc.Deals.GetAll(ctx).Value, contacts, id)

	total := 0.0
	for _, d := range deals {
		total += d.Value
	}

	return s.render(c, http.StatusOK, "company.html", map[string]interface{}{
		"Title":      res.Value.Name,
		"Company":    *res.Value,
		"Contacts":   service.CompanyContacts(contacts, id),
		"Deals":      deals,
		"DealsTotal": total,
	})
}

func (s *Server) companyForm(c echo.Context, status int, action string, form forms.CompanyForm, failures []service.Failure, extra ...notify.Notification) error {
	title := "New Company"
	if action != "/companies" {
		title = "Edit Company"
	}
	return s.render(c, status, "company_form.html", map[string]interface{}{
		"Title":    title,
		"Action":   action,
		"Form":     form,
		"Failures": failures,
	}, extra...)
}

func (s *Server) handleNewCompany(c echo.Context) error {
	return s.companyForm(c, http.StatusOK, "/companies", forms.CompanyForm{}, nil)
}

func (s *Server) handleCreateCompany(c echo.Context) error {
	form, err := bind(c, forms.CompanyForm{})
	if err != nil {
		return err
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return s.companyForm(c, http.StatusUnprocessableEntity, "/companies", form, failures, invalid("create company", failures))
	}

	res := s.svc.Companies.Create(c.Request().Context(), form.ToFields())
	notes, ok := reported(res, "create company", "Company created")
	if !ok {
		return s.companyForm(c, http.StatusUnprocessableEntity, "/companies", form, res.Failures, notes...)
	}
	return s.redirect(c, fmt.Sprintf("/companies/%d", res.Value.ID), notes)
}

func (s *Server) handleEditCompany(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	res := s.svc.Companies.GetByID(c.Request().Context(), id)
	if notes, ok := reported(res, "load company", ""); !ok {
		return s.redirect(c, "/companies", notes)
	}
	return s.companyForm(c, http.StatusOK, fmt.Sprintf("/companies/%d", id), forms.CompanyFormFrom(*res.Value), nil)
}

func (s *Server) handleUpdateCompany(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	action := fmt.Sprintf("/companies/%d", id)
	form, err := bind(c, forms.CompanyForm{})
	if err != nil {
		return err
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return s.companyForm(c, http.StatusUnprocessableEntity, action, form, failures, invalid("update company", failures))
	}

	res := s.svc.Companies.Update(c.Request().Context(), id, form.ToFields())
	notes, ok := reported(res, "update company", "Company updated")
	if !ok {
		return s.companyForm(c, http.StatusUnprocessableEntity, action, form, res.Failures, notes...)
	}
	return s.redirect(c, action, notes)
}

func (s *Server) handleDeleteCompany(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	res := s.svc.Companies.Delete(c.Request().Context(), id)
	notes, _ := reported(res, "delete company", "Company deleted")
	return s.redirect(c, "/companies", notes)
}
