// ABOUTME: Deal pipeline board, deal forms and activity logging for the web UI
// ABOUTME: Stage moves go through pipeline.MoveDeal so a same-stage drop never reaches the store
package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/notify"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
	"github.com/labstack/echo/v4"
)

type dealCard struct {
	models.Deal
	ContactName string
	// Targets are the stages the deal can be moved to.
	Targets []string
}

type boardColumn struct {
	pipeline.Column
	Cards []dealCard
}

func (s *Server) handleBoard(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")

	res := s.svc.Deals.GetAll(ctx)
	notes, _ := reported(res, "load deals", "")
	contacts := s.svc.Contacts.GetAll(ctx).Value

	deals := service.FilterDeals(res.Value, query, "")
	grouping := pipeline.GroupByStage(deals)

	var columns []boardColumn
	for _, col := range pipeline.Summarize(deals) {
		bc := boardColumn{Column: col}
		for _, d := range col.Deals {
			bc.Cards = append(bc.Cards, dealCard{
				Deal:        d,
				ContactName: service.ContactName(contacts, d.ContactID),
				Targets:     otherStages(d.Stage),
			})
		}
		columns = append(columns, bc)
	}

	return s.render(c, http.StatusOK, "deals.html", map[string]interface{}{
		"Title":    "Pipeline",
		"Columns":  columns,
		"Unstaged": len(grouping.Unstaged),
		"Total":    pipeline.AggregateStageValue(deals),
		"Query":    query,
	}, notes...)
}

func otherStages(current string) []string {
	out := make([]string, 0, len(models.Stages))
	for _, s := range models.Stages {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

func (s *Server) dealForm(c echo.Context, status int, action string, form forms.DealForm, failures []service.Failure, extra ...notify.Notification) error {
	ctx := c.Request().Context()
	title := "New Deal"
	if action != "/deals" {
		title = "Edit Deal"
	}
	return s.render(c, status, "deal_form.html", map[string]interface{}{
		"Title":     title,
		"Action":    action,
		"Form":      form,
		"Failures":  failures,
		"Stages":    models.Stages,
		"Contacts":  s.svc.Contacts.GetAll(ctx).Value,
		"Companies": s.svc.Companies.GetAll(ctx).Value,
	}, extra...)
}

// handleNewDeal pre-fills the stage when opened from a board column.
func (s *Server) handleNewDeal(c echo.Context) error {
	form := forms.NewDealForm(c.QueryParam("stage"), s.now())
	if id, err := strconv.Atoi(c.QueryParam("contact")); err == nil {
		form.ContactID = id
	}
	return s.dealForm(c, http.StatusOK, "/deals", form, nil)
}

func (s *Server) handleCreateDeal(c echo.Context) error {
	form, err := bind(c, forms.NewDealForm(models.StageLead, s.now()))
	if err != nil {
		return err
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return s.dealForm(c, http.StatusUnprocessableEntity, "/deals", form, failures, invalid("create deal", failures))
	}

	res := s.svc.Deals.Create(c.Request().Context(), form.ToFields())
	notes, ok := reported(res, "create deal", "Deal created")
	if !ok {
		return s.dealForm(c, http.StatusUnprocessableEntity, "/deals", form, res.Failures, notes...)
	}
	return s.redirect(c, "/deals", notes)
}

func (s *Server) handleEditDeal(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	res := s.svc.Deals.GetByID(c.Request().Context(), id)
	if notes, ok := reported(res, "load deal", ""); !ok {
		return s.redirect(c, "/deals", notes)
	}
	return s.dealForm(c, http.StatusOK, fmt.Sprintf("/deals/%d", id), forms.DealFormFrom(*res.Value), nil)
}

// dealFormFields are the DealForm fields an edit checks besides Stage.
var dealFormFields = []string{"Title", "Value", "Probability", "CloseDate", "ContactID", "CompanyID"}

// handleUpdateDeal saves an edit. A stage left as stored is not sent, so a
// deal in a stage outside the pipeline keeps it.
func (s *Server) handleUpdateDeal(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	action := fmt.Sprintf("/deals/%d", id)
	form, err := bind(c, forms.DealForm{})
	if err != nil {
		return err
	}

	stored := s.svc.Deals.GetByID(ctx, id)
	if notes, ok := reported(stored, "load deal", ""); !ok {
		return s.redirect(c, "/deals", notes)
	}
	keepStage := form.Stage == stored.Value.Stage

	checked := dealFormFields
	if !keepStage {
		checked = append([]string{"Stage"}, dealFormFields...)
	}
	if failures := forms.ValidateFields(form, checked...); len(failures) > 0 {
		return s.dealForm(c, http.StatusUnprocessableEntity, action, form, failures, invalid("update deal", failures))
	}

	fields := form.ToFields()
	if keepStage {
		delete(fields, "stage")
	}
	res := s.svc.Deals.Update(ctx, id, fields)
	notes, ok := reported(res, "update deal", "Deal updated")
	if !ok {
		return s.dealForm(c, http.StatusUnprocessableEntity, action, form, res.Failures, notes...)
	}
	return s.redirect(c, "/deals", notes)
}

func (s *Server) handleMoveDeal(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	target := c.FormValue("stage")

	current := s.svc.Deals.GetByID(ctx, id)
	if notes, ok := reported(current, "move deal", ""); !ok {
		return s.redirect(c, "/deals", notes)
	}

	res := pipeline.MoveDeal(ctx, s.svc.Deals, *current.Value, target)
	var note notify.Notification
	switch {
	case res.Noop:
		note = notify.New(notify.LevelInfo, fmt.Sprintf("%s is already in %s", res.Deal.Title, models.StageLabel(target)))
	case !res.OK():
		note = notify.Describe("move deal", res.Err, res.Failures)
	default:
		note = notify.New(notify.LevelSuccess, fmt.Sprintf("Moved %s to %s", res.Deal.Title, models.StageLabel(res.To)))
	}
	return s.redirect(c, "/deals", []notify.Notification{note})
}

func (s *Server) handleDeleteDeal(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	res := s.svc.Deals.Delete(c.Request().Context(), id)
	notes, _ := reported(res, "delete deal", "Deal deleted")
	return s.redirect(c, "/deals", notes)
}

// back is where activity actions return to: the contact page when known.
func back(contactID int) string {
	if contactID > 0 {
		return fmt.Sprintf("/contacts/%d", contactID)
	}
	return "/"
}

func (s *Server) handleLogActivity(c echo.Context) error {
	form, err := bind(c, forms.NewActivityForm())
	if err != nil {
		return err
	}
	if failures := forms.Validate(form); len(failures) > 0 {
		return s.redirect(c, back(form.ContactID), []notify.Notification{invalid("log activity", failures)})
	}

	res := s.svc.Activities.Create(c.Request().Context(), form.ToFields())
	notes, _ := reported(res, "log activity", "Activity logged")
	return s.redirect(c, back(form.ContactID), notes)
}

func (s *Server) handleDeleteActivity(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	contactID, _ := strconv.Atoi(c.FormValue("contactId"))
	res := s.svc.Activities.Delete(c.Request().Context(), id)
	notes, _ := reported(res, "delete activity", "Activity deleted")
	return s.redirect(c, back(contactID), notes)
}
