// ABOUTME: Record store table names, field names and schemas for CRM entities
// ABOUTME: Maps the flat _c field layout the store uses to typed columns
package models

import "github.com/harperreed/dealboard/records"

// Table names.
const (
	TableContacts   = "contact_c"
	TableCompanies  = "company_c"
	TableDeals      = "deal_c"
	TableActivities = "activity_c"
)

// Field names shared across tables.
const (
	FieldCreatedAt   = "created_at_c"
	FieldUpdatedAt   = "updated_at_c"
	FieldFirstName   = "first_name_c"
	FieldLastName    = "last_name_c"
	FieldEmail       = "email_c"
	FieldPhone       = "phone_c"
	FieldTitle       = "title_c"
	FieldStatus      = "status_c"
	FieldCompanyID   = "company_id_c"
	FieldName        = "name_c"
	FieldIndustry    = "industry_c"
	FieldSize        = "size_c"
	FieldWebsite     = "website_c"
	FieldAddress     = "address_c"
	FieldValue       = "value_c"
	FieldStage       = "stage_c"
	FieldProbability = "probability_c"
	FieldCloseDate   = "close_date_c"
	FieldContactID   = "contact_id_c"
	FieldDealID      = "deal_id_c"
	FieldType        = "type_c"
	FieldDescription = "description_c"
)

var ContactSchema = records.Schema{
	Table: TableContacts,
	Fields: []records.Field{
		{Name: FieldFirstName, Label: "First Name", Kind: records.KindText, Required: true},
		{Name: FieldLastName, Label: "Last Name", Kind: records.KindText, Required: true},
		{Name: FieldEmail, Label: "Email", Kind: records.KindText},
		{Name: FieldPhone, Label: "Phone", Kind: records.KindText},
		{Name: FieldTitle, Label: "Title", Kind: records.KindText},
		{Name: FieldStatus, Label: "Status", Kind: records.KindPicklist, Options: ContactStatuses},
		{Name: FieldCompanyID, Label: "Company", Kind: records.KindRef},
		{Name: FieldCreatedAt, Label: "Created At", Kind: records.KindTime},
		{Name: FieldUpdatedAt, Label: "Updated At", Kind: records.KindTime},
	},
}

var CompanySchema = records.Schema{
	Table: TableCompanies,
	Fields: []records.Field{
		{Name: FieldName, Label: "Name", Kind: records.KindText, Required: true},
		{Name: FieldIndustry, Label: "Industry", Kind: records.KindText},
		{Name: FieldSize, Label: "Size", Kind: records.KindText},
		{Name: FieldWebsite, Label: "Website", Kind: records.KindText},
		{Name: FieldAddress, Label: "Address", Kind: records.KindText},
		{Name: FieldCreatedAt, Label: "Created At", Kind: records.KindTime},
	},
}

// DealSchema keeps stage as free text so deals with unexpected stages survive a
// round trip; the board decides what to do with them.
var DealSchema = records.Schema{
	Table: TableDeals,
	Fields: []records.Field{
		{Name: FieldTitle, Label: "Title", Kind: records.KindText, Required: true},
		{Name: FieldValue, Label: "Value", Kind: records.KindFloat, NonNegative: true},
		{Name: FieldStage, Label: "Stage", Kind: records.KindText},
		{Name: FieldProbability, Label: "Probability", Kind: records.KindInt, NonNegative: true},
		{Name: FieldCloseDate, Label: "Close Date", Kind: records.KindTime},
		{Name: FieldContactID, Label: "Contact", Kind: records.KindRef},
		{Name: FieldCompanyID, Label: "Company", Kind: records.KindRef},
		{Name: FieldCreatedAt, Label: "Created At", Kind: records.KindTime},
	},
}

var ActivitySchema = records.Schema{
	Table: TableActivities,
	Fields: []records.Field{
		{Name: FieldType, Label: "Type", Kind: records.KindPicklist, Required: true, Options: ActivityTypes},
		{Name: FieldDescription, Label: "Description", Kind: records.KindText, Required: true},
		{Name: FieldContactID, Label: "Contact", Kind: records.KindRef},
		{Name: FieldDealID, Label: "Deal", Kind: records.KindRef},
		{Name: FieldCreatedAt, Label: "Created At", Kind: records.KindTime},
	},
}

// Registry returns the schemas of every CRM table.
func Registry() records.Registry {
	return records.NewRegistry(ContactSchema, CompanySchema, DealSchema, ActivitySchema)
}
