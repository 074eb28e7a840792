// ABOUTME: Entity descriptions and typed constructors for contacts, companies, deals and activities
// ABOUTME: Field name mapping, stable sort keys, timestamps and create-time defaults
package service

import (
	"time"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/records"
	"go.uber.org/zap"
)

type (
	ContactService  = Service[models.Contact]
	CompanyService  = Service[models.Company]
	DealService     = Service[models.Deal]
	ActivityService = Service[models.Activity]
)

func stampCreated(rec records.Record, creating bool, now time.Time) {
	if creating {
		if _, ok := rec[models.FieldCreatedAt]; !ok {
			rec[models.FieldCreatedAt] = now.Format(time.RFC3339)
		}
	}
}

var ContactEntity = Entity{
	Name:   "contact",
	Schema: models.ContactSchema,
	Fields: map[string]string{
		"firstName": models.FieldFirstName,
		"lastName":  models.FieldLastName,
		"email":     models.FieldEmail,
		"phone":     models.FieldPhone,
		"title":     models.FieldTitle,
		"status":    models.FieldStatus,
		"companyId": models.FieldCompanyID,
		"createdAt": models.FieldCreatedAt,
	},
	Sort: records.OrderBy{FieldName: models.FieldFirstName, SortType: records.SortAsc},
	Stamp: func(rec records.Record, creating bool, now time.Time) {
		stampCreated(rec, creating, now)
		rec[models.FieldUpdatedAt] = now.Format(time.RFC3339)
		if creating {
			if _, ok := rec[models.FieldStatus]; !ok {
				rec[models.FieldStatus] = models.StatusProspect
			}
		}
	},
}

var CompanyEntity = Entity{
	Name:   "company",
	Schema: models.CompanySchema,
	Fields: map[string]string{
		"name":      models.FieldName,
		"industry":  models.FieldIndustry,
		"size":      models.FieldSize,
		"website":   models.FieldWebsite,
		"address":   models.FieldAddress,
		"createdAt": models.FieldCreatedAt,
	},
	Sort:  records.OrderBy{FieldName: models.FieldName, SortType: records.SortAsc},
	Stamp: stampCreated,
}

var DealEntity = Entity{
	Name:   "deal",
	Schema: models.DealSchema,
	Fields: map[string]string{
		"title":       models.FieldTitle,
		"value":       models.FieldValue,
		"stage":       models.FieldStage,
		"probability": models.FieldProbability,
		"closeDate":   models.FieldCloseDate,
		"contactId":   models.FieldContactID,
		"companyId":   models.FieldCompanyID,
		"createdAt":   models.FieldCreatedAt,
	},
	Sort: records.OrderBy{FieldName: models.FieldCreatedAt, SortType: records.SortDesc},
	Stamp: func(rec records.Record, creating bool, now time.Time) {
		stampCreated(rec, creating, now)
		if !creating {
			return
		}
		stage, ok := rec[models.FieldStage].(string)
		if !ok {
			stage = models.StageLead
			rec[models.FieldStage] = stage
		}
		if _, ok := rec[models.FieldProbability]; !ok {
			rec[models.FieldProbability] = models.DefaultProbability(stage)
		}
	},
}

var ActivityEntity = Entity{
	Name:   "activity",
	Schema: models.ActivitySchema,
	Fields: map[string]string{
		"type":        models.FieldType,
		"description": models.FieldDescription,
		"contactId":   models.FieldContactID,
		"dealId":      models.FieldDealID,
		"createdAt":   models.FieldCreatedAt,
	},
	Sort:  records.OrderBy{FieldName: models.FieldCreatedAt, SortType: records.SortDesc},
	Stamp: stampCreated,
}

func NewContactService(client records.Client, logger *zap.Logger, opts ...Option) *ContactService {
	return New[models.Contact](client, ContactEntity, logger, opts...)
}

func NewCompanyService(client records.Client, logger *zap.Logger, opts ...Option) *CompanyService {
	return New[models.Company](client, CompanyEntity, logger, opts...)
}

func NewDealService(client records.Client, logger *zap.Logger, opts ...Option) *DealService {
	return New[models.Deal](client, DealEntity, logger, opts...)
}

func NewActivityService(client records.Client, logger *zap.Logger, opts ...Option) *ActivityService {
	return New[models.Activity](client, ActivityEntity, logger, opts...)
}

// Services bundles one service per entity.
type Services struct {
	Contacts   *ContactService
	Companies  *CompanyService
	Deals      *DealService
	Activities *ActivityService
}

// NewServices builds every entity service over the same client.
func NewServices(client records.Client, logger *zap.Logger, opts ...Option) *Services {
	return &Services{
		Contacts:   NewContactService(client, logger, opts...),
		Companies:  NewCompanyService(client, logger, opts...),
		Deals:      NewDealService(client, logger, opts...),
		Activities: NewActivityService(client, logger, opts...),
	}
}
