package core

import "dentalatlas/pkg/domain"

type (
	EntityType         = domain.EntityType
	Dentition          = domain.Dentition
	Arch               = domain.Arch
	Side               = domain.Side
	ToothClass         = domain.ToothClass
	PatientGender      = domain.PatientGender
	MediaReference     = domain.MediaReference
	SpecimenIdentity   = domain.SpecimenIdentity
	SpecimenRecord     = domain.SpecimenRecord
	Change             = domain.Change
	Action             = domain.Action
	Severity           = domain.Severity
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	RulesEngine        = domain.RulesEngine
	RecordStore        = domain.RecordStore
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
)

const (
	EntityRecord = domain.EntityRecord
)

const (
	DentitionPermanent = domain.DentitionPermanent
	DentitionDeciduous = domain.DentitionDeciduous
	ArchMaxillary      = domain.ArchMaxillary
	ArchMandibular     = domain.ArchMandibular
	SideRight          = domain.SideRight
	SideLeft           = domain.SideLeft
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
)
