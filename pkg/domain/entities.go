// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by the dental atlas intake service.
package domain

import "time"

// EntityType identifies the type of record stored in the domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityRecord identifies a persisted specimen record.
	EntityRecord EntityType = "specimen_record"
)

// Dentition distinguishes the permanent from the deciduous (primary) set.
type Dentition string

// Canonical dentition spellings. Any other spelling is treated as deciduous
// during identifier generation; generation never errors.
const (
	DentitionPermanent Dentition = "Permanent"
	DentitionDeciduous Dentition = "Deciduous"
)

// Arch identifies the upper or lower jaw.
type Arch string

// Canonical arch spellings.
const (
	ArchMaxillary  Arch = "Maxillary"
	ArchMandibular Arch = "Mandibular"
)

// Side identifies the patient-relative side of the arch.
type Side string

// Canonical side spellings.
const (
	SideRight Side = "Right"
	SideLeft  Side = "Left"
)

// ToothClass is the morphological class of a tooth.
type ToothClass string

// Tooth classes offered by the intake form.
const (
	ToothIncisor  ToothClass = "Incisor"
	ToothCanine   ToothClass = "Canine"
	ToothPremolar ToothClass = "Premolar"
	ToothMolar    ToothClass = "Molar"
)

// PatientGender captures the patient demographic field collected with each specimen.
type PatientGender string

// Patient gender values offered by the intake form.
const (
	GenderMale    PatientGender = "Male"
	GenderFemale  PatientGender = "Female"
	GenderUnknown PatientGender = "Unknown"
)

// MediaKind describes how a media reference was obtained.
type MediaKind string

// Media reference kinds.
const (
	// MediaObjectStore marks a link minted by the blob store after a successful upload.
	MediaObjectStore MediaKind = "object_store"
	// MediaExternalLink marks a collector-supplied URL.
	MediaExternalLink MediaKind = "external_link"
	// MediaSentinel marks an absent or failed media slot; Link holds the sentinel text.
	MediaSentinel MediaKind = "sentinel"
)

// Sentinel link values carried in persisted rows when a media slot is absent
// or its upload failed. A failed upload degrades the field, never the row.
const (
	SentinelNoImage      = "No Image"
	SentinelNoFile       = "No File"
	SentinelUploadFailed = "Upload Failed"
)

// MediaReference is one media slot of a specimen record: an object-store link,
// an external URL, or a sentinel.
type MediaReference struct {
	Kind MediaKind `json:"kind"`
	Link string    `json:"link"`
	Key  string    `json:"key,omitempty"` // blob key when Kind == MediaObjectStore
}

// NoImage returns the sentinel reference for an absent image slot.
func NoImage() MediaReference {
	return MediaReference{Kind: MediaSentinel, Link: SentinelNoImage}
}

// NoFile returns the sentinel reference for an absent CBCT slot.
func NoFile() MediaReference {
	return MediaReference{Kind: MediaSentinel, Link: SentinelNoFile}
}

// UploadFailed returns the sentinel reference recorded when an upload failed.
func UploadFailed() MediaReference {
	return MediaReference{Kind: MediaSentinel, Link: SentinelUploadFailed}
}

// Base carries the common persistence fields embedded by stored entities.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SpecimenIdentity is the transient input to identifier generation: the
// categorical attributes of a tooth plus the sequence count read from the
// record store immediately before generation.
type SpecimenIdentity struct {
	FDICode       string    `json:"fdi_code"`
	Dentition     Dentition `json:"dentition"`
	Arch          Arch      `json:"arch"`
	Side          Side      `json:"side"`
	SequenceCount int       `json:"sequence_count"`
}

// SpecimenRecord is one appended row of the atlas. Records are immutable once
// appended; the persistence interfaces expose no update or delete path.
type SpecimenRecord struct {
	Base
	USID           string         `json:"usid"`
	Collector      string         `json:"collector"`
	Source         string         `json:"source"`
	PatientGender  PatientGender  `json:"patient_gender"`
	MedicalHistory string         `json:"medical_history"`
	CollectedAt    time.Time      `json:"collected_at"`
	Dentition      Dentition      `json:"dentition"`
	Arch           Arch           `json:"arch"`
	Side           Side           `json:"side"`
	ToothClass     ToothClass     `json:"tooth_class"`
	FDICode        string         `json:"fdi_code"`
	CrownHeightMM  float64        `json:"crown_height_mm"`
	RootLengthMM   float64        `json:"root_length_mm"`
	Image          MediaReference `json:"image"`
	CBCT           MediaReference `json:"cbct"`
}

// Identity returns the generation input corresponding to the record, paired
// with the supplied sequence count.
func (r SpecimenRecord) Identity(sequenceCount int) SpecimenIdentity {
	return SpecimenIdentity{
		FDICode:       r.FDICode,
		Dentition:     r.Dentition,
		Arch:          r.Arch,
		Side:          r.Side,
		SequenceCount: sequenceCount,
	}
}

// Change captures a single mutation applied within a transaction for rule evaluation.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action identifies the kind of mutation captured in a Change.
type Action string

// Mutation kinds. The atlas store is append-only, so ActionCreate is the only
// action recorded in practice.
const (
	ActionCreate Action = "create"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	// SeverityLog records an informational outcome.
	SeverityLog Severity = "log"
)

// Violation describes a single rule finding.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates rule findings from a transaction.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when a transaction is rejected by blocking rules.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
