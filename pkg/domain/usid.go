package domain

import "fmt"

// Code fragments emitted by GenerateUSID for each categorical attribute.
const (
	CodePermanent  = "P"
	CodeDeciduous  = "D"
	CodeMaxillary  = "Mx"
	CodeMandibular = "Md"
	CodeRight      = "R"
	CodeLeft       = "L"
)

// DentitionCode maps a dentition spelling to its identifier fragment. Exactly
// "Permanent" maps to P; every other spelling is treated as deciduous.
func DentitionCode(d Dentition) string {
	if d == DentitionPermanent {
		return CodePermanent
	}
	return CodeDeciduous
}

// ArchCode maps an arch spelling to its identifier fragment. Exactly
// "Maxillary" maps to Mx; every other spelling is treated as mandibular.
func ArchCode(a Arch) string {
	if a == ArchMaxillary {
		return CodeMaxillary
	}
	return CodeMandibular
}

// SideCode maps a side spelling to its identifier fragment. Exactly "Right"
// maps to R; every other spelling is treated as left.
func SideCode(s Side) string {
	if s == SideRight {
		return CodeRight
	}
	return CodeLeft
}

// GenerateUSID builds the unique specimen identifier from a tooth's
// categorical attributes and the sequence count read from the record store.
//
// The function is pure and total: it performs no validation and never fails.
// Callers enforce the two-digit FDI precondition at the submission boundary.
// The count is zero-padded to a minimum of three digits and widens beyond
// 999 without truncation.
func GenerateUSID(fdiCode string, dentition Dentition, arch Arch, side Side, count int) string {
	return fmt.Sprintf("%s-%s-%s-%s-%03d", fdiCode, DentitionCode(dentition), ArchCode(arch), SideCode(side), count)
}

// USID generates the identifier for the identity value.
func (id SpecimenIdentity) USID() string {
	return GenerateUSID(id.FDICode, id.Dentition, id.Arch, id.Side, id.SequenceCount)
}
