package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ContractStatus uint8

const (
	ContractUnknown ContractStatus = iota
	ContractActive
	ContractExpired
	ContractSuspended
)

func ParseContractStatus(s string) ContractStatus {
	switch strings.TrimSpace(s) {
	case "active":
		return ContractActive
	case "expired":
		return ContractExpired
	case "suspended":
		return ContractSuspended
	default:
		return ContractUnknown
	}
}

func (c ContractStatus) String() string {
	switch c {
	case ContractActive:
		return "active"
	case ContractExpired:
		return "expired"
	case ContractSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

type Classification uint8

const (
	ClassUnknown Classification = iota
	ClassContract
	ClassCourtesy
	ClassWarranty
	ClassPendingInvoice
)

func ParseClassification(s string) Classification {
	switch strings.TrimSpace(s) {
	case "contract":
		return ClassContract
	case "courtesy":
		return ClassCourtesy
	case "warranty":
		return ClassWarranty
	case "pending_invoice":
		return ClassPendingInvoice
	default:
		return ClassUnknown
	}
}

func (c Classification) String() string {
	switch c {
	case ClassContract:
		return "contract"
	case ClassCourtesy:
		return "courtesy"
	case ClassWarranty:
		return "warranty"
	case ClassPendingInvoice:
		return "pending_invoice"
	default:
		return "unknown"
	}
}

// Billable reports whether interventions of this classification may carry
// hours onto an invoice. Courtesy and warranty work is never billed.
func (c Classification) Billable() bool {
	return c == ClassContract || c == ClassPendingInvoice
}

type InterventionMode uint8

const (
	ModeUnknown InterventionMode = iota
	ModeRemote
	ModeOnsite
	ModeWarranty
)

func ParseInterventionMode(s string) InterventionMode {
	switch strings.TrimSpace(s) {
	case "remote":
		return ModeRemote
	case "onsite":
		return ModeOnsite
	case "warranty":
		return ModeWarranty
	default:
		return ModeUnknown
	}
}

func (m InterventionMode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModeOnsite:
		return "onsite"
	case ModeWarranty:
		return "warranty"
	default:
		return "unknown"
	}
}

type TariffCategory uint8

const (
	CategoryUnknown TariffCategory = iota
	CategoryStandard
	CategoryHiTech
	CategoryService
	CategoryExtra
	CategoryContract
	CategoryKm
)

func ParseTariffCategory(s string) TariffCategory {
	switch strings.TrimSpace(s) {
	case "standard":
		return CategoryStandard
	case "hi-tech":
		return CategoryHiTech
	case "service":
		return CategoryService
	case "extra":
		return CategoryExtra
	case "contract":
		return CategoryContract
	case "km":
		return CategoryKm
	default:
		return CategoryUnknown
	}
}

func (c TariffCategory) String() string {
	switch c {
	case CategoryStandard:
		return "standard"
	case CategoryHiTech:
		return "hi-tech"
	case CategoryService:
		return "service"
	case CategoryExtra:
		return "extra"
	case CategoryContract:
		return "contract"
	case CategoryKm:
		return "km"
	default:
		return "unknown"
	}
}

type TariffUnit uint8

const (
	UnitUnknown TariffUnit = iota
	UnitHour
	UnitFixed
	UnitKm
)

func ParseTariffUnit(s string) TariffUnit {
	switch strings.TrimSpace(s) {
	case "hour":
		return UnitHour
	case "fixed":
		return UnitFixed
	case "km":
		return UnitKm
	default:
		return UnitUnknown
	}
}

func (u TariffUnit) String() string {
	switch u {
	case UnitHour:
		return "hour"
	case UnitFixed:
		return "fixed"
	case UnitKm:
		return "km"
	default:
		return "unknown"
	}
}

type InvoiceStatus uint8

const (
	InvoiceIssued InvoiceStatus = iota
	InvoiceVoid
)

func ParseInvoiceStatus(s string) InvoiceStatus {
	if strings.TrimSpace(s) == "void" {
		return InvoiceVoid
	}
	return InvoiceIssued
}

func (s InvoiceStatus) String() string {
	if s == InvoiceVoid {
		return "void"
	}
	return "issued"
}

// JSON round-trips use the string form so the API and the DB columns agree.

func (c ContractStatus) MarshalJSON() ([]byte, error)   { return json.Marshal(c.String()) }
func (c Classification) MarshalJSON() ([]byte, error)   { return json.Marshal(c.String()) }
func (m InterventionMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }
func (c TariffCategory) MarshalJSON() ([]byte, error)   { return json.Marshal(c.String()) }
func (u TariffUnit) MarshalJSON() ([]byte, error)       { return json.Marshal(u.String()) }
func (s InvoiceStatus) MarshalJSON() ([]byte, error)    { return json.Marshal(s.String()) }

func (c *ContractStatus) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	*c = ParseContractStatus(s)
	return nil
}

func (c *Classification) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	*c = ParseClassification(s)
	return nil
}

func (m *InterventionMode) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	*m = ParseInterventionMode(s)
	return nil
}

func (c *TariffCategory) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	*c = ParseTariffCategory(s)
	return nil
}

func (u *TariffUnit) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	*u = ParseTariffUnit(s)
	return nil
}

func (s *InvoiceStatus) UnmarshalJSON(b []byte) error {
	v, err := unquote(b)
	if err != nil {
		return err
	}
	*s = ParseInvoiceStatus(v)
	return nil
}

func unquote(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("enum: %w", err)
	}
	return s, nil
}
