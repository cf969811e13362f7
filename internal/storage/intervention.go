package storage

import "time"

// InterventionRecord is one technician work session on a ticket, with the
// billing outcome attached. Once invoiced the record is frozen.
type InterventionRecord struct {
	ID                        int64            `json:"id"`
	TicketID                  int64            `json:"ticket_id"`
	TechnicianID              int64            `json:"technician_id"`
	ClientCode                string           `json:"client_code"`
	MachineID                 int64            `json:"machine_id"`
	ContractID                *int64           `json:"contract_id"`
	Date                      time.Time        `json:"date"`
	StartTime                 time.Time        `json:"start_time"`
	EndTime                   time.Time        `json:"end_time"`
	EffectiveHours            float64          `json:"effective_hours"`
	BillableHours             float64          `json:"billable_hours"`
	Classification            Classification   `json:"classification"`
	CourtesyReason            string           `json:"courtesy_reason,omitempty"`
	HoursDeductedFromContract float64          `json:"hours_deducted"`
	Mode                      InterventionMode `json:"mode"`
	Description               string           `json:"description"`
	Invoiced                  bool             `json:"invoiced"`
	InvoiceNumber             *int64           `json:"invoice_number"`
}

// InvoiceableHours is the part of the billable duration not covered by a
// contract. Courtesy and warranty records never contribute.
func (r InterventionRecord) InvoiceableHours() float64 {
	if !r.Classification.Billable() {
		return 0
	}
	h := r.BillableHours - r.HoursDeductedFromContract
	if h < 0 {
		return 0
	}
	return h
}

// Machine carries only the warranty fields the ledger reads. The machine
// registry itself belongs to the surrounding CRM.
type Machine struct {
	ID                      int64      `json:"id"`
	SerialNumber            string     `json:"serial_number"`
	WarrantyExpiry          *time.Time `json:"warranty_expiry"`
	WarrantyExtensionExpiry *time.Time `json:"warranty_extension_expiry"`
}

// WarrantyValidOn checks the extension first, then the base warranty.
func (m Machine) WarrantyValidOn(date time.Time) bool {
	day := truncateDay(date)
	if m.WarrantyExtensionExpiry != nil && !m.WarrantyExtensionExpiry.Before(day) {
		return true
	}
	return m.WarrantyExpiry != nil && !m.WarrantyExpiry.Before(day)
}
