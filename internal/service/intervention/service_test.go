package intervention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fieldcrm-billing/internal/storage"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveIntervention(ctx context.Context, rec storage.InterventionRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) GetIntervention(ctx context.Context, id int64) (*storage.InterventionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.InterventionRecord), args.Error(1)
}

func (m *MockStorage) UpdateIntervention(ctx context.Context, rec storage.InterventionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockStorage) DeleteIntervention(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) GetMachine(ctx context.Context, id int64) (*storage.Machine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Machine), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Debit(ctx context.Context, contractID int64, hours float64) (storage.DebitResult, error) {
	args := m.Called(ctx, contractID, hours)
	return args.Get(0).(storage.DebitResult), args.Error(1)
}

func (m *MockLedger) Credit(ctx context.Context, contractID int64, hours float64) error {
	return m.Called(ctx, contractID, hours).Error(0)
}

func baseRequest() Request {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return Request{
		TicketID:     77,
		TechnicianID: 5,
		ClientCode:   "ACME",
		MachineID:    12,
		Date:         day,
		Start:        day.Add(9 * time.Hour),
		End:          day.Add(10*time.Hour + 10*time.Minute),
		Mode:         storage.ModeOnsite,
		Description:  "replaced spindle sensor",
	}
}

func ptr(v int64) *int64 { return &v }

func TestCreate_ContractDebit(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.ContractID = ptr(3)

	// 1h10m bills as 1.5h.
	ld.On("Debit", mock.Anything, int64(3), 1.5).
		Return(storage.DebitResult{HoursDebited: 1.5}, nil)
	st.On("SaveIntervention", mock.Anything, mock.MatchedBy(func(r storage.InterventionRecord) bool {
		return r.Classification == storage.ClassContract &&
			r.HoursDeductedFromContract == 1.5 &&
			r.BillableHours == 1.5
	})).Return(int64(101), nil)

	rec, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(101), rec.ID)
	assert.Equal(t, 0.0, rec.InvoiceableHours())
	ld.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestCreate_ContractOverflowStaysInvoiceable(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.ContractID = ptr(3)
	req.End = req.Start.Add(2 * time.Hour)

	ld.On("Debit", mock.Anything, int64(3), 2.0).
		Return(storage.DebitResult{HoursDebited: 0.5, HoursOverflow: 1.5}, nil)
	st.On("SaveIntervention", mock.Anything, mock.Anything).Return(int64(102), nil)

	rec, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, storage.ClassContract, rec.Classification)
	assert.Equal(t, 2.0, rec.BillableHours)
	assert.Equal(t, 0.5, rec.HoursDeductedFromContract)
	assert.Equal(t, 1.5, rec.InvoiceableHours())
}

func TestCreate_CourtesyRequiresReason(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.Courtesy = true

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, storage.ErrMissingCourtesyReason)
	ld.AssertNotCalled(t, "Debit")
	st.AssertNotCalled(t, "SaveIntervention")
}

func TestCreate_CourtesyNeverTouchesContract(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.Courtesy = true
	req.CourtesyReason = "goodwill after late delivery"
	req.ContractID = ptr(3) // selection ignored for courtesy work

	st.On("SaveIntervention", mock.Anything, mock.MatchedBy(func(r storage.InterventionRecord) bool {
		return r.Classification == storage.ClassCourtesy &&
			r.HoursDeductedFromContract == 0 &&
			r.ContractID == nil
	})).Return(int64(103), nil)

	rec, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.InvoiceableHours())
	ld.AssertNotCalled(t, "Debit")
}

func TestCreate_WarrantyValid(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.Warranty = true

	expiry := req.Date.AddDate(0, 3, 0)
	st.On("GetMachine", mock.Anything, int64(12)).
		Return(&storage.Machine{ID: 12, WarrantyExpiry: &expiry}, nil)
	st.On("SaveIntervention", mock.Anything, mock.MatchedBy(func(r storage.InterventionRecord) bool {
		return r.Classification == storage.ClassWarranty && r.HoursDeductedFromContract == 0
	})).Return(int64(104), nil)

	rec, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.InvoiceableHours())
	ld.AssertNotCalled(t, "Debit")
}

func TestCreate_WarrantyExpired(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.Warranty = true

	expired := req.Date.AddDate(-1, 0, 0)
	st.On("GetMachine", mock.Anything, int64(12)).
		Return(&storage.Machine{ID: 12, WarrantyExpiry: &expired}, nil)

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, storage.ErrWarrantyNotValid)
	st.AssertNotCalled(t, "SaveIntervention")
}

func TestCreate_WarrantyExtensionCovers(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.Warranty = true

	expired := req.Date.AddDate(-1, 0, 0)
	extension := req.Date.AddDate(0, 1, 0)
	st.On("GetMachine", mock.Anything, int64(12)).
		Return(&storage.Machine{ID: 12, WarrantyExpiry: &expired, WarrantyExtensionExpiry: &extension}, nil)
	st.On("SaveIntervention", mock.Anything, mock.Anything).Return(int64(105), nil)

	rec, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, storage.ClassWarranty, rec.Classification)
}

func TestCreate_NoContractBecomesPendingInvoice(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	st.On("SaveIntervention", mock.Anything, mock.MatchedBy(func(r storage.InterventionRecord) bool {
		return r.Classification == storage.ClassPendingInvoice && r.HoursDeductedFromContract == 0
	})).Return(int64(106), nil)

	rec, err := svc.Create(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, 1.5, rec.InvoiceableHours())
	ld.AssertNotCalled(t, "Debit")
}

func TestCreate_InvalidIntervalBeforeAnyMutation(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.ContractID = ptr(3)
	req.End = req.Start

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, storage.ErrInvalidInterval)
	ld.AssertNotCalled(t, "Debit")
	st.AssertNotCalled(t, "SaveIntervention")
}

func TestCreate_ContractNotActiveSurfaced(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.ContractID = ptr(3)

	ld.On("Debit", mock.Anything, int64(3), 1.5).
		Return(storage.DebitResult{}, storage.ErrContractNotActive)

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, storage.ErrContractNotActive)
	st.AssertNotCalled(t, "SaveIntervention")
}

func TestCreate_SaveFailureCreditsDebitBack(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	req := baseRequest()
	req.ContractID = ptr(3)

	ld.On("Debit", mock.Anything, int64(3), 1.5).
		Return(storage.DebitResult{HoursDebited: 1.5}, nil)
	st.On("SaveIntervention", mock.Anything, mock.Anything).
		Return(int64(0), errors.New("insert failed"))
	ld.On("Credit", mock.Anything, int64(3), 1.5).Return(nil)

	_, err := svc.Create(context.Background(), req)
	assert.Error(t, err)
	ld.AssertCalled(t, "Credit", mock.Anything, int64(3), 1.5)
}

func TestUpdate_CreditsBeforeRedebit(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	existing := &storage.InterventionRecord{
		ID:                        55,
		ContractID:                ptr(3),
		Classification:            storage.ClassContract,
		HoursDeductedFromContract: 1.0,
	}
	st.On("GetIntervention", mock.Anything, int64(55)).Return(existing, nil)

	credited := false
	ld.On("Credit", mock.Anything, int64(3), 1.0).Run(func(mock.Arguments) {
		credited = true
	}).Return(nil)
	ld.On("Debit", mock.Anything, int64(3), 2.0).Run(func(mock.Arguments) {
		assert.True(t, credited, "debit must come after the credit of the previous amount")
	}).Return(storage.DebitResult{HoursDebited: 2.0}, nil)
	st.On("UpdateIntervention", mock.Anything, mock.Anything).Return(nil)

	req := baseRequest()
	req.ContractID = ptr(3)
	req.End = req.Start.Add(2 * time.Hour)

	rec, err := svc.Update(context.Background(), 55, req)
	require.NoError(t, err)
	assert.Equal(t, 2.0, rec.HoursDeductedFromContract)
	ld.AssertExpectations(t)
}

func TestUpdate_InvalidIntervalLeavesLedgerUntouched(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	st.On("GetIntervention", mock.Anything, int64(55)).Return(&storage.InterventionRecord{
		ID: 55, ContractID: ptr(3), Classification: storage.ClassContract,
		HoursDeductedFromContract: 1.0,
	}, nil)

	req := baseRequest()
	req.ContractID = ptr(3)
	req.End = req.Start

	_, err := svc.Update(context.Background(), 55, req)
	assert.ErrorIs(t, err, storage.ErrInvalidInterval)
	ld.AssertNotCalled(t, "Credit")
	ld.AssertNotCalled(t, "Debit")
	st.AssertNotCalled(t, "UpdateIntervention")
}

func TestUpdate_MissingCourtesyReasonLeavesLedgerUntouched(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	st.On("GetIntervention", mock.Anything, int64(55)).Return(&storage.InterventionRecord{
		ID: 55, ContractID: ptr(3), Classification: storage.ClassContract,
		HoursDeductedFromContract: 1.0,
	}, nil)

	req := baseRequest()
	req.Courtesy = true

	_, err := svc.Update(context.Background(), 55, req)
	assert.ErrorIs(t, err, storage.ErrMissingCourtesyReason)
	ld.AssertNotCalled(t, "Credit")
	st.AssertNotCalled(t, "UpdateIntervention")
}

func TestUpdate_StorageFailureCreditsNewDebitBack(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	st.On("GetIntervention", mock.Anything, int64(55)).Return(&storage.InterventionRecord{
		ID: 55, ContractID: ptr(3), Classification: storage.ClassContract,
		HoursDeductedFromContract: 1.0,
	}, nil)
	ld.On("Credit", mock.Anything, int64(3), 1.0).Return(nil)
	ld.On("Debit", mock.Anything, int64(3), 1.5).
		Return(storage.DebitResult{HoursDebited: 1.5}, nil)
	// Another operator invoiced the record between the read and the write.
	st.On("UpdateIntervention", mock.Anything, mock.Anything).
		Return(storage.ErrInterventionInvoiced)
	ld.On("Credit", mock.Anything, int64(3), 1.5).Return(nil)

	req := baseRequest()
	req.ContractID = ptr(3)

	_, err := svc.Update(context.Background(), 55, req)
	assert.ErrorIs(t, err, storage.ErrInterventionInvoiced)
	ld.AssertCalled(t, "Credit", mock.Anything, int64(3), 1.5)
}

func TestUpdate_InvoicedRecordRejected(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	num := int64(42)
	st.On("GetIntervention", mock.Anything, int64(55)).Return(&storage.InterventionRecord{
		ID: 55, Invoiced: true, InvoiceNumber: &num,
	}, nil)

	_, err := svc.Update(context.Background(), 55, baseRequest())
	assert.ErrorIs(t, err, storage.ErrInterventionInvoiced)
	ld.AssertNotCalled(t, "Credit")
	st.AssertNotCalled(t, "UpdateIntervention")
}

func TestDelete_CreditsDebitedHours(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	st.On("GetIntervention", mock.Anything, int64(55)).Return(&storage.InterventionRecord{
		ID: 55, ContractID: ptr(3), HoursDeductedFromContract: 1.5,
	}, nil)
	ld.On("Credit", mock.Anything, int64(3), 1.5).Return(nil)
	st.On("DeleteIntervention", mock.Anything, int64(55)).Return(nil)

	err := svc.Delete(context.Background(), 55)
	require.NoError(t, err)
	ld.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestDelete_InvoicedRecordRejected(t *testing.T) {
	st := new(MockStorage)
	ld := new(MockLedger)
	svc := NewService(st, ld)

	st.On("GetIntervention", mock.Anything, int64(55)).Return(&storage.InterventionRecord{
		ID: 55, Invoiced: true,
	}, nil)

	err := svc.Delete(context.Background(), 55)
	assert.ErrorIs(t, err, storage.ErrInterventionInvoiced)
	st.AssertNotCalled(t, "DeleteIntervention")
}
