package expense

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/fkhayef/pantryledger/internal/apperrors"
	"github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/internal/household"
	"github.com/fkhayef/pantryledger/internal/money"
	"github.com/fkhayef/pantryledger/internal/notification"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, e *Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockStore) GetByID(ctx context.Context, householdID, id string) (*Expense, error) {
	args := m.Called(ctx, householdID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Expense), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, householdID string, status Status, limit, offset int) ([]*Expense, int, error) {
	args := m.Called(ctx, householdID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Expense), args.Int(1), args.Error(2)
}

func (m *MockStore) ListByItem(ctx context.Context, householdID, itemID string) ([]*Expense, error) {
	args := m.Called(ctx, householdID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Expense), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, e *Expense, expectedVersion int64) error {
	args := m.Called(ctx, e, expectedVersion)
	if args.Error(0) == nil {
		e.Version = expectedVersion + 1
	}
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, householdID, id string, expectedVersion int64) error {
	args := m.Called(ctx, householdID, id, expectedVersion)
	return args.Error(0)
}

type staticDirectory []household.Member

func (d staticDirectory) ListMembers(context.Context, string) ([]household.Member, error) {
	return d, nil
}

type eventLog struct {
	events []notification.Event
}

func (l *eventLog) Publish(e notification.Event) {
	l.events = append(l.events, e)
}

type ServiceTestSuite struct {
	suite.Suite
	store   *MockStore
	events  *eventLog
	service *Service
	ctx     context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = new(MockStore)
	s.events = &eventLog{}
	s.ctx = context.Background()
	s.service = s.newService(staticDirectory{
		{ID: "a", Name: "Ana"},
		{ID: "b", Name: "Ben"},
		{ID: "c", Name: "Cleo"},
	})
}

func (s *ServiceTestSuite) newService(members MemberDirectory) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(s.store, split.NewSplitStrategyFactory(), members, s.events, "USD", logger)
}

// stored returns an expense as the repository would: a paid 1000 for a and b
func stored() *Expense {
	return &Expense{
		ID:           "exp-1",
		HouseholdID:  "home",
		CreatedBy:    "a",
		PayerID:      "a",
		TotalCents:   1000,
		Currency:     "USD",
		Method:       split.MethodEqual,
		Participants: []string{"a", "b"},
		Entries: []Entry{
			{MemberID: "a", AmountCents: 500},
			{MemberID: "b", AmountCents: 500},
		},
		Status:  StatusOpen,
		Version: 2,
	}
}

func (s *ServiceTestSuite) TestCreateExpense_EqualSplitRemainder() {
	s.store.On("Create", s.ctx, mock.AnythingOfType("*expense.Expense")).Return(nil).Once()

	e, err := s.service.CreateExpense(s.ctx, "home", "a", &CreateExpenseRequest{
		PayerID:      "a",
		TotalCents:   100,
		Participants: []string{"a", "b", "c"},
		Note:         "  milk and eggs ",
	})

	s.Require().NoError(err)
	s.NotEmpty(e.ID)
	s.Equal(split.MethodEqual, e.Method)
	s.Equal("USD", e.Currency)
	s.Equal(StatusOpen, e.Status)
	s.Equal(int64(1), e.Version)
	s.Equal("milk and eggs", e.Note)
	s.Equal([]Entry{
		{MemberID: "a", AmountCents: 34},
		{MemberID: "b", AmountCents: 33},
		{MemberID: "c", AmountCents: 33},
	}, e.Entries)
	s.Equal(money.Cents(66), e.OutstandingTotal())

	s.Require().Len(s.events.events, 1)
	s.Equal(notification.EventExpenseCreated, s.events.events[0].Type)
	s.store.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestCreateExpense_SharesKeepWeights() {
	s.store.On("Create", s.ctx, mock.Anything).Return(nil).Once()

	e, err := s.service.CreateExpense(s.ctx, "home", "a", &CreateExpenseRequest{
		PayerID:      "a",
		TotalCents:   900,
		Participants: []string{"a", "b"},
		Method:       split.MethodShares,
		Shares:       map[string]int64{"a": 1, "b": 2},
		Currency:     "eur",
	})

	s.Require().NoError(err)
	s.Equal("EUR", e.Currency)
	s.Equal(money.Cents(300), e.Entries[0].AmountCents)
	s.Equal(money.Cents(600), e.Entries[1].AmountCents)
	s.Require().NotNil(e.Entries[1].ShareWeight)
	s.Equal(int64(2), *e.Entries[1].ShareWeight)
}

func (s *ServiceTestSuite) TestCreateExpense_InvalidSplit() {
	_, err := s.service.CreateExpense(s.ctx, "home", "a", &CreateExpenseRequest{
		PayerID:      "a",
		TotalCents:   100,
		Participants: []string{"a", "a"},
	})

	s.ErrorIs(err, split.ErrInvalidSplitInput)
	s.store.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
	s.Empty(s.events.events)
}

func (s *ServiceTestSuite) TestCreateExpense_UnknownMember() {
	_, err := s.service.CreateExpense(s.ctx, "home", "a", &CreateExpenseRequest{
		PayerID:      "a",
		TotalCents:   100,
		Participants: []string{"a", "stranger"},
	})

	s.ErrorIs(err, ErrNotHouseholdMember)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.store.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestCreateExpense_EmptyDirectorySkipsMemberCheck() {
	svc := s.newService(staticDirectory{})
	s.store.On("Create", s.ctx, mock.Anything).Return(nil).Once()

	_, err := svc.CreateExpense(s.ctx, "home", "a", &CreateExpenseRequest{
		PayerID:      "a",
		TotalCents:   100,
		Participants: []string{"a", "stranger"},
	})

	s.NoError(err)
}

func (s *ServiceTestSuite) TestGetExpense_NotFound() {
	s.store.On("GetByID", s.ctx, "home", "missing").Return(nil, nil).Once()

	_, err := s.service.GetExpense(s.ctx, "home", "missing")

	s.ErrorIs(err, ErrExpenseNotFound)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ServiceTestSuite) TestUpdateExpense_RecomputesEntries() {
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(stored(), nil).Once()
	s.store.On("Update", s.ctx, mock.AnythingOfType("*expense.Expense"), int64(2)).Return(nil).Once()

	total := money.Cents(301)
	e, err := s.service.UpdateExpense(s.ctx, "home", "exp-1", "b", &UpdateExpenseRequest{
		TotalCents:   &total,
		Participants: []string{"b", "a", "c"},
	})

	s.Require().NoError(err)
	s.Equal(int64(3), e.Version)
	s.Equal([]Entry{
		{MemberID: "b", AmountCents: 101},
		{MemberID: "a", AmountCents: 100},
		{MemberID: "c", AmountCents: 100},
	}, e.Entries)
	s.Equal(notification.EventExpenseUpdated, s.events.events[0].Type)
}

func (s *ServiceTestSuite) TestUpdateExpense_BlockedAfterSettlement() {
	partial := stored()
	partial.Entries[1].SettledCents = 200
	partial.Status = StatusPartiallySettled
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(partial, nil).Twice()
	s.store.On("Update", s.ctx, mock.Anything, int64(2)).Return(nil).Once()

	payer := "b"
	_, err := s.service.UpdateExpense(s.ctx, "home", "exp-1", "a", &UpdateExpenseRequest{PayerID: &payer})
	s.ErrorIs(err, ErrExpenseHasSettlements)

	// descriptive fields can still change
	note := "bulk rice"
	e, err := s.service.UpdateExpense(s.ctx, "home", "exp-1", "a", &UpdateExpenseRequest{Note: &note})
	s.Require().NoError(err)
	s.Equal("bulk rice", e.Note)
	s.Equal(money.Cents(200), e.Entries[1].SettledCents)
	s.store.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestUpdateExpense_StaleVersion() {
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(stored(), nil).Once()

	stale := int64(1)
	note := "late edit"
	_, err := s.service.UpdateExpense(s.ctx, "home", "exp-1", "a", &UpdateExpenseRequest{Note: &note, Version: &stale})

	s.ErrorIs(err, apperrors.ErrConcurrentModification)
	s.store.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestUpdateExpense_Cancelled() {
	cancelled := stored()
	cancelled.Status = StatusCancelled
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(cancelled, nil).Once()

	note := "x"
	_, err := s.service.UpdateExpense(s.ctx, "home", "exp-1", "a", &UpdateExpenseRequest{Note: &note})

	s.ErrorIs(err, ErrExpenseCancelled)
}

func (s *ServiceTestSuite) TestCancelExpense() {
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(stored(), nil).Once()
	s.store.On("Update", s.ctx, mock.MatchedBy(func(e *Expense) bool {
		return e.Status == StatusCancelled
	}), int64(2)).Return(nil).Once()

	e, err := s.service.CancelExpense(s.ctx, "home", "exp-1", "a")

	s.Require().NoError(err)
	s.Equal(StatusCancelled, e.Status)
	s.Equal(notification.EventExpenseCancelled, s.events.events[0].Type)
	s.store.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestCancelExpense_AlreadyCancelled() {
	cancelled := stored()
	cancelled.Status = StatusCancelled
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(cancelled, nil).Once()

	e, err := s.service.CancelExpense(s.ctx, "home", "exp-1", "a")

	s.Require().NoError(err)
	s.Equal(StatusCancelled, e.Status)
	s.store.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
	s.Empty(s.events.events)
}

func (s *ServiceTestSuite) TestDeleteExpense() {
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(stored(), nil).Once()
	s.store.On("Delete", s.ctx, "home", "exp-1", int64(2)).Return(nil).Once()

	s.Require().NoError(s.service.DeleteExpense(s.ctx, "home", "exp-1", "a"))
	s.Equal(notification.EventExpenseDeleted, s.events.events[0].Type)
	s.store.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestCreateExpense_NothingOwedStaysOpenUntilDeleted() {
	s.store.On("Create", s.ctx, mock.AnythingOfType("*expense.Expense")).Return(nil).Once()

	e, err := s.service.CreateExpense(s.ctx, "home", "a", &CreateExpenseRequest{
		PayerID:      "a",
		TotalCents:   1000,
		Participants: []string{"a", "b"},
		Method:       split.MethodPayer,
	})
	s.Require().NoError(err)
	s.Equal(StatusOpen, e.Status)
	s.Zero(e.OutstandingTotal())
	s.True(e.IsFullySettled())
	s.False(e.HasSettlements())

	s.store.On("GetByID", s.ctx, "home", e.ID).Return(e, nil).Once()
	s.store.On("Delete", s.ctx, "home", e.ID, int64(1)).Return(nil).Once()

	s.Require().NoError(s.service.DeleteExpense(s.ctx, "home", e.ID, "a"))
	s.store.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestDeleteExpense_BlockedAfterSettlement() {
	partial := stored()
	partial.Entries[1].SettledCents = 1
	s.store.On("GetByID", s.ctx, "home", "exp-1").Return(partial, nil).Once()

	err := s.service.DeleteExpense(s.ctx, "home", "exp-1", "a")

	s.ErrorIs(err, ErrExpenseHasSettlements)
	s.store.AssertNotCalled(s.T(), "Delete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestListExpenses_Paging() {
	s.store.On("List", s.ctx, "home", StatusOpen, 20, 40).Return([]*Expense{stored()}, 41, nil).Once()

	expenses, total, err := s.service.ListExpenses(s.ctx, "home", StatusOpen, 3, 0)

	s.Require().NoError(err)
	s.Len(expenses, 1)
	s.Equal(41, total)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
