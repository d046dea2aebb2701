package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-booking/internal/apperr"
    "github.com/iliyamo/restaurant-booking/internal/model"
    "github.com/iliyamo/restaurant-booking/internal/policy"
)

var bookingCols = []string{"id", "user_id", "table_id", "restaurant_id", "manager_id",
    "date", "time", "party_size", "status", "created_at", "updated_at"}

var (
    lockQuery   = regexp.QuoteMeta("FOR UPDATE OF b")
    updateQuery = regexp.QuoteMeta("UPDATE bookings SET date = ?, time = ?, party_size = ?, status = ? WHERE id = ?")
    rereadQuery = regexp.QuoteMeta("WHERE b.id = ?") + "$"
)

func newMockBookingRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewBookingRepo(db), mock
}

func bookingRow(status string, updated time.Time) *sqlmock.Rows {
    created := time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC)
    return sqlmock.NewRows(bookingCols).
        AddRow(int64(7), int64(10), int64(100), int64(3), int64(20),
            "2024-06-01", "19:30:00", int64(2), status, created, updated)
}

func ownedScope() policy.Scope {
    return policy.OwnedBy(model.Principal{ID: 10, Role: model.RoleCustomer}).WithBooking(7)
}

func TestBookingRepo_Mutate_Commits(t *testing.T) {
    repo, mock := newMockBookingRepo(t)
    later := time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(lockQuery).WithArgs(7, 10).
        WillReturnRows(bookingRow("confirmed", time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC)))
    mock.ExpectExec(updateQuery).WithArgs("2024-06-01", "19:30:00", 2, "cancelled", 7).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(rereadQuery).WithArgs(7).WillReturnRows(bookingRow("cancelled", later))
    mock.ExpectCommit()

    got, err := repo.Mutate(context.Background(), ownedScope(), func(b *model.Booking) error {
        b.Status = model.StatusCancelled
        return nil
    })
    require.NoError(t, err)
    assert.Equal(t, model.StatusCancelled, got.Status)
    assert.Equal(t, uint64(3), got.RestaurantID)
    assert.Equal(t, later, got.UpdatedAt)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Mutate_CallbackErrorRollsBack(t *testing.T) {
    repo, mock := newMockBookingRepo(t)
    refused := errors.New("refused")

    mock.ExpectBegin()
    mock.ExpectQuery(lockQuery).WithArgs(7, 10).
        WillReturnRows(bookingRow("cancelled", time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC)))
    mock.ExpectRollback()

    got, err := repo.Mutate(context.Background(), ownedScope(), func(b *model.Booking) error {
        b.PartySize = 9
        return refused
    })
    assert.Nil(t, got)
    assert.ErrorIs(t, err, refused)
    // no UPDATE was expected, so any write would have failed the expectations
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Mutate_NoRowIsNotFound(t *testing.T) {
    repo, mock := newMockBookingRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(lockQuery).WithArgs(7, 10).WillReturnRows(sqlmock.NewRows(bookingCols))
    mock.ExpectRollback()

    called := false
    _, err := repo.Mutate(context.Background(), ownedScope(), func(*model.Booking) error {
        called = true
        return nil
    })
    assert.ErrorIs(t, err, apperr.ErrNotFound)
    assert.False(t, called)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Mutate_UpdateFailureRollsBack(t *testing.T) {
    repo, mock := newMockBookingRepo(t)
    boom := errors.New("deadlock")

    mock.ExpectBegin()
    mock.ExpectQuery(lockQuery).WithArgs(7, 10).
        WillReturnRows(bookingRow("confirmed", time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC)))
    mock.ExpectExec(updateQuery).WillReturnError(boom)
    mock.ExpectRollback()

    _, err := repo.Mutate(context.Background(), ownedScope(), func(b *model.Booking) error {
        b.Time = "21:00:00"
        return nil
    })
    assert.ErrorIs(t, err, boom)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Mutate_RequiresBookingID(t *testing.T) {
    repo, mock := newMockBookingRepo(t)
    _, err := repo.Mutate(context.Background(), policy.Scope{OwnerID: 10}, func(*model.Booking) error { return nil })
    assert.ErrorIs(t, err, apperr.ErrValidation)
    assert.NoError(t, mock.ExpectationsWereMet())
}
