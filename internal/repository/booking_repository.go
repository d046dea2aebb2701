package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/restaurant-booking/internal/apperr"
    "github.com/iliyamo/restaurant-booking/internal/model"
    "github.com/iliyamo/restaurant-booking/internal/policy"
)

// BookingRepo stores bookings in MySQL. The restaurant and manager of a
// booking are joined from the catalog on every read and never written to
// the bookings table.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const selectBookings = `SELECT b.id, b.user_id, b.table_id, t.restaurant_id, rs.manager_id,
                               DATE_FORMAT(b.date, '%Y-%m-%d'), TIME_FORMAT(b.time, '%H:%i:%s'),
                               b.party_size, b.status, b.created_at, b.updated_at
                        FROM bookings b
                        JOIN restaurant_tables t ON t.id = b.table_id
                        JOIN restaurants rs ON rs.id = t.restaurant_id`

// scopeClause renders a policy scope as a WHERE clause and its arguments.
// An unconstrained scope yields an empty clause.
func scopeClause(s policy.Scope) (string, []interface{}) {
    if s.Deny {
        return " WHERE 1 = 0", nil
    }
    conds := make([]string, 0, 5)
    args := make([]interface{}, 0, 5)
    if s.BookingID != 0 {
        conds = append(conds, "b.id = ?")
        args = append(args, s.BookingID)
    }
    if s.OwnerID != 0 {
        conds = append(conds, "b.user_id = ?")
        args = append(args, s.OwnerID)
    }
    if s.ManagerID != 0 {
        conds = append(conds, "rs.manager_id = ?")
        args = append(args, s.ManagerID)
    }
    if s.RestaurantID != 0 {
        conds = append(conds, "t.restaurant_id = ?")
        args = append(args, s.RestaurantID)
    }
    if s.Date != "" {
        conds = append(conds, "b.date = ?")
        args = append(args, s.Date)
    }
    if len(conds) == 0 {
        return "", args
    }
    return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (model.Booking, error) {
    var b model.Booking
    var status string
    err := row.Scan(&b.ID, &b.UserID, &b.TableID, &b.RestaurantID, &b.ManagerID,
        &b.Date, &b.Time, &b.PartySize, &status, &b.CreatedAt, &b.UpdatedAt)
    b.Status = model.Status(status)
    return b, err
}

// Create inserts a booking and reads the row back so that generated
// timestamps and the derived restaurant/manager are populated.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, table_id, date, time, party_size, status) VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, b.UserID, b.TableID, b.Date, b.Time, b.PartySize, string(b.Status))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    where, args := scopeClause(policy.Scope{BookingID: uint64(id)})
    got, err := scanBooking(r.db.QueryRowContext(ctx, selectBookings+where, args...))
    if err != nil {
        return err
    }
    *b = got
    return nil
}

// List returns every booking matching the scope, newest first.
func (r *BookingRepo) List(ctx context.Context, s policy.Scope) ([]model.Booking, error) {
    where, args := scopeClause(s)
    rows, err := r.db.QueryContext(ctx, selectBookings+where+" ORDER BY b.created_at DESC, b.id DESC", args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Get returns the single booking matching the scope. A missing row and a
// row outside the scope both yield apperr.ErrNotFound.
func (r *BookingRepo) Get(ctx context.Context, s policy.Scope) (*model.Booking, error) {
    where, args := scopeClause(s)
    rows, err := r.db.QueryContext(ctx, selectBookings+where+" LIMIT 2", args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return single(rows)
}

// Mutate implements the read-modify-write of a single booking. The row is
// locked with SELECT ... FOR UPDATE for the duration of fn, so concurrent
// cancels and updates of the same booking are serialised. When fn returns
// an error the transaction is rolled back and the row is unchanged.
func (r *BookingRepo) Mutate(ctx context.Context, s policy.Scope, fn func(b *model.Booking) error) (*model.Booking, error) {
    if s.BookingID == 0 {
        return nil, fmt.Errorf("%w: booking id required", apperr.ErrValidation)
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    where, args := scopeClause(s)
    b, err := scanBooking(tx.QueryRowContext(ctx, selectBookings+where+" FOR UPDATE OF b", args...))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, fmt.Errorf("%w: booking %d", apperr.ErrNotFound, s.BookingID)
        }
        return nil, err
    }
    work := b
    if err := fn(&work); err != nil {
        return nil, err
    }
    const upd = `UPDATE bookings SET date = ?, time = ?, party_size = ?, status = ? WHERE id = ?`
    if _, err := tx.ExecContext(ctx, upd, work.Date, work.Time, work.PartySize, string(work.Status), b.ID); err != nil {
        return nil, err
    }
    byID, byArgs := scopeClause(policy.Scope{BookingID: b.ID})
    updated, err := scanBooking(tx.QueryRowContext(ctx, selectBookings+byID, byArgs...))
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return &updated, nil
}

func single(rows *sql.Rows) (*model.Booking, error) {
    if !rows.Next() {
        if err := rows.Err(); err != nil {
            return nil, err
        }
        return nil, apperr.ErrNotFound
    }
    b, err := scanBooking(rows)
    if err != nil {
        return nil, err
    }
    if rows.Next() {
        return nil, ErrMultipleRows
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return &b, nil
}
