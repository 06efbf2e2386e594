package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/1wflores/amenity-reservations/internal/model"
)

// ReservationRepo persists reservations.  Every write that can place an
// active reservation on the calendar runs in a transaction that locks
// the amenity row first, so two concurrent bookings of the same amenity
// are serialised and the overlap check cannot race.  All timestamps are
// stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to db.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationFilter narrows List.  Zero values match everything.
type ReservationFilter struct {
    AmenityID uint64
    UserID    uint64
    Status    model.Status
    From      time.Time // reservations ending after From
    To        time.Time // reservations starting before To
    Limit     int
}

const reservationColumns = `id, amenity_id, user_id, start_time, end_time, status,
    visitor_count, notes, grill_usage, denial_reason, created_at, updated_at`

func scanReservation(s rowScanner) (model.Reservation, error) {
    var (
        r       model.Reservation
        status  string
        visitor sql.NullInt64
    )
    err := s.Scan(
        &r.ID, &r.AmenityID, &r.UserID, &r.StartTime, &r.EndTime, &status,
        &visitor, &r.SpecialRequests.Notes, &r.SpecialRequests.GrillUsage, &r.DenialReason,
        &r.CreatedAt, &r.UpdatedAt,
    )
    if err != nil {
        return r, err
    }
    r.Status = model.Status(status)
    if visitor.Valid {
        n := int(visitor.Int64)
        r.SpecialRequests.VisitorCount = &n
    }
    r.StartTime, r.EndTime = r.StartTime.UTC(), r.EndTime.UTC()
    r.CreatedAt, r.UpdatedAt = r.CreatedAt.UTC(), r.UpdatedAt.UTC()
    return r, nil
}

func nullVisitor(v *int) sql.NullInt64 {
    if v == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// GetByID loads a single reservation or returns ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
    res, err := scanReservation(row)
    if errors.Is(err, sql.ErrNoRows) {
        return res, ErrNotFound
    }
    return res, err
}

// List returns reservations matching f ordered by start time.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
    var (
        where []string
        args  []any
    )
    if f.AmenityID != 0 {
        where = append(where, "amenity_id = ?")
        args = append(args, f.AmenityID)
    }
    if f.UserID != 0 {
        where = append(where, "user_id = ?")
        args = append(args, f.UserID)
    }
    if f.Status != "" {
        where = append(where, "status = ?")
        args = append(args, string(f.Status))
    }
    if !f.From.IsZero() {
        where = append(where, "end_time > ?")
        args = append(args, f.From.UTC())
    }
    if !f.To.IsZero() {
        where = append(where, "start_time < ?")
        args = append(args, f.To.UTC())
    }
    q := `SELECT ` + reservationColumns + ` FROM reservations`
    if len(where) > 0 {
        q += ` WHERE ` + strings.Join(where, " AND ")
    }
    q += ` ORDER BY start_time, id`
    if f.Limit > 0 {
        q += ` LIMIT ?`
        args = append(args, f.Limit)
    }
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    return out, rows.Err()
}

// Create inserts res after checking, under a lock on the amenity row,
// that no active reservation overlaps it.  created_at and updated_at are
// taken from res.CreatedAt, or the current time when it is zero.  The
// stored row is written back into res.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    return r.withAmenityLock(ctx, res.AmenityID, func(tx *sql.Tx) error {
        if res.Status.Active() {
            if err := checkOverlapTx(ctx, tx, res.AmenityID, 0, res.StartTime, res.EndTime); err != nil {
                return err
            }
        }
        const q = `INSERT INTO reservations (amenity_id, user_id, start_time, end_time, status,
            visitor_count, notes, grill_usage, denial_reason, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
        createdAt := res.CreatedAt
        if createdAt.IsZero() {
            createdAt = time.Now()
        }
        result, err := tx.ExecContext(ctx, q,
            res.AmenityID, res.UserID, res.StartTime.UTC(), res.EndTime.UTC(), string(res.Status),
            nullVisitor(res.SpecialRequests.VisitorCount), res.SpecialRequests.Notes,
            res.SpecialRequests.GrillUsage, res.DenialReason, createdAt.UTC(), createdAt.UTC(),
        )
        if err != nil {
            return err
        }
        id, err := result.LastInsertId()
        if err != nil {
            return err
        }
        created, err := scanReservation(tx.QueryRowContext(ctx,
            `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
        if err != nil {
            return err
        }
        *res = created
        return nil
    })
}

// Update rewrites the interval, special requests and status of an
// existing reservation.  expected is the status the caller read; when the
// stored status differs the write is rejected with ErrConflict.  An active
// result is checked for overlap against every other active reservation.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation, expected model.Status) error {
    return r.withAmenityLock(ctx, res.AmenityID, func(tx *sql.Tx) error {
        if res.Status.Active() {
            if err := checkOverlapTx(ctx, tx, res.AmenityID, res.ID, res.StartTime, res.EndTime); err != nil {
                return err
            }
        }
        const q = `UPDATE reservations SET start_time = ?, end_time = ?, status = ?, visitor_count = ?,
            notes = ?, grill_usage = ?, denial_reason = ?, updated_at = ?
            WHERE id = ? AND status = ?`
        updatedAt := res.UpdatedAt
        if updatedAt.IsZero() {
            updatedAt = time.Now()
        }
        result, err := tx.ExecContext(ctx, q,
            res.StartTime.UTC(), res.EndTime.UTC(), string(res.Status),
            nullVisitor(res.SpecialRequests.VisitorCount), res.SpecialRequests.Notes,
            res.SpecialRequests.GrillUsage, res.DenialReason, updatedAt.UTC(),
            res.ID, string(expected),
        )
        if err != nil {
            return err
        }
        if n, err := result.RowsAffected(); err != nil {
            return err
        } else if n == 0 {
            var exists bool
            err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, res.ID).Scan(&exists)
            if err != nil {
                return err
            }
            if !exists {
                return ErrNotFound
            }
            return ErrConflict
        }
        updated, err := scanReservation(tx.QueryRowContext(ctx,
            `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID))
        if err != nil {
            return err
        }
        *res = updated
        return nil
    })
}

// withAmenityLock runs fn in a transaction holding a row lock on the
// amenity.  fn's error rolls the transaction back and is returned as is.
func (r *ReservationRepo) withAmenityLock(ctx context.Context, amenityID uint64, fn func(tx *sql.Tx) error) (err error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback()
        }
    }()
    var id uint64
    if err = tx.QueryRowContext(ctx, `SELECT id FROM amenities WHERE id = ? FOR UPDATE`, amenityID).Scan(&id); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            err = ErrNotFound
        }
        return err
    }
    if err = fn(tx); err != nil {
        return err
    }
    return tx.Commit()
}

// checkOverlapTx returns ErrConflict when an active reservation on the
// amenity other than excludeID intersects [start, end).
func checkOverlapTx(ctx context.Context, tx *sql.Tx, amenityID, excludeID uint64, start, end time.Time) error {
    const q = `SELECT COUNT(*) FROM reservations
        WHERE amenity_id = ? AND id <> ? AND status IN ('pending', 'approved')
          AND start_time < ? AND end_time > ?`
    var n int
    if err := tx.QueryRowContext(ctx, q, amenityID, excludeID, end.UTC(), start.UTC()).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    return nil
}
