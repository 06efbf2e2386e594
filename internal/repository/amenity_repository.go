package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/1wflores/amenity-reservations/internal/model"
)

// AmenityRepo persists amenities in the `amenities` table.  Operating
// days are stored as a comma separated list of weekday numbers.
type AmenityRepo struct {
    db *sql.DB
}

// NewAmenityRepo returns an AmenityRepo bound to db.
func NewAmenityRepo(db *sql.DB) *AmenityRepo { return &AmenityRepo{db: db} }

const amenityColumns = `id, name, type, capacity, open_time, close_time, open_days,
    max_duration_minutes, max_reservations_per_day, requires_deposit, deposit_amount_cents,
    is_active, created_at, updated_at`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanAmenity(s rowScanner) (model.Amenity, error) {
    var (
        a    model.Amenity
        typ  string
        days string
    )
    err := s.Scan(
        &a.ID, &a.Name, &typ, &a.Capacity, &a.OperatingHours.Start, &a.OperatingHours.End, &days,
        &a.AutoApprovalRules.MaxDurationMinutes, &a.AutoApprovalRules.MaxReservationsPerDay,
        &a.SpecialRequirements.RequiresDeposit, &a.SpecialRequirements.DepositAmountCents,
        &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
    )
    if err != nil {
        return a, err
    }
    a.Type = model.AmenityType(typ)
    if a.OperatingHours.Days, err = DecodeDays(days); err != nil {
        return a, fmt.Errorf("amenity %d: %w", a.ID, err)
    }
    return a, nil
}

// GetByID loads one amenity.  It returns ErrNotFound when no row matches.
func (r *AmenityRepo) GetByID(ctx context.Context, id uint64) (model.Amenity, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+amenityColumns+` FROM amenities WHERE id = ?`, id)
    a, err := scanAmenity(row)
    if errors.Is(err, sql.ErrNoRows) {
        return a, ErrNotFound
    }
    return a, err
}

// List returns amenities ordered by name.  When activeOnly is set,
// deactivated amenities are omitted.
func (r *AmenityRepo) List(ctx context.Context, activeOnly bool) ([]model.Amenity, error) {
    q := `SELECT ` + amenityColumns + ` FROM amenities`
    if activeOnly {
        q += ` WHERE is_active = 1`
    }
    q += ` ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Amenity, 0)
    for rows.Next() {
        a, err := scanAmenity(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    return out, rows.Err()
}

// Create inserts a and fills in its ID and timestamps.  A duplicate name
// yields ErrConflict.
func (r *AmenityRepo) Create(ctx context.Context, a *model.Amenity) error {
    const q = `INSERT INTO amenities (name, type, capacity, open_time, close_time, open_days,
        max_duration_minutes, max_reservations_per_day, requires_deposit, deposit_amount_cents, is_active)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        a.Name, string(a.Type), a.Capacity, a.OperatingHours.Start, a.OperatingHours.End,
        EncodeDays(a.OperatingHours.Days),
        a.AutoApprovalRules.MaxDurationMinutes, a.AutoApprovalRules.MaxReservationsPerDay,
        a.SpecialRequirements.RequiresDeposit, a.SpecialRequirements.DepositAmountCents, a.IsActive,
    )
    if err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *a = created
    return nil
}

// Update overwrites every mutable column of the amenity identified by
// a.ID.  It returns ErrNotFound when the row does not exist.
func (r *AmenityRepo) Update(ctx context.Context, a *model.Amenity) error {
    const q = `UPDATE amenities SET name = ?, type = ?, capacity = ?, open_time = ?, close_time = ?,
        open_days = ?, max_duration_minutes = ?, max_reservations_per_day = ?, requires_deposit = ?,
        deposit_amount_cents = ?, is_active = ?, updated_at = UTC_TIMESTAMP()
        WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q,
        a.Name, string(a.Type), a.Capacity, a.OperatingHours.Start, a.OperatingHours.End,
        EncodeDays(a.OperatingHours.Days),
        a.AutoApprovalRules.MaxDurationMinutes, a.AutoApprovalRules.MaxReservationsPerDay,
        a.SpecialRequirements.RequiresDeposit, a.SpecialRequirements.DepositAmountCents, a.IsActive,
        a.ID,
    )
    if err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return err
    }
    // MySQL reports zero affected rows for a no-op update, so confirm
    // existence with a read.
    if n, _ := res.RowsAffected(); n == 0 {
        if _, err := r.GetByID(ctx, a.ID); err != nil {
            return err
        }
    }
    updated, err := r.GetByID(ctx, a.ID)
    if err != nil {
        return err
    }
    *a = updated
    return nil
}

// EncodeDays renders weekdays as sorted, de-duplicated numbers: "1,3,5".
func EncodeDays(days []time.Weekday) string {
    seen := make(map[time.Weekday]bool, len(days))
    nums := make([]int, 0, len(days))
    for _, d := range days {
        if !seen[d] {
            seen[d] = true
            nums = append(nums, int(d))
        }
    }
    sort.Ints(nums)
    parts := make([]string, len(nums))
    for i, n := range nums {
        parts[i] = strconv.Itoa(n)
    }
    return strings.Join(parts, ",")
}

// DecodeDays parses the open_days column.
func DecodeDays(s string) ([]time.Weekday, error) {
    days := make([]time.Weekday, 0, 7)
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(p)
        if p == "" {
            continue
        }
        n, err := strconv.Atoi(p)
        if err != nil || n < 0 || n > 6 {
            return nil, fmt.Errorf("invalid weekday %q", p)
        }
        days = append(days, time.Weekday(n))
    }
    return days, nil
}

// isDuplicate reports a MySQL unique key violation (error 1062).
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}
