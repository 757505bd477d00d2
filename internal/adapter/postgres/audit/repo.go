// Package audit implements the audit ledger repository using PostgreSQL.
// It provides append-only operations: entries are inserted once and never
// updated or deleted; queries are read-only projections.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/adapter/postgres"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const auditColumns = `id, user_id, username, action, entity_type, entity_id,
before_data, after_data, ip_address, user_agent, created_at`

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new audit repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// auditRow mirrors the audit_logs table for scany.
type auditRow struct {
	ID         int64     `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	Username   string    `db:"username"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	BeforeData []byte    `db:"before_data"`
	AfterData  []byte    `db:"after_data"`
	IPAddress  string    `db:"ip_address"`
	UserAgent  string    `db:"user_agent"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r auditRow) toDomain() (domain.AuditLogEntry, error) {
	entry := domain.AuditLogEntry{
		ID:         r.ID,
		UserID:     r.UserID,
		Username:   r.Username,
		Action:     domain.AuditAction(r.Action),
		EntityType: domain.EntityType(r.EntityType),
		EntityID:   r.EntityID,
		IPAddress:  r.IPAddress,
		UserAgent:  r.UserAgent,
		CreatedAt:  r.CreatedAt,
	}

	if len(r.BeforeData) > 0 {
		if err := json.Unmarshal(r.BeforeData, &entry.BeforeData); err != nil {
			return domain.AuditLogEntry{}, fmt.Errorf("audit_log %d unmarshal before_data: %w", r.ID, err)
		}
	}
	if len(r.AfterData) > 0 {
		if err := json.Unmarshal(r.AfterData, &entry.AfterData); err != nil {
			return domain.AuditLogEntry{}, fmt.Errorf("audit_log %d unmarshal after_data: %w", r.ID, err)
		}
	}

	return entry, nil
}

// marshalSnapshot serializes a before/after snapshot. A nil map stays NULL
// (CREATE has before=NULL, DELETE has after=NULL). encoding/json sorts map
// keys, so the same logical state always produces the same bytes.
func marshalSnapshot(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create appends a new audit entry and returns the persisted record with its
// store-assigned id. It writes through the Querier in context, so inside
// TxManager.RunInTx the entry commits or rolls back with the domain change.
func (r *Repo) Create(ctx context.Context, entry domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	before, err := marshalSnapshot(entry.BeforeData)
	if err != nil {
		return domain.AuditLogEntry{}, fmt.Errorf("audit_log marshal before_data: %w", err)
	}
	after, err := marshalSnapshot(entry.AfterData)
	if err != nil {
		return domain.AuditLogEntry{}, fmt.Errorf("audit_log marshal after_data: %w", err)
	}

	sql, args, err := builder.
		Insert("audit_logs").
		Columns("user_id", "username", "action", "entity_type", "entity_id",
			"before_data", "after_data", "ip_address", "user_agent", "created_at").
		Values(entry.UserID, entry.Username, string(entry.Action), string(entry.EntityType), entry.EntityID,
			before, after, entry.IPAddress, entry.UserAgent, entry.CreatedAt).
		Suffix("RETURNING " + auditColumns).
		ToSql()
	if err != nil {
		return domain.AuditLogEntry{}, fmt.Errorf("build insert audit_log: %w", err)
	}

	var row auditRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return domain.AuditLogEntry{}, postgres.MapError(err, "audit_log", entry.EntityID)
	}
	return row.toDomain()
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Query returns audit entries matching the filter, id DESC (most recent
// first), with offset/limit pagination and the total matching count.
func (r *Repo) Query(ctx context.Context, f domain.AuditFilter, page domain.PageRequest) ([]domain.AuditLogEntry, int, error) {
	page.Normalize()
	q := postgres.QuerierFromCtx(ctx, r.db)

	where := conditions(f)

	countSQL, countArgs, err := builder.
		Select("COUNT(*)").
		From("audit_logs").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count audit_logs: %w", err)
	}

	var total int
	if err := pgxscan.Get(ctx, q, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count audit_logs: %w", err)
	}

	listSQL, listArgs, err := builder.
		Select(auditColumns).
		From("audit_logs").
		Where(where).
		OrderBy("id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query audit_logs: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, q, &rows, listSQL, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("query audit_logs: %w", err)
	}

	entries := make([]domain.AuditLogEntry, len(rows))
	for i, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, 0, err
		}
		entries[i] = entry
	}
	return entries, total, nil
}

// conditions builds the AND-combined WHERE clause. Omitted filters match
// everything.
func conditions(f domain.AuditFilter) sq.And {
	cond := sq.And{}
	if f.UserID != nil {
		cond = append(cond, sq.Eq{"user_id": *f.UserID})
	}
	if f.Action != nil {
		cond = append(cond, sq.Eq{"action": string(*f.Action)})
	}
	if f.EntityType != nil {
		cond = append(cond, sq.Eq{"entity_type": string(*f.EntityType)})
	}
	if f.EntityID != nil {
		cond = append(cond, sq.Eq{"entity_id": *f.EntityID})
	}
	if f.From != nil {
		cond = append(cond, sq.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		cond = append(cond, sq.Lt{"created_at": *f.To})
	}
	if len(cond) == 0 {
		cond = append(cond, sq.Expr("TRUE"))
	}
	return cond
}
