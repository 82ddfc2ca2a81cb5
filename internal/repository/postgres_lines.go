package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andresouza701/lineops/internal/domain"
)

// PostgresLinesRepository 电话线路/SIM卡Repository实现
// 实现LinesRepository接口，使用domain.PhoneLine/domain.SIMCard领域模型
type PostgresLinesRepository struct {
	db *sql.DB
}

// NewPostgresLinesRepository 创建线路Repository
func NewPostgresLinesRepository(db *sql.DB) *PostgresLinesRepository {
	return &PostgresLinesRepository{db: db}
}

// 确保实现了接口
var _ LinesRepository = (*PostgresLinesRepository)(nil)

const phoneLineColumns = `
	phone_line_id::text,
	phone_number,
	sim_card_id::text,
	status,
	activated_at,
	is_deleted,
	created_at,
	updated_at
`

const simCardColumns = `
	sim_card_id::text,
	iccid,
	carrier,
	status,
	activated_at,
	is_deleted,
	created_at,
	updated_at
`

// GetPhoneLine 获取线路（排除软删除）
func (r *PostgresLinesRepository) GetPhoneLine(ctx context.Context, phoneLineID string) (*domain.PhoneLine, error) {
	if phoneLineID == "" {
		return nil, fmt.Errorf("get phone line: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+phoneLineColumns+` FROM phone_lines WHERE phone_line_id = $1 AND NOT is_deleted`,
		phoneLineID,
	)
	return scanPhoneLineResult(row)
}

// GetPhoneLineByNumber 按号码获取线路（排除软删除）
func (r *PostgresLinesRepository) GetPhoneLineByNumber(ctx context.Context, phoneNumber string) (*domain.PhoneLine, error) {
	if phoneNumber == "" {
		return nil, fmt.Errorf("get phone line: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+phoneLineColumns+` FROM phone_lines WHERE phone_number = $1 AND NOT is_deleted`,
		phoneNumber,
	)
	return scanPhoneLineResult(row)
}

// ListPhoneLines 查询线路列表（支持分页、过滤、搜索）
func (r *PostgresLinesRepository) ListPhoneLines(ctx context.Context, filters LineFilters, page, size int) ([]*domain.PhoneLine, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	conditions := []string{}
	args := []any{}
	argIdx := 1

	if !filters.IncludeDeleted {
		conditions = append(conditions, "NOT is_deleted")
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filters.Status)
		argIdx++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("phone_number ILIKE $%d", argIdx))
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM phone_lines"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count phone lines: %w", err)
	}

	query := "SELECT " + phoneLineColumns + " FROM phone_lines" + where +
		fmt.Sprintf(" ORDER BY phone_number LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list phone lines: %w", err)
	}
	defer rows.Close()

	lines := []*domain.PhoneLine{}
	for rows.Next() {
		line, err := scanPhoneLine(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan phone line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate phone lines: %w", err)
	}
	return lines, total, nil
}

// CreatePhoneLine 创建线路（需已有SIM卡绑定）
func (r *PostgresLinesRepository) CreatePhoneLine(ctx context.Context, line *domain.PhoneLine) (string, error) {
	if line.PhoneNumber == "" || line.SIMCardID == "" {
		return "", fmt.Errorf("phone_number and sim_card_id are required")
	}

	phoneLineID := line.PhoneLineID
	if phoneLineID == "" {
		phoneLineID = uuid.New().String()
	}
	status := line.Status
	if status == "" {
		status = domain.LineStatusAvailable
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO phone_lines
			(phone_line_id, phone_number, sim_card_id, status, activated_at, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), NOW())`,
		phoneLineID, line.PhoneNumber, line.SIMCardID, status, line.ActivatedAt,
	)
	if err != nil {
		return "", mapPQError(err, "failed to create phone line")
	}
	return phoneLineID, nil
}

// OverrideLineStatus 手动设置线路状态（管理操作）
// 事务内锁定线路行后校验与活跃分配的一致性：
//   - 存在活跃分配时只允许 ALLOCATED（否则返回 ErrLineStillAllocated）
//   - 不存在活跃分配时禁止 ALLOCATED（该状态只能由分配引擎产生）
func (r *PostgresLinesRepository) OverrideLineStatus(ctx context.Context, phoneLineID, status string, now time.Time) error {
	if phoneLineID == "" {
		return fmt.Errorf("override line status: %w", domain.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentStatus string
	var deleted bool
	err = tx.QueryRowContext(ctx,
		`SELECT status, is_deleted FROM phone_lines WHERE phone_line_id = $1 FOR UPDATE`,
		phoneLineID,
	).Scan(&currentStatus, &deleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("phone line not found: %w", domain.ErrNotFound)
		}
		return mapPQError(err, "failed to lock phone line")
	}
	if deleted {
		return fmt.Errorf("phone line is deleted: %w", domain.ErrNotFound)
	}

	var hasActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM line_allocations WHERE phone_line_id = $1 AND is_active)`,
		phoneLineID,
	).Scan(&hasActive)
	if err != nil {
		return fmt.Errorf("failed to check active allocation: %w", err)
	}

	if hasActive && status != domain.LineStatusAllocated {
		return fmt.Errorf("phone line %s: %w", phoneLineID, domain.ErrLineStillAllocated)
	}
	if !hasActive && status == domain.LineStatusAllocated {
		return fmt.Errorf("phone line %s: %w", phoneLineID, domain.ErrStatusReserved)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE phone_lines SET status = $1, updated_at = $2 WHERE phone_line_id = $3`,
		status, now, phoneLineID,
	)
	if err != nil {
		return fmt.Errorf("failed to update phone line status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status override: %w", err)
	}
	return nil
}

// DeletePhoneLine 软删除线路
// 存在任何分配记录引用该线路时拒绝删除
func (r *PostgresLinesRepository) DeletePhoneLine(ctx context.Context, phoneLineID string) error {
	if phoneLineID == "" {
		return fmt.Errorf("delete phone line: %w", domain.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var referenced bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM line_allocations WHERE phone_line_id = $1)`,
		phoneLineID,
	).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("failed to check allocation references: %w", err)
	}
	if referenced {
		return fmt.Errorf("phone line %s: %w", phoneLineID, domain.ErrReferencedEntity)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE phone_lines SET is_deleted = TRUE, updated_at = NOW() WHERE phone_line_id = $1 AND NOT is_deleted`,
		phoneLineID,
	)
	if err != nil {
		return mapPQError(err, "failed to delete phone line")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete phone line: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("phone line not found: %w", domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// LineStatusCounts 按状态统计线路数量（排除软删除）
func (r *PostgresLinesRepository) LineStatusCounts(ctx context.Context) (map[string]int, error) {
	return r.statusCounts(ctx, "phone_lines")
}

// GetSIMCard 获取SIM卡（排除软删除）
func (r *PostgresLinesRepository) GetSIMCard(ctx context.Context, simCardID string) (*domain.SIMCard, error) {
	if simCardID == "" {
		return nil, fmt.Errorf("get sim card: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+simCardColumns+` FROM sim_cards WHERE sim_card_id = $1 AND NOT is_deleted`,
		simCardID,
	)
	return scanSIMCardResult(row)
}

// GetSIMCardByICCID 按ICCID获取SIM卡（排除软删除）
func (r *PostgresLinesRepository) GetSIMCardByICCID(ctx context.Context, iccid string) (*domain.SIMCard, error) {
	if iccid == "" {
		return nil, fmt.Errorf("get sim card: %w", domain.ErrNotFound)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+simCardColumns+` FROM sim_cards WHERE iccid = $1 AND NOT is_deleted`,
		iccid,
	)
	return scanSIMCardResult(row)
}

// ListSIMCards 查询SIM卡列表（支持分页、过滤、搜索）
func (r *PostgresLinesRepository) ListSIMCards(ctx context.Context, filters SIMFilters, page, size int) ([]*domain.SIMCard, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	conditions := []string{}
	args := []any{}
	argIdx := 1

	if !filters.IncludeDeleted {
		conditions = append(conditions, "NOT is_deleted")
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filters.Status)
		argIdx++
	}
	if filters.Carrier != "" {
		conditions = append(conditions, fmt.Sprintf("carrier = $%d", argIdx))
		args = append(args, filters.Carrier)
		argIdx++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("iccid ILIKE $%d", argIdx))
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sim_cards"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sim cards: %w", err)
	}

	query := "SELECT " + simCardColumns + " FROM sim_cards" + where +
		fmt.Sprintf(" ORDER BY iccid LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sim cards: %w", err)
	}
	defer rows.Close()

	sims := []*domain.SIMCard{}
	for rows.Next() {
		sim, err := scanSIMCard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sim card: %w", err)
		}
		sims = append(sims, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate sim cards: %w", err)
	}
	return sims, total, nil
}

// CreateSIMCard 创建SIM卡
func (r *PostgresLinesRepository) CreateSIMCard(ctx context.Context, sim *domain.SIMCard) (string, error) {
	if sim.ICCID == "" || sim.Carrier == "" {
		return "", fmt.Errorf("iccid and carrier are required")
	}

	simCardID := sim.SIMCardID
	if simCardID == "" {
		simCardID = uuid.New().String()
	}
	status := sim.Status
	if status == "" {
		status = domain.SIMStatusAvailable
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sim_cards
			(sim_card_id, iccid, carrier, status, activated_at, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, NOW(), NOW())`,
		simCardID, sim.ICCID, sim.Carrier, status, sim.ActivatedAt,
	)
	if err != nil {
		return "", mapPQError(err, "failed to create sim card")
	}
	return simCardID, nil
}

// UpsertSIMCardAndLine 按ICCID upsert SIM卡，phoneNumber非空时一并upsert线路
// 批量导入按行调用；两次upsert在同一事务内，整行要么全部生效要么全部回滚
func (r *PostgresLinesRepository) UpsertSIMCardAndLine(ctx context.Context, sim *domain.SIMCard, phoneNumber string) (string, string, bool, error) {
	if sim.ICCID == "" || sim.Carrier == "" {
		return "", "", false, fmt.Errorf("iccid and carrier are required")
	}

	status := sim.Status
	if status == "" {
		status = domain.SIMStatusAvailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var simCardID string
	var inserted bool
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sim_cards
			(sim_card_id, iccid, carrier, status, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
		 ON CONFLICT (iccid)
		 DO UPDATE SET carrier = EXCLUDED.carrier,
		               status = EXCLUDED.status,
		               is_deleted = FALSE,
		               updated_at = NOW()
		 RETURNING sim_card_id::text, (xmax = 0)`,
		uuid.New().String(), sim.ICCID, sim.Carrier, status,
	).Scan(&simCardID, &inserted)
	if err != nil {
		return "", "", false, mapPQError(err, "failed to upsert sim card")
	}

	var phoneLineID string
	if phoneNumber != "" {
		err = tx.QueryRowContext(ctx,
			`INSERT INTO phone_lines
				(phone_line_id, phone_number, sim_card_id, status, is_deleted, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
			 ON CONFLICT (phone_number)
			 DO UPDATE SET sim_card_id = EXCLUDED.sim_card_id,
			               is_deleted = FALSE,
			               updated_at = NOW()
			 RETURNING phone_line_id::text`,
			uuid.New().String(), phoneNumber, simCardID, domain.LineStatusAvailable,
		).Scan(&phoneLineID)
		if err != nil {
			return "", "", false, mapPQError(err, "failed to upsert phone line")
		}
	}

	if err := tx.Commit(); err != nil {
		return "", "", false, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return simCardID, phoneLineID, inserted, nil
}

// SIMStatusCounts 按状态统计SIM卡数量（排除软删除）
func (r *PostgresLinesRepository) SIMStatusCounts(ctx context.Context) (map[string]int, error) {
	return r.statusCounts(ctx, "sim_cards")
}

// statusCounts 表名来自常量调用点，不拼接外部输入
func (r *PostgresLinesRepository) statusCounts(ctx context.Context, table string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM "+table+" WHERE NOT is_deleted GROUP BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by status: %w", table, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}
	return counts, nil
}

func scanPhoneLine(row rowScanner) (*domain.PhoneLine, error) {
	var line domain.PhoneLine
	var activatedAt sql.NullTime
	err := row.Scan(
		&line.PhoneLineID,
		&line.PhoneNumber,
		&line.SIMCardID,
		&line.Status,
		&activatedAt,
		&line.IsDeleted,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		line.ActivatedAt = &t
	}
	return &line, nil
}

func scanPhoneLineResult(row rowScanner) (*domain.PhoneLine, error) {
	line, err := scanPhoneLine(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("phone line not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get phone line: %w", err)
	}
	return line, nil
}

func scanSIMCard(row rowScanner) (*domain.SIMCard, error) {
	var sim domain.SIMCard
	var activatedAt sql.NullTime
	err := row.Scan(
		&sim.SIMCardID,
		&sim.ICCID,
		&sim.Carrier,
		&sim.Status,
		&activatedAt,
		&sim.IsDeleted,
		&sim.CreatedAt,
		&sim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		sim.ActivatedAt = &t
	}
	return &sim, nil
}

func scanSIMCardResult(row rowScanner) (*domain.SIMCard, error) {
	sim, err := scanSIMCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sim card not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sim card: %w", err)
	}
	return sim, nil
}
