package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/repository"
)

// ImportSummary 批量导入结果
type ImportSummary struct {
	RowsProcessed      int      `json:"rows_processed"`
	EmployeesCreated   int      `json:"employees_created"`
	EmployeesUpdated   int      `json:"employees_updated"`
	SIMCardsCreated    int      `json:"simcards_created"`
	SIMCardsUpdated    int      `json:"simcards_updated"`
	AllocationsCreated int      `json:"allocations_created"`
	Errors             []string `json:"errors"`
}

// HasErrors 是否存在失败行
func (s *ImportSummary) HasErrors() bool {
	return len(s.Errors) > 0
}

// 导入文件的状态别名（兼容葡萄牙语表格）
var employeeStatusAliases = map[string]string{
	"ativo":    domain.EmployeeStatusActive,
	"inativo":  domain.EmployeeStatusInactive,
	"active":   domain.EmployeeStatusActive,
	"inactive": domain.EmployeeStatusInactive,
}

var simStatusAliases = map[string]string{
	"disponivel": domain.SIMStatusAvailable,
	"ativo":      domain.SIMStatusActive,
	"bloqueado":  domain.SIMStatusBlocked,
	"cancelado":  domain.SIMStatusCancelled,
	"available":  domain.SIMStatusAvailable,
	"active":     domain.SIMStatusActive,
	"blocked":    domain.SIMStatusBlocked,
	"cancelled":  domain.SIMStatusCancelled,
}

// ImportHeader 导入模板表头
var ImportHeader = []string{
	"type",
	"full_name",
	"corporate_email",
	"registry_code",
	"team",
	"status",
	"iccid",
	"carrier",
	"phone_number",
	"allocate_to",
}

// ImportService 员工/SIM卡批量导入
// 每行独立处理：SIM卡与线路的upsert在同一事务内；行失败不中断后续行，
// 错误按行号收集。allocate_to 列触发分配引擎，与单笔分配完全同一套约束
type ImportService struct {
	employees  repository.EmployeesRepository
	lines      repository.LinesRepository
	allocation *AllocationService
	logger     *zap.Logger
}

// NewImportService 创建导入服务
func NewImportService(
	employees repository.EmployeesRepository,
	lines repository.LinesRepository,
	allocation *AllocationService,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		employees:  employees,
		lines:      lines,
		allocation: allocation,
		logger:     logger,
	}
}

// ImportFile 按扩展名解析并导入
func (s *ImportService) ImportFile(ctx context.Context, filename string, r io.Reader, principalID string) (*ImportSummary, error) {
	var rows []map[string]string
	var err error

	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		rows, err = parseCSV(r)
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		rows, err = parseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported file format %q: use .csv or .xlsx", filename)
	}
	if err != nil {
		return nil, err
	}

	summary := s.ingest(ctx, rows, principalID)
	s.logger.Info("import finished",
		zap.String("filename", filename),
		zap.Int("rows_processed", summary.RowsProcessed),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

// ingest 逐行导入；行号从2开始计（第1行是表头）
func (s *ImportService) ingest(ctx context.Context, rows []map[string]string, principalID string) *ImportSummary {
	summary := &ImportSummary{Errors: []string{}}

	for i, row := range rows {
		lineNo := i + 2

		empty := true
		for _, v := range row {
			if v != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		var err error
		switch row["type"] {
		case "employee":
			err = s.upsertEmployee(ctx, row, summary)
		case "simcard":
			err = s.upsertSIMCard(ctx, row, summary, principalID)
		default:
			err = fmt.Errorf("column 'type' must be 'employee' or 'simcard'")
		}
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", lineNo, err))
			continue
		}
		summary.RowsProcessed++
	}
	return summary
}

func (s *ImportService) upsertEmployee(ctx context.Context, row map[string]string, summary *ImportSummary) error {
	if err := ensureRequired(row, "full_name", "corporate_email", "registry_code"); err != nil {
		return err
	}
	team := row["team"]
	if team == "" {
		team = row["department"]
	}
	if team == "" {
		return fmt.Errorf("missing required column: team")
	}
	status, err := normalizeEmployeeStatus(row["status"])
	if err != nil {
		return err
	}

	created, err := s.employees.UpsertEmployeeByRegistryCode(ctx, &domain.Employee{
		RegistryCode:   row["registry_code"],
		FullName:       row["full_name"],
		CorporateEmail: row["corporate_email"],
		Team:           team,
		Status:         status,
	})
	if err != nil {
		return err
	}
	if created {
		summary.EmployeesCreated++
	} else {
		summary.EmployeesUpdated++
	}
	return nil
}

func (s *ImportService) upsertSIMCard(ctx context.Context, row map[string]string, summary *ImportSummary, principalID string) error {
	if err := ensureRequired(row, "iccid", "carrier"); err != nil {
		return err
	}
	status, err := normalizeSIMStatus(row["status"])
	if err != nil {
		return err
	}

	_, phoneLineID, created, err := s.lines.UpsertSIMCardAndLine(ctx, &domain.SIMCard{
		ICCID:   row["iccid"],
		Carrier: row["carrier"],
		Status:  status,
	}, row["phone_number"])
	if err != nil {
		return err
	}
	if created {
		summary.SIMCardsCreated++
	} else {
		summary.SIMCardsUpdated++
	}

	// allocate_to：行内同时给出线路和员工时，经分配引擎建立分配
	if registryCode := row["allocate_to"]; registryCode != "" {
		if phoneLineID == "" {
			return fmt.Errorf("allocate_to requires phone_number on the same row")
		}
		employee, err := s.employees.GetEmployeeByRegistryCode(ctx, registryCode)
		if err != nil {
			return fmt.Errorf("allocate_to %q: %w", registryCode, err)
		}
		if _, err := s.allocation.Allocate(ctx, AllocateRequest{
			EmployeeID:  employee.EmployeeID,
			PhoneLineID: phoneLineID,
			PrincipalID: principalID,
		}); err != nil {
			return fmt.Errorf("allocate_to %q: %w", registryCode, err)
		}
		summary.AllocationsCreated++
	}
	return nil
}

// GenerateImportTemplate 生成导入模板 Excel 文件（只含表头）
func (s *ImportService) GenerateImportTemplate() ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Import"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for col, header := range ImportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// parseCSV 首行作为表头，键统一小写
func parseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := normalizeHeaders(records[0])
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, normalizeRow(headers, record))
	}
	return rows, nil
}

// parseXLSX 读取第一个工作表，首行作为表头
func parseXLSX(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := normalizeHeaders(records[0])
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, normalizeRow(headers, record))
	}
	return rows, nil
}

func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}

func normalizeRow(headers []string, record []string) map[string]string {
	row := map[string]string{}
	for i, header := range headers {
		if header == "" {
			continue
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row[header] = value
	}
	return row
}

func ensureRequired(row map[string]string, fields ...string) error {
	missing := []string{}
	for _, field := range fields {
		if row[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func normalizeEmployeeStatus(raw string) (string, error) {
	if raw == "" {
		return domain.EmployeeStatusInactive, nil
	}
	if status, ok := employeeStatusAliases[strings.ToLower(raw)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid employee status %q: use 'active'/'inactive' or 'ativo'/'inativo'", raw)
}

func normalizeSIMStatus(raw string) (string, error) {
	if raw == "" {
		return domain.SIMStatusAvailable, nil
	}
	if status, ok := simStatusAliases[strings.ToLower(raw)]; ok {
		return status, nil
	}
	upper := strings.ToUpper(raw)
	if domain.ValidSIMStatus(upper) {
		return upper, nil
	}
	return "", fmt.Errorf("invalid sim card status %q", raw)
}
