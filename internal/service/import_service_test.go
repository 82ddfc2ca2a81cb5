package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/domain"
	"github.com/andresouza701/lineops/internal/metrics"
)

func newTestImportService(employees *fakeEmployeesRepo, lines *fakeLinesRepo) *ImportService {
	allocation := NewAllocationService(
		&fakeAllocationsRepo{},
		&fakeAuthorizer{allowed: true},
		&fakeSink{},
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop(),
	)
	allocation.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return NewImportService(employees, lines, allocation, zap.NewNop())
}

func TestImportFile_EmployeeRows(t *testing.T) {
	employees := newFakeEmployeesRepo()
	lines := newFakeLinesRepo()
	svc := newTestImportService(employees, lines)

	csv := strings.Join([]string{
		"type,full_name,corporate_email,registry_code,team,status",
		"employee,Maria Silva,maria.silva@corp.example,E1001,Vendas,ativo",
		"employee,Joao Souza,joao.souza@corp.example,E1002,TI,inativo",
	}, "\n")

	summary, err := svc.ImportFile(context.Background(), "funcionarios.csv", strings.NewReader(csv), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RowsProcessed)
	assert.Equal(t, 2, summary.EmployeesCreated)
	assert.Empty(t, summary.Errors)

	// 葡萄牙语状态别名被归一化
	require.Len(t, employees.upserts, 2)
	assert.Equal(t, domain.EmployeeStatusActive, employees.upserts[0].Status)
	assert.Equal(t, domain.EmployeeStatusInactive, employees.upserts[1].Status)
}

func TestImportFile_SIMCardWithLineAndAllocation(t *testing.T) {
	employees := newFakeEmployeesRepo()
	employees.add(&domain.Employee{
		EmployeeID:   "emp-1",
		RegistryCode: "E1001",
		Status:       domain.EmployeeStatusActive,
	})
	lines := newFakeLinesRepo()
	svc := newTestImportService(employees, lines)

	csv := strings.Join([]string{
		"type,iccid,carrier,status,phone_number,allocate_to",
		"simcard,89550000000000000001,Vivo,disponivel,+5511999990001,E1001",
	}, "\n")

	summary, err := svc.ImportFile(context.Background(), "chips.csv", strings.NewReader(csv), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RowsProcessed)
	assert.Equal(t, 1, summary.SIMCardsCreated)
	assert.Equal(t, 1, summary.AllocationsCreated)
	assert.Empty(t, summary.Errors)

	require.Len(t, lines.simUpserts, 1)
	assert.Equal(t, domain.SIMStatusAvailable, lines.simUpserts[0].Status)
	assert.Equal(t, []string{"+5511999990001"}, lines.lineNumbers)
}

func TestImportFile_RowErrorsDoNotAbort(t *testing.T) {
	employees := newFakeEmployeesRepo()
	lines := newFakeLinesRepo()
	svc := newTestImportService(employees, lines)

	csv := strings.Join([]string{
		"type,full_name,corporate_email,registry_code,team,status",
		"employee,Sem Email,,E1003,TI,ativo",
		"veiculo,X,x@corp.example,E1004,TI,ativo",
		"employee,Ana Costa,ana.costa@corp.example,E1005,RH,ativo",
	}, "\n")

	summary, err := svc.ImportFile(context.Background(), "mix.csv", strings.NewReader(csv), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RowsProcessed)
	require.Len(t, summary.Errors, 2)
	// 行号从2起算（第1行是表头）
	assert.Contains(t, summary.Errors[0], "row 2:")
	assert.Contains(t, summary.Errors[1], "row 3:")
}

func TestImportFile_AllocateToWithoutPhoneNumber(t *testing.T) {
	employees := newFakeEmployeesRepo()
	employees.add(&domain.Employee{EmployeeID: "emp-1", RegistryCode: "E1001"})
	lines := newFakeLinesRepo()
	svc := newTestImportService(employees, lines)

	csv := strings.Join([]string{
		"type,iccid,carrier,status,phone_number,allocate_to",
		"simcard,89550000000000000001,Vivo,disponivel,,E1001",
	}, "\n")

	summary, err := svc.ImportFile(context.Background(), "chips.csv", strings.NewReader(csv), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RowsProcessed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "phone_number")
	assert.Equal(t, 0, summary.AllocationsCreated)
}

func TestImportFile_InvalidStatusAlias(t *testing.T) {
	employees := newFakeEmployeesRepo()
	lines := newFakeLinesRepo()
	svc := newTestImportService(employees, lines)

	csv := strings.Join([]string{
		"type,full_name,corporate_email,registry_code,team,status",
		"employee,Maria Silva,maria.silva@corp.example,E1001,Vendas,ferias",
	}, "\n")

	summary, err := svc.ImportFile(context.Background(), "f.csv", strings.NewReader(csv), "user-1")
	require.NoError(t, err)
	assert.True(t, summary.HasErrors())
	assert.Empty(t, employees.upserts)
}

func TestImportFile_UnsupportedFormat(t *testing.T) {
	svc := newTestImportService(newFakeEmployeesRepo(), newFakeLinesRepo())

	_, err := svc.ImportFile(context.Background(), "dados.pdf", strings.NewReader("x"), "user-1")
	assert.Error(t, err)
}

func TestImportFile_XLSX(t *testing.T) {
	employees := newFakeEmployeesRepo()
	lines := newFakeLinesRepo()
	svc := newTestImportService(employees, lines)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"type", "full_name", "corporate_email", "registry_code", "team", "status"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"employee", "Maria Silva", "maria.silva@corp.example", "E1001", "Vendas", "ativo"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	summary, err := svc.ImportFile(context.Background(), "funcionarios.xlsx", buf, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RowsProcessed)
	assert.Equal(t, 1, summary.EmployeesCreated)
}

func TestGenerateImportTemplate(t *testing.T) {
	svc := newTestImportService(newFakeEmployeesRepo(), newFakeLinesRepo())

	data, err := svc.GenerateImportTemplate()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// 模板可被重新读出且表头完整
	rows, err := parseXLSX(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
