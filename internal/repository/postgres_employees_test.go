package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresouza701/lineops/internal/domain"
)

func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"employee_id", "registry_code", "full_name", "corporate_email",
		"team", "status", "is_deleted", "created_at", "updated_at",
	})
}

func TestGetEmployee_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	mock.ExpectQuery(`FROM employees WHERE employee_id = \$1 AND NOT is_deleted`).
		WithArgs("emp-1").
		WillReturnRows(employeeRows().
			AddRow("emp-1", "E1001", "Maria Silva", "maria.silva@corp.example", "Vendas", "active", false, testNow, testNow))

	employee, err := repo.GetEmployee(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "E1001", employee.RegistryCode)
	assert.Equal(t, domain.EmployeeStatusActive, employee.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmployee_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	mock.ExpectQuery(`FROM employees WHERE employee_id = \$1 AND NOT is_deleted`).
		WithArgs("emp-missing").
		WillReturnRows(employeeRows())

	_, err := repo.GetEmployee(context.Background(), "emp-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEmployees_WithFilters(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees WHERE NOT is_deleted AND status = \$1 AND \(full_name ILIKE \$2`).
		WithArgs("active", "%silva%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM employees WHERE NOT is_deleted AND status = \$1 .+ ORDER BY full_name LIMIT \$3 OFFSET \$4`).
		WithArgs("active", "%silva%", 20, 0).
		WillReturnRows(employeeRows().
			AddRow("emp-1", "E1001", "Maria Silva", "maria.silva@corp.example", "Vendas", "active", false, testNow, testNow))

	employees, total, err := repo.ListEmployees(context.Background(), EmployeeFilters{
		Status: "active",
		Search: "silva",
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, employees, 1)
	assert.Equal(t, "Maria Silva", employees[0].FullName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEmployee_DuplicateRegistryCode(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	mock.ExpectExec(`INSERT INTO employees`).
		WithArgs(sqlmock.AnyArg(), "E1001", "Maria Silva", "maria.silva@corp.example", "Vendas", "inactive").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "employees_registry_code_key"})

	_, err := repo.CreateEmployee(context.Background(), &domain.Employee{
		RegistryCode:   "E1001",
		FullName:       "Maria Silva",
		CorporateEmail: "maria.silva@corp.example",
		Team:           "Vendas",
	})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmployee_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	mock.ExpectExec(`UPDATE employees SET`).
		WithArgs("emp-missing", "Novo Nome").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEmployee(context.Background(), "emp-missing", &domain.Employee{FullName: "Novo Nome"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEmployeeByRegistryCode_Created(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	mock.ExpectQuery(`INSERT INTO employees`).
		WithArgs(sqlmock.AnyArg(), "E1002", "Joao Souza", "joao.souza@corp.example", "TI", "active").
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	created, err := repo.UpsertEmployeeByRegistryCode(context.Background(), &domain.Employee{
		RegistryCode:   "E1002",
		FullName:       "Joao Souza",
		CorporateEmail: "joao.souza@corp.example",
		Team:           "TI",
		Status:         domain.EmployeeStatusActive,
	})
	require.NoError(t, err)
	assert.True(t, created)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmployee_Referenced(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	// 历史分配记录也阻止删除
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM line_allocations WHERE employee_id = \$1\)`).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.DeleteEmployee(context.Background(), "emp-1")
	assert.ErrorIs(t, err, domain.ErrReferencedEntity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmployee_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresEmployeesRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM line_allocations WHERE employee_id = \$1\)`).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`UPDATE employees SET is_deleted = TRUE`).
		WithArgs("emp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteEmployee(context.Background(), "emp-1")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
