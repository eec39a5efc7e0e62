package connector

import (
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewDatabaseConnectorWithExplicitParams(t *testing.T) {
	dc := NewDatabaseConnector("myhost", "myuser", "mypass", "mydb", "3307", testLogger())

	if dc.Host != "myhost" {
		t.Errorf("Expected host myhost, got %s", dc.Host)
	}
	if dc.User != "myuser" {
		t.Errorf("Expected user myuser, got %s", dc.User)
	}
	if dc.Database != "mydb" {
		t.Errorf("Expected database mydb, got %s", dc.Database)
	}
	if dc.Port != "3307" {
		t.Errorf("Expected port 3307, got %s", dc.Port)
	}
}

func TestNewDatabaseConnectorEnvironmentFallback(t *testing.T) {
	t.Setenv("MYSQL_HOST", "envhost")
	t.Setenv("MYSQL_USER", "envuser")
	t.Setenv("MYSQL_DATABASE", "envdb")
	t.Setenv("MYSQL_PORT", "3308")

	dc := NewDatabaseConnector("", "", "", "", "", testLogger())

	if dc.Host != "envhost" {
		t.Errorf("Expected host envhost, got %s", dc.Host)
	}
	if dc.User != "envuser" {
		t.Errorf("Expected user envuser, got %s", dc.User)
	}
	if dc.Database != "envdb" {
		t.Errorf("Expected database envdb, got %s", dc.Database)
	}
	if dc.Port != "3308" {
		t.Errorf("Expected port 3308, got %s", dc.Port)
	}
}

func TestConnectRequiresDatabaseName(t *testing.T) {
	dc := &DatabaseConnector{Logger: testLogger()}
	if err := dc.Connect(); err == nil {
		t.Error("Expected error when database name is missing")
	}
}

func TestExecuteQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	dc := &DatabaseConnector{Database: "testdb", DB: db, Logger: testLogger()}

	mock.ExpectQuery("SELECT table_name").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("customer").
			AddRow([]byte("order")))

	results, err := dc.ExecuteQuery("SELECT table_name FROM information_schema.tables")
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(results))
	}
	if results[0]["table_name"] != "customer" {
		t.Errorf("Expected first row customer, got %v", results[0]["table_name"])
	}
	// Byte slices come back as strings.
	if results[1]["table_name"] != "order" {
		t.Errorf("Expected second row order, got %v", results[1]["table_name"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestExecuteScalar(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	dc := &DatabaseConnector{Database: "testdb", DB: db, Logger: testLogger()}

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	value, err := dc.ExecuteScalar("SELECT COUNT(*) FROM customer")
	if err != nil {
		t.Fatalf("Expected scalar query to succeed, got %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}
}
