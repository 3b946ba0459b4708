package foreign

import (
	"database/sql"
	"errors"
	"fmt"
	"plastic/internal/object"
	"slices"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Drivers accepted by dbOpen.
var Drivers = []string{"mysql", "postgres", "sqlite3"}

// database is the value behind a db handle. An open transaction takes over
// query and exec until it is committed or rolled back.
type database struct {
	mu     sync.Mutex
	driver string
	db     *sql.DB
	tx     *sql.Tx
	// scope parents the row records
	scope object.Context
}

func (d *database) String() string { return "<db " + d.driver + ">" }

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

func (d *database) conn() (querier, error) {
	if d.db == nil {
		return nil, errors.New("connection is closed")
	}
	if d.tx != nil {
		return d.tx, nil
	}
	return d.db, nil
}

// dbOpen builds the dbOpen built-in. Records it returns live below scope.
func dbOpen(scope object.Context) object.NativeMethod {
	return func(args []object.Value) (object.Value, error) {
		return openDatabase(scope, args)
	}
}

func openDatabase(scope object.Context, args []object.Value) (object.Value, error) {
	if err := wantArgs(args, 2); err != nil {
		return nil, err
	}
	driver, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	dsn, err := stringArg(args, 1)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(Drivers, driver) {
		return nil, fmt.Errorf("unknown driver %q, want one of %s", driver, strings.Join(Drivers, ", "))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	// every pooled connection to an in-memory sqlite database would see its own database
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return newDatabase(driver, db, scope), nil
}

func newDatabase(driver string, db *sql.DB, scope object.Context) *object.Native {
	d := &database{driver: driver, db: db, scope: scope}
	native := &object.Native{TypeName: "Database", Value: d}
	native.Methods = map[string][]object.NativeMethod{
		"query":    {d.query},
		"exec":     {d.exec},
		"begin":    {d.txCall(native, (*database).begin)},
		"commit":   {d.txCall(native, (*database).commit)},
		"rollback": {d.txCall(native, (*database).rollback)},
		"close":    {d.close},
	}
	return native
}

func (d *database) query(args []object.Value) (object.Value, error) {
	statement, params, err := statementArgs(args)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	q, err := d.conn()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(statement, params...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return d.renderRows(rows)
}

func (d *database) exec(args []object.Value) (object.Value, error) {
	statement, params, err := statementArgs(args)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	q, err := d.conn()
	if err != nil {
		return nil, err
	}
	result, err := q.Exec(statement, params...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}

	// postgres does not report an insert id
	affected, _ := result.RowsAffected()
	lastID, _ := result.LastInsertId()
	return d.record(map[string]object.Value{
		"rowsAffected": &object.Integer{Value: affected},
		"lastInsertId": &object.Integer{Value: lastID},
	}), nil
}

// txCall wraps a transaction step; it returns the handle so calls can chain.
func (d *database) txCall(self *object.Native, step func(*database) error) object.NativeMethod {
	return func(args []object.Value) (object.Value, error) {
		if err := wantArgs(args, 0); err != nil {
			return nil, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := step(d); err != nil {
			return nil, err
		}
		return self, nil
	}
}

func (d *database) begin() error {
	if d.db == nil {
		return errors.New("connection is closed")
	}
	if d.tx != nil {
		return errors.New("transaction already open")
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	d.tx = tx
	return nil
}

func (d *database) commit() error {
	if d.tx == nil {
		return errors.New("no open transaction")
	}
	err := d.tx.Commit()
	d.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *database) rollback() error {
	if d.tx == nil {
		return errors.New("no open transaction")
	}
	err := d.tx.Rollback()
	d.tx = nil
	if err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (d *database) close(args []object.Value) (object.Value, error) {
	if err := wantArgs(args, 0); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		d.tx.Rollback()
		d.tx = nil
	}
	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		if err != nil {
			return nil, err
		}
	}
	return object.NIL, nil
}

func statementArgs(args []object.Value) (string, []any, error) {
	if len(args) < 1 {
		return "", nil, errors.New("expects at least 1 argument: sql")
	}
	statement, err := stringArg(args, 0)
	if err != nil {
		return "", nil, err
	}
	params := make([]any, len(args)-1)
	for i, arg := range args[1:] {
		params[i] = toDriverValue(arg)
	}
	return statement, params, nil
}

func toDriverValue(v object.Value) any {
	switch v := v.(type) {
	case *object.Integer:
		return v.Value
	case *object.Float:
		return v.Value
	case *object.String:
		return v.Value
	case *object.Boolean:
		return v.Value
	case *object.Nil:
		return nil
	}
	return v.Inspect()
}

// record builds an instance whose members are fields.
func (d *database) record(fields map[string]object.Value) *object.Instance {
	scope := object.NewEnclosedEnvironment(d.scope)
	for name, v := range fields {
		scope.Declare(name, v)
	}
	return &object.Instance{Scope: scope}
}

func (d *database) renderRows(rows *sql.Rows) (object.Value, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, _ := rows.ColumnTypes()
	resultRows := []object.Value{}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		fields := make(map[string]object.Value, len(columns))
		for i, col := range columns {
			var typeName string
			if i < len(types) {
				typeName = types[i].DatabaseTypeName()
			}
			fields[col] = mapValue(values[i], typeName)
		}
		resultRows = append(resultRows, d.record(fields))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &object.Array{Elements: resultRows}, nil
}

func mapValue(v any, dbType string) object.Value {
	if v == nil {
		return object.NIL
	}
	switch x := v.(type) {
	case int64:
		return &object.Integer{Value: x}
	case float64:
		return &object.Float{Value: x}
	case []byte:
		switch dbType {
		case "INTEGER", "INT", "BIGINT":
			var i int64
			if _, err := fmt.Sscan(string(x), &i); err == nil {
				return &object.Integer{Value: i}
			}
		}
		return &object.String{Value: string(x)}
	case string:
		return &object.String{Value: x}
	case bool:
		return object.NativeBool(x)
	case time.Time:
		return &object.String{Value: x.Format(time.RFC3339)}
	default:
		return &object.String{Value: fmt.Sprintf("%v", v)}
	}
}
