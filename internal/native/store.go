package native

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"fable/internal/object"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Storage natives give scripts an opt-in persistence surface on database/sql.
// Handles are plain integers; the table is process-wide because a script may
// pass a handle between procs freely.
var (
	storeMu     sync.Mutex
	storeNextID int64
	storeConns  = map[int64]*sql.DB{}
)

func (r *Registry) registerStorage() {
	r.Register(&object.Native{Name: "storeOpen", Arity: 2, Fn: fnStoreOpen})
	r.Register(&object.Native{Name: "storeExec", Arity: -1, Fn: fnStoreExec})
	r.Register(&object.Native{Name: "storeQuery", Arity: -1, Fn: fnStoreQuery})
	r.Register(&object.Native{Name: "storeClose", Arity: 1, Fn: fnStoreClose})
}

func fnStoreOpen(ctx object.CallContext, args ...object.Object) object.Object {
	driver, ok := args[0].(*object.String)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "storeOpen driver must be a string, got %s", args[0].Type())
	}
	dsn, ok := args[1].(*object.String)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "storeOpen dsn must be a string, got %s", args[1].Type())
	}

	db, err := sql.Open(driver.Value, dsn.Value)
	if err != nil {
		return ctx.Fault(object.NativeFailure, "failed to open store: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return ctx.Fault(object.NativeFailure, "failed to ping store: %v", err)
	}

	storeMu.Lock()
	storeNextID++
	id := storeNextID
	storeConns[id] = db
	storeMu.Unlock()

	return &object.Integer{Value: id}
}

func fnStoreExec(ctx object.CallContext, args ...object.Object) object.Object {
	db, query, params, fault := storeCall(ctx, "storeExec", args)
	if fault != nil {
		return fault
	}

	result, err := db.Exec(query, params...)
	if err != nil {
		return ctx.Fault(object.NativeFailure, "storeExec failed: %v", err)
	}

	affected, _ := result.RowsAffected()
	lastID, _ := result.LastInsertId()

	out := object.NewMapping()
	out.Set("rowsAffected", &object.Integer{Value: affected})
	out.Set("lastInsertId", &object.Integer{Value: lastID})
	return out
}

func fnStoreQuery(ctx object.CallContext, args ...object.Object) object.Object {
	db, query, params, fault := storeCall(ctx, "storeQuery", args)
	if fault != nil {
		return fault
	}

	rows, err := db.Query(query, params...)
	if err != nil {
		return ctx.Fault(object.NativeFailure, "storeQuery failed: %v", err)
	}
	defer rows.Close()

	return renderRows(rows)
}

func fnStoreClose(ctx object.CallContext, args ...object.Object) object.Object {
	id, ok := args[0].(*object.Integer)
	if !ok {
		return ctx.Fault(object.TypeMismatch, "storeClose expects a handle, got %s", args[0].Type())
	}

	storeMu.Lock()
	db, found := storeConns[id.Value]
	delete(storeConns, id.Value)
	storeMu.Unlock()

	if !found {
		return ctx.Fault(object.NativeFailure, "invalid store handle %d", id.Value)
	}
	db.Close()
	return object.NIL
}

func storeCall(ctx object.CallContext, name string, args []object.Object) (*sql.DB, string, []interface{}, *object.Fault) {
	if len(args) < 2 {
		return nil, "", nil, ctx.Fault(object.ArityMismatch,
			"%s expects at least 2 arguments: handle, sql", name)
	}
	id, ok := args[0].(*object.Integer)
	if !ok {
		return nil, "", nil, ctx.Fault(object.TypeMismatch, "%s expects a handle, got %s", name, args[0].Type())
	}
	query, ok := args[1].(*object.String)
	if !ok {
		return nil, "", nil, ctx.Fault(object.TypeMismatch, "%s sql must be a string, got %s", name, args[1].Type())
	}

	storeMu.Lock()
	db, found := storeConns[id.Value]
	storeMu.Unlock()
	if !found {
		return nil, "", nil, ctx.Fault(object.NativeFailure, "invalid store handle %d", id.Value)
	}

	params := make([]interface{}, len(args)-2)
	for i, a := range args[2:] {
		params[i] = driverValue(a)
	}
	return db, query.Value, params, nil
}

func driverValue(o object.Object) interface{} {
	switch v := o.(type) {
	case *object.Integer:
		return v.Value
	case *object.Float:
		return v.Value
	case *object.Boolean:
		return v.Value
	case *object.Nil:
		return nil
	case *object.String:
		return v.Value
	}
	return o.Inspect()
}

func renderRows(rows *sql.Rows) object.Object {
	columns, _ := rows.Columns()
	resultRows := []object.Object{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		rows.Scan(pointers...)

		rowMap := object.NewMapping()
		for i, col := range columns {
			rowMap.Set(col, scriptValue(values[i]))
		}
		resultRows = append(resultRows, rowMap)
	}
	return &object.Sequence{Elements: resultRows}
}

func scriptValue(v interface{}) object.Object {
	if v == nil {
		return object.NIL
	}
	switch x := v.(type) {
	case int64:
		return &object.Integer{Value: x}
	case float64:
		return &object.Float{Value: x}
	case []byte:
		return &object.String{Value: string(x)}
	case string:
		return &object.String{Value: x}
	case bool:
		return object.NativeBoolToBoolean(x)
	case time.Time:
		return &object.String{Value: x.Format(time.RFC3339)}
	default:
		return &object.String{Value: fmt.Sprintf("%v", v)}
	}
}
