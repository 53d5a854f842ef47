package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"forgeport/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/*
   pgx stubs (distinct names from the helpers_test fakes, which implement the
   store-level interfaces rather than pgx ones)
*/

// stubPgxRow implements pgx.Row
type stubPgxRow struct {
	scan func(dest ...any) error
}

func (r *stubPgxRow) Scan(dest ...any) error {
	if r.scan == nil {
		return nil
	}
	return r.scan(dest...)
}

// stubPgxRows implements pgx.Rows
type stubPgxRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	idx    int
	err    error
	closed bool
	ct     pgconn.CommandTag
}

func newStubPgxRows(cols []string, data [][]any) *stubPgxRows {
	fds := make([]pgconn.FieldDescription, len(cols))
	for i, c := range cols {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return &stubPgxRows{fields: fds, data: data, idx: -1}
}

func (r *stubPgxRows) Conn() *pgx.Conn               { return nil }
func (r *stubPgxRows) Close()                        { r.closed = true }
func (r *stubPgxRows) Err() error                    { return r.err }
func (r *stubPgxRows) CommandTag() pgconn.CommandTag { return r.ct }
func (r *stubPgxRows) RawValues() [][]byte           { return nil }

func (r *stubPgxRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }

func (r *stubPgxRows) Next() bool {
	if r.err != nil {
		return false
	}
	r.idx++
	return r.idx >= 0 && r.idx < len(r.data)
}

func (r *stubPgxRows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.data) {
		return nil, errors.New("out of range")
	}
	return r.data[r.idx], nil
}

func (r *stubPgxRows) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("scan out of range")
	}
	cur := r.data[r.idx]
	if len(cur) != len(dest) {
		return errors.New("dest len mismatch")
	}
	for i := range dest {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer || !dv.Elem().CanSet() {
			return errors.New("dest not pointer")
		}
		val := reflect.ValueOf(cur[i])
		switch {
		case val.IsValid() && val.Type().AssignableTo(dv.Elem().Type()):
			dv.Elem().Set(val)
		case val.IsValid() && val.Type().ConvertibleTo(dv.Elem().Type()):
			dv.Elem().Set(val.Convert(dv.Elem().Type()))
		default:
			return errors.New("type mismatch")
		}
	}
	return nil
}

// stubPgxTx implements pgx.Tx (only the methods txQuerier exercises)
type stubPgxTx struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (f *stubPgxTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execFn != nil {
		return f.execFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *stubPgxTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, sql, args...)
	}
	return newStubPgxRows([]string{"n"}, [][]any{{1}}), nil
}

func (f *stubPgxTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.queryRowFn != nil {
		return f.queryRowFn(ctx, sql, args...)
	}
	return &stubPgxRow{scan: func(dest ...any) error {
		if len(dest) > 0 {
			if p, ok := dest[0].(*int); ok {
				*p = 7
			}
		}
		return nil
	}}
}

// remaining pgx.Tx methods exist only to satisfy the interface
func (f *stubPgxTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (f *stubPgxTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (f *stubPgxTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }
func (f *stubPgxTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not implemented")
}
func (f *stubPgxTx) Conn() *pgx.Conn                           { return nil }
func (f *stubPgxTx) Commit(context.Context) error              { return nil }
func (f *stubPgxTx) Rollback(context.Context) error            { return nil }
func (f *stubPgxTx) Begin(ctx context.Context) (pgx.Tx, error) { return f, nil }

// captureTracer records every query event it sees
type captureTracer struct {
	events []pg.QueryEvent
}

func (c *captureTracer) OnQuery(_ context.Context, ev pg.QueryEvent) {
	c.events = append(c.events, ev)
}

/*
   tests
*/

func TestTag_String(t *testing.T) {
	t.Parallel()

	tg := tag{t: pgconn.NewCommandTag("INSERT 0 1")}
	if got := tg.String(); got != "INSERT 0 1" {
		t.Fatalf("tag.String mismatch got=%q", got)
	}
}

func TestRows_Columns_Next_Scan_Close(t *testing.T) {
	t.Parallel()

	fr := newStubPgxRows([]string{"run_id", "status"}, [][]any{
		{"run-1", "running"},
		{"run-2", "finished"},
	})
	rs := rows{r: fr}

	cols := rs.Columns()
	if len(cols) != 2 || cols[0] != "run_id" || cols[1] != "status" {
		t.Fatalf("Columns mismatch: %#v", cols)
	}

	var ids, statuses []string
	for rs.Next() {
		var id, status string
		if err := rs.Scan(&id, &status); err != nil {
			t.Fatalf("Scan error: %v", err)
		}
		ids = append(ids, id)
		statuses = append(statuses, status)
	}
	if err := rs.Err(); err != nil {
		t.Fatalf("rows.Err: %v", err)
	}
	rs.Close()
	if !fr.closed {
		t.Fatalf("underlying rows not closed")
	}
	if !reflect.DeepEqual(ids, []string{"run-1", "run-2"}) {
		t.Fatalf("ids mismatch: %v", ids)
	}
	if !reflect.DeepEqual(statuses, []string{"running", "finished"}) {
		t.Fatalf("statuses mismatch: %v", statuses)
	}
}

func TestRow_ScanDelegates(t *testing.T) {
	t.Parallel()

	r := row{r: &stubPgxRow{scan: func(dest ...any) error {
		if len(dest) != 1 {
			return errors.New("want 1")
		}
		p, ok := dest[0].(*string)
		if !ok {
			return errors.New("bad type")
		}
		*p = "run-42"
		return nil
	}}}

	var s string
	if err := r.Scan(&s); err != nil {
		t.Fatalf("row.Scan error: %v", err)
	}
	if s != "run-42" {
		t.Fatalf("row.Scan mismatch got=%q", s)
	}
}

func TestTxQuerier_Exec_Query_QueryRow(t *testing.T) {
	t.Parallel()

	fx := &stubPgxTx{
		execFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if sql != "update import_runs set status=$1 where run_id=$2" {
				return pgconn.NewCommandTag(""), errors.New("unexpected sql")
			}
			if len(args) != 2 || args[0] != "finished" || args[1] != "run-1" {
				return pgconn.NewCommandTag(""), errors.New("unexpected args")
			}
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			if sql != "select event_id, kind from import_events where run_id=$1" ||
				len(args) != 1 || args[0] != "run-1" {
				return nil, errors.New("unexpected query")
			}
			return newStubPgxRows([]string{"event_id", "kind"}, [][]any{{"ev-9", 1621}}), nil
		},
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &stubPgxRow{scan: func(dest ...any) error {
				if len(dest) != 1 {
					return errors.New("want 1 dest")
				}
				p, ok := dest[0].(*int)
				if !ok {
					return errors.New("bad type")
				}
				*p = 42
				return nil
			}}
		},
	}
	q := txQuerier{tx: fx}

	ct, err := q.Exec(context.Background(), "update import_runs set status=$1 where run_id=$2", "finished", "run-1")
	if err != nil {
		t.Fatalf("txQuerier.Exec error: %v", err)
	}
	if ct.String() != "UPDATE 1" {
		t.Fatalf("CommandTag mismatch got=%q", ct.String())
	}

	rs, err := q.Query(context.Background(), "select event_id, kind from import_events where run_id=$1", "run-1")
	if err != nil {
		t.Fatalf("txQuerier.Query error: %v", err)
	}
	defer rs.Close()

	if cols := rs.Columns(); len(cols) != 2 || cols[0] != "event_id" || cols[1] != "kind" {
		t.Fatalf("Columns mismatch: %#v", cols)
	}
	if !rs.Next() {
		t.Fatalf("expected one row")
	}
	var eventID string
	var kind int
	if err := rs.Scan(&eventID, &kind); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if eventID != "ev-9" || kind != 1621 {
		t.Fatalf("row mismatch event_id=%q kind=%d", eventID, kind)
	}
	if rs.Next() {
		t.Fatalf("unexpected extra row")
	}

	var n int
	if err := q.QueryRow(context.Background(), "select count(*) from import_events").Scan(&n); err != nil {
		t.Fatalf("txQuerier.QueryRow scan: %v", err)
	}
	if n != 42 {
		t.Fatalf("QueryRow value mismatch got=%d", n)
	}
}

func TestTxQuerier_EmitsRunScopedTraceEvents(t *testing.T) {
	t.Parallel()

	tr := &captureTracer{}
	q := txQuerier{
		tx:     &stubPgxTx{},
		tracer: tr,
		slowUS: int64(1) << 40, // nothing is slow at this threshold
	}

	ctx := WithRun(context.Background(), "run-3")
	if _, err := q.Exec(ctx, "insert into import_events values ($1)", "ev-1"); err != nil {
		t.Fatalf("Exec error: %v", err)
	}

	// QueryRow emits only after Scan resolves the outcome
	var n int
	if err := q.QueryRow(ctx, "select 1").Scan(&n); err != nil {
		t.Fatalf("QueryRow scan: %v", err)
	}

	if len(tr.events) != 2 {
		t.Fatalf("expected 2 trace events, got %d", len(tr.events))
	}
	for i, ev := range tr.events {
		if ev.RunID != "run-3" {
			t.Fatalf("event %d: run id mismatch got=%q", i, ev.RunID)
		}
		if ev.Slow {
			t.Fatalf("event %d: should not be flagged slow", i)
		}
		if ev.Err != nil {
			t.Fatalf("event %d: unexpected error %v", i, ev.Err)
		}
	}
	if tr.events[0].SQL != "insert into import_events values ($1)" {
		t.Fatalf("event sql mismatch: %q", tr.events[0].SQL)
	}

	// without a run on the context the field stays empty
	if _, err := q.Exec(context.Background(), "select 1"); err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if got := tr.events[len(tr.events)-1].RunID; got != "" {
		t.Fatalf("expected empty run id, got %q", got)
	}
}

func TestRows_ScanErrorsAndErrPropagation(t *testing.T) {
	t.Parallel()

	t.Run("dest length mismatch", func(t *testing.T) {
		fr := newStubPgxRows([]string{"a", "b"}, [][]any{{1, "x"}})
		rs := rows{r: fr}

		if !rs.Next() {
			t.Fatal("expected Next true")
		}
		var onlyOne int
		if err := rs.Scan(&onlyOne); err == nil {
			t.Fatal("expected dest len mismatch error")
		}
	})

	t.Run("iterator error surfaces via Err", func(t *testing.T) {
		fr := newStubPgxRows([]string{"n"}, nil)
		fr.err = errors.New("broken pipe")

		rs := rows{r: fr}
		if rs.Next() {
			t.Fatal("expected Next false when rows has error")
		}
		if err := rs.Err(); err == nil || err.Error() != "broken pipe" {
			t.Fatalf("rows.Err mismatch: %v", err)
		}
	})
}

func TestTxQuerier_PropagatesErrors(t *testing.T) {
	t.Parallel()

	fx := &stubPgxTx{
		execFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag(""), errors.New("exec failed")
		},
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return nil, errors.New("query failed")
		},
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &stubPgxRow{scan: func(dest ...any) error { return errors.New("scan failed") }}
		},
	}
	q := txQuerier{tx: fx}

	if _, err := q.Exec(context.Background(), "x"); err == nil {
		t.Fatalf("expected Exec error")
	}
	if _, err := q.Query(context.Background(), "x"); err == nil {
		t.Fatalf("expected Query error")
	}
	var n int
	if err := q.QueryRow(context.Background(), "x").Scan(&n); err == nil {
		t.Fatalf("expected QueryRow.Scan error")
	}
}
