package plan

import (
	"errors"
	"testing"
)

func TestParseCapture_PostgresArray(t *testing.T) {
	raw, err := ParseCapture([]byte(`[{"Plan": {"Node Type": "Seq Scan", "Relation Name": "users"}}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Engine != Postgres {
		t.Errorf("Engine = %q, want %q", raw.Engine, Postgres)
	}
	if len(raw.JSON) == 0 {
		t.Error("JSON payload not carried through")
	}

	root, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if root.Kind != TableScan {
		t.Errorf("Kind = %v, want TABLE_SCAN", root.Kind)
	}
}

func TestParseCapture_PostgresBareObject(t *testing.T) {
	raw, err := ParseCapture([]byte(`{"Plan": {"Node Type": "Hash Join"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Engine != Postgres {
		t.Errorf("Engine = %q, want %q", raw.Engine, Postgres)
	}
}

func TestParseCapture_MySQLRows(t *testing.T) {
	raw, err := ParseCapture([]byte(`[
		{"id": 1, "select_type": "SIMPLE", "table": "orders", "type": "ALL", "rows": 50000, "Extra": "Using where"},
		{"id": 1, "select_type": "SIMPLE", "table": "customers", "type": "eq_ref", "key": "PRIMARY", "rows": 1, "Extra": ""}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Engine != MySQL {
		t.Errorf("Engine = %q, want %q", raw.Engine, MySQL)
	}
	if len(raw.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(raw.Rows))
	}
	if raw.Rows[0].Table != "orders" || raw.Rows[0].AccessType != "ALL" {
		t.Errorf("first row = %+v, want orders/ALL", raw.Rows[0])
	}

	root, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if root.Kind != TableScan {
		t.Errorf("Kind = %v, want TABLE_SCAN", root.Kind)
	}
	if len(root.Children) != 1 {
		t.Errorf("got %d children, want 1", len(root.Children))
	}
}

// A PostgreSQL document must not be misread as MySQL rows even though it
// decodes into the row slice without error.
func TestParseCapture_PostgresWinsOverRowShape(t *testing.T) {
	raw, err := ParseCapture([]byte(`[{"Plan": {"Node Type": "Seq Scan"}, "Planning Time": 1.5}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Engine != Postgres {
		t.Errorf("Engine = %q, want %q", raw.Engine, Postgres)
	}
}

func TestParseCapture_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not JSON", "EXPLAIN output pasted as text"},
		{"empty array", "[]"},
		{"empty object", "{}"},
		{"rows without identifying columns", `[{"id": 1, "rows": 10}]`},
		{"scalar", "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCapture([]byte(tc.data))
			if !errors.Is(err, ErrMalformedPlan) {
				t.Errorf("error = %v, want ErrMalformedPlan", err)
			}
		})
	}
}
