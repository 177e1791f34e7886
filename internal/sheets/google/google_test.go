package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"dailymeow/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the handful of Sheets v4 endpoints the client uses,
// backed by an in-memory grid.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]any
	deletes int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start := len(f.rows) + 1
		f.rows = append(f.rows, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": fmt.Sprintf("Finances!A%d:H%d", start, len(f.rows))},
		})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, q := range req.Requests {
			rng := q.DeleteDimension.Range
			f.rows = append(f.rows[:rng.StartIndex], f.rows[rng.EndIndex:]...)
			f.deletes++
		}
		w.Write([]byte(`{}`))

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		row := rowFromRange(path[strings.Index(path, "/values/")+len("/values/"):])
		f.rows[row-1] = vr.Values[0]
		w.Write([]byte(`{}`))

	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		json.NewEncoder(w).Encode(map[string]any{"values": f.rows})

	case r.Method == http.MethodGet:
		w.Write([]byte(`{"sheets":[{"properties":{"sheetId":7,"title":"Finances"}}]}`))

	default:
		http.NotFound(w, r)
	}
}

// rowFromRange extracts 3 from "Finances!A3:H3".
func rowFromRange(rng string) int {
	rng = rng[strings.Index(rng, "!A")+2:]
	n, _ := strconv.Atoi(rng[:strings.Index(rng, ":")])
	return n
}

func (f *fakeSheets) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return firstColumn(f.rows)
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-id",
		SheetName:     "Finances",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	return c, fake
}

func finance(id string, amount int64) core.Finance {
	return core.Finance{
		ID:     id,
		UserID: "u1",
		Title:  "Gaji",
		Amount: amount,
		Type:   core.Income,
		Date:   time.Date(2025, 2, 28, 17, 0, 0, 0, time.UTC),
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("expected missing id error, got %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "service account") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: t.TempDir() + "/missing.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestClient_UpsertAppendsThenUpdates(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	ref, err := c.UpsertFinance(ctx, finance("f1", 1000))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if ref != "Finances!A1:H2" {
		t.Errorf("unexpected ref %q", ref)
	}
	if got := fake.ids(); len(got) != 2 || got[0] != "ID" || got[1] != "f1" {
		t.Fatalf("expected header and one row, got %v", got)
	}

	if _, err := c.UpsertFinance(ctx, finance("f2", 2000)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	ref, err = c.UpsertFinance(ctx, finance("f1", 1500))
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if ref != "Finances!A2:H2" {
		t.Errorf("expected in-place update of row 2, got %q", ref)
	}
	if got := fake.ids(); len(got) != 3 {
		t.Fatalf("re-upsert must not add a row, got %v", got)
	}
	fake.mu.Lock()
	amount := fmt.Sprint(fake.rows[1][5])
	fake.mu.Unlock()
	if amount != "1500" {
		t.Errorf("expected updated amount 1500, got %s", amount)
	}
}

func TestClient_DeleteFinance(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"f1", "f2", "f3"} {
		if _, err := c.UpsertFinance(ctx, finance(id, 100)); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	if err := c.DeleteFinance(ctx, "u1", "f2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got := fake.ids()
	if len(got) != 3 || got[1] != "f1" || got[2] != "f3" {
		t.Fatalf("unexpected rows after delete: %v", got)
	}

	// Redelivered delete is a no-op.
	if err := c.DeleteFinance(ctx, "u1", "f2"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	fake.mu.Lock()
	deletes := fake.deletes
	fake.mu.Unlock()
	if deletes != 1 {
		t.Errorf("expected one row deletion, got %d", deletes)
	}
}

func TestClient_UninitializedService(t *testing.T) {
	c := &Client{sheetName: "Finances"}
	if _, err := c.UpsertFinance(context.Background(), finance("f1", 1)); err == nil {
		t.Error("expected error without service")
	}
	if err := c.DeleteFinance(context.Background(), "u1", "f1"); err == nil {
		t.Error("expected error without service")
	}
	if _, err := c.UpsertFinance(context.Background(), core.Finance{}); err == nil {
		t.Error("expected error for finance without id")
	}
}

func TestFindRow(t *testing.T) {
	ids := []string{"ID", "a", "", "b"}
	tests := []struct {
		id   string
		want int
	}{
		{"a", 2},
		{"b", 4},
		{"ID", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := findRow(ids, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestFinanceRow(t *testing.T) {
	f := finance("f1", 25000)
	f.Type = core.Expense
	row := financeRow(f, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	if len(row) != len(header) {
		t.Fatalf("row has %d columns, header %d", len(row), len(header))
	}
	if row[2] != "2025-02-28T17:00:00Z" {
		t.Errorf("unexpected date column %v", row[2])
	}
	if row[6] != core.SignedRupiah(core.Expense, 25000) {
		t.Errorf("unexpected display column %v", row[6])
	}
}
