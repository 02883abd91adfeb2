package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cashflow/models"
	"cashflow/pkg/auth"
	"cashflow/pkg/cashflow"
	"cashflow/pkg/ocr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// fakeService keeps records in memory with the same owner scoping as cashflow.Service.
type fakeService struct {
	items      map[uuid.UUID]models.CashFlow
	lastSearch string
	fail       error
}

func newFakeService() *fakeService {
	return &fakeService{items: map[uuid.UUID]models.CashFlow{}}
}

func (f *fakeService) Create(ctx context.Context, ownerID uuid.UUID, in cashflow.Input) (*models.CashFlow, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	cf := models.CashFlow{ID: uuid.New(), UserID: ownerID, Type: in.Type, Source: in.Source, Label: in.Label,
		Amount: in.Amount, Description: in.Description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.items[cf.ID] = cf
	return &cf, nil
}

func (f *fakeService) List(ctx context.Context, ownerID uuid.UUID, search string) ([]models.CashFlow, error) {
	f.lastSearch = search
	var out []models.CashFlow
	for _, cf := range f.items {
		if cf.UserID == ownerID {
			out = append(out, cf)
		}
	}
	return out, f.fail
}

func (f *fakeService) ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.CashFlow, error) {
	return f.List(ctx, ownerID, "")
}

func (f *fakeService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.CashFlow, error) {
	cf, ok := f.items[id]
	if !ok || cf.UserID != ownerID {
		return nil, f.fail
	}
	return &cf, nil
}

func (f *fakeService) Update(ctx context.Context, ownerID, id uuid.UUID, in cashflow.Input) (*models.CashFlow, error) {
	cf, err := f.GetByID(ctx, ownerID, id)
	if err != nil || cf == nil {
		return nil, err
	}
	cf.Type, cf.Source, cf.Label, cf.Amount, cf.Description = in.Type, in.Source, in.Label, in.Amount, in.Description
	f.items[id] = *cf
	return cf, nil
}

func (f *fakeService) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	cf, err := f.GetByID(ctx, ownerID, id)
	if err != nil || cf == nil {
		return false, err
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeService) Summary(ctx context.Context, ownerID uuid.UUID) (cashflow.Summary, error) {
	items, _ := f.List(ctx, ownerID, "")
	var s cashflow.Summary
	for _, cf := range items {
		if cf.Type == models.TypeIncome {
			s.TotalIncome += cf.Amount
		} else if cf.Type == models.TypeExpense {
			s.TotalExpense += cf.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	return s, f.fail
}

type fakeScanner struct {
	res ocr.Result
	err error
}

func (s fakeScanner) Scan(r io.Reader) (ocr.Result, error) {
	_, _ = io.Copy(io.Discard, r)
	return s.res, s.err
}

type testEnv struct {
	router *gin.Engine
	svc    *fakeService
	issuer *auth.Issuer
}

func newTestEnv(t *testing.T, scanner Scanner) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{svc: newFakeService(), issuer: auth.NewIssuer("test-secret", time.Hour)}
	r := gin.New()
	r.Use(auth.Identify(env.issuer))
	NewHandler(env.svc, scanner, 1<<20).Register(r.Group("/api"))
	env.router = r
	return env
}

func (e *testEnv) token(t *testing.T, id uuid.UUID) string {
	t.Helper()
	tok, err := e.issuer.Issue(auth.Principal{UserID: id, Username: "user-" + id.String()[:8]})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// performRequest sends body as JSON unless contentType says otherwise.
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func validBody() map[string]any {
	return map[string]any{"type": "PEMASUKAN", "source": "Bank", "label": "Gaji", "amount": 5000000}
}

func TestCreateStoresCallerAsOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	user := uuid.New()
	body := validBody()
	body["userId"] = uuid.New().String() // ignored

	rec := performRequest(env.router, http.MethodPost, "/api/cash-flows", jsonBody(body), env.token(t, user), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	res := decode(t, rec)
	var data struct {
		ID uuid.UUID `json:"id"`
	}
	_ = json.Unmarshal(res.Data, &data)
	if res.Status != StatusSuccess || res.Message != msgCreated || data.ID == uuid.Nil {
		t.Fatalf("unexpected envelope %+v", res)
	}
	if got := env.svc.items[data.ID]; got.UserID != user || got.Amount != 5000000 {
		t.Fatalf("stored record %+v", got)
	}
}

func TestCreateValidationOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.token(t, uuid.New())
	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{"all missing", map[string]any{}, msgInvalidType},
		{"type empty", map[string]any{"type": "", "label": "", "amount": 0}, msgInvalidType},
		{"label empty", map[string]any{"type": "PEMASUKAN", "label": "", "amount": 0}, msgInvalidLabel},
		{"amount missing", map[string]any{"type": "PEMASUKAN", "label": "Gaji"}, msgInvalidAmount},
		{"amount zero", map[string]any{"type": "PEMASUKAN", "label": "Gaji", "amount": 0}, msgInvalidAmount},
		{"amount negative", map[string]any{"type": "PEMASUKAN", "label": "Gaji", "amount": -5}, msgInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(env.router, http.MethodPost, "/api/cash-flows", jsonBody(tc.body), tok, "application/json")
			res := decode(t, rec)
			if rec.Code != http.StatusBadRequest || res.Status != StatusFail || res.Message != tc.want {
				t.Fatalf("got %d %+v, want 400 %q", rec.Code, res, tc.want)
			}
			if string(res.Data) != "null" {
				t.Fatalf("fail envelope must carry null data, got %s", res.Data)
			}
		})
	}
	if len(env.svc.items) != 0 {
		t.Fatalf("invalid requests must not persist anything")
	}
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := performRequest(env.router, http.MethodPost, "/api/cash-flows", bytes.NewBufferString("{not json"), env.token(t, uuid.New()), "application/json")
	if res := decode(t, rec); rec.Code != http.StatusBadRequest || res.Message != msgInvalidBody {
		t.Fatalf("got %d %+v", rec.Code, res)
	}
}

func TestValidationRunsBeforeAuthentication(t *testing.T) {
	env := newTestEnv(t, nil)

	bad := performRequest(env.router, http.MethodPost, "/api/cash-flows", jsonBody(map[string]any{"amount": 0}), "", "application/json")
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("anonymous invalid create: got %d, want 400", bad.Code)
	}
	good := performRequest(env.router, http.MethodPost, "/api/cash-flows", jsonBody(validBody()), "", "application/json")
	if res := decode(t, good); good.Code != http.StatusForbidden || res.Message != msgUnauthenticated {
		t.Fatalf("anonymous valid create: got %d %+v, want 403", good.Code, res)
	}
	put := performRequest(env.router, http.MethodPut, "/api/cash-flows/"+uuid.NewString(), jsonBody(validBody()), "", "application/json")
	if put.Code != http.StatusForbidden {
		t.Fatalf("anonymous valid update: got %d, want 403", put.Code)
	}
	for _, path := range []string{"/api/cash-flows", "/api/cash-flows/" + uuid.NewString(), "/api/cash-flows/summary"} {
		if rec := performRequest(env.router, http.MethodGet, path, nil, "", ""); rec.Code != http.StatusForbidden {
			t.Fatalf("anonymous GET %s: got %d, want 403", path, rec.Code)
		}
	}
	if rec := performRequest(env.router, http.MethodDelete, "/api/cash-flows/"+uuid.NewString(), nil, "bogus", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("bad token delete: got %d, want 403", rec.Code)
	}
}

func TestGetIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t, nil)
	owner, other := uuid.New(), uuid.New()
	cf, _ := env.svc.Create(context.Background(), owner, cashflow.Input{Type: "PEMASUKAN", Source: "Bank", Label: "Gaji", Amount: 5000000})

	rec := performRequest(env.router, http.MethodGet, "/api/cash-flows/"+cf.ID.String(), nil, env.token(t, owner), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner get status=%d", rec.Code)
	}
	var data struct {
		CashFlow models.CashFlow `json:"cashFlow"`
	}
	_ = json.Unmarshal(decode(t, rec).Data, &data)
	if data.CashFlow.ID != cf.ID || data.CashFlow.Label != "Gaji" || data.CashFlow.Source != "Bank" || data.CashFlow.Amount != 5000000 {
		t.Fatalf("unexpected record %+v", data.CashFlow)
	}

	rec = performRequest(env.router, http.MethodGet, "/api/cash-flows/"+cf.ID.String(), nil, env.token(t, other), "")
	if res := decode(t, rec); rec.Code != http.StatusNotFound || res.Message != msgNotFound {
		t.Fatalf("other user get: %d %+v", rec.Code, res)
	}
	rec = performRequest(env.router, http.MethodGet, "/api/cash-flows/not-a-uuid", nil, env.token(t, owner), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id: %d", rec.Code)
	}
}

func TestListPassesSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := uuid.New()
	_, _ = env.svc.Create(context.Background(), owner, cashflow.Input{Type: "PENGELUARAN", Label: "Makan", Amount: 1})
	_, _ = env.svc.Create(context.Background(), uuid.New(), cashflow.Input{Type: "PENGELUARAN", Label: "Makan", Amount: 1})

	rec := performRequest(env.router, http.MethodGet, "/api/cash-flows?search=mak", nil, env.token(t, owner), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status=%d", rec.Code)
	}
	var data struct {
		CashFlows []models.CashFlow `json:"cashFlows"`
	}
	_ = json.Unmarshal(decode(t, rec).Data, &data)
	if len(data.CashFlows) != 1 || env.svc.lastSearch != "mak" {
		t.Fatalf("list = %+v search=%q", data.CashFlows, env.svc.lastSearch)
	}

	empty := performRequest(env.router, http.MethodGet, "/api/cash-flows", nil, env.token(t, uuid.New()), "")
	if got := string(decode(t, empty).Data); got != `{"cashFlows":[]}` {
		t.Fatalf("empty list data = %s", got)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := uuid.New()
	tok := env.token(t, owner)
	cf, _ := env.svc.Create(context.Background(), owner, cashflow.Input{Type: "PEMASUKAN", Source: "Bank", Label: "Gaji", Amount: 10})

	missing := performRequest(env.router, http.MethodPut, "/api/cash-flows/"+uuid.NewString(), jsonBody(validBody()), tok, "application/json")
	if missing.Code != http.StatusNotFound || len(env.svc.items) != 1 {
		t.Fatalf("update missing: %d, items=%d", missing.Code, len(env.svc.items))
	}

	body := map[string]any{"type": "PENGELUARAN", "source": "Cash", "label": "Bensin", "amount": 20000, "description": "motor"}
	rec := performRequest(env.router, http.MethodPut, "/api/cash-flows/"+cf.ID.String(), jsonBody(body), tok, "application/json")
	res := decode(t, rec)
	if rec.Code != http.StatusOK || res.Message != msgUpdated || string(res.Data) != "null" {
		t.Fatalf("update: %d %+v", rec.Code, res)
	}
	if got := env.svc.items[cf.ID]; got.Label != "Bensin" || got.Amount != 20000 || got.Description != "motor" {
		t.Fatalf("update not applied: %+v", got)
	}

	other := performRequest(env.router, http.MethodDelete, "/api/cash-flows/"+cf.ID.String(), nil, env.token(t, uuid.New()), "")
	if other.Code != http.StatusNotFound {
		t.Fatalf("other user delete: %d", other.Code)
	}
	rec = performRequest(env.router, http.MethodDelete, "/api/cash-flows/"+cf.ID.String(), nil, tok, "")
	res = decode(t, rec)
	if rec.Code != http.StatusOK || res.Message != msgDeleted || string(res.Data) != "null" {
		t.Fatalf("delete: %d %+v", rec.Code, res)
	}
	if len(env.svc.items) != 0 {
		t.Fatalf("record not deleted")
	}
}

func TestServiceErrorsBecome500(t *testing.T) {
	env := newTestEnv(t, nil)
	env.svc.fail = errors.New("connection refused")
	rec := performRequest(env.router, http.MethodPost, "/api/cash-flows", jsonBody(validBody()), env.token(t, uuid.New()), "application/json")
	if res := decode(t, rec); rec.Code != http.StatusInternalServerError || res.Message != msgServerError {
		t.Fatalf("got %d %+v", rec.Code, res)
	}
}

func TestSummaryAndExports(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := uuid.New()
	tok := env.token(t, owner)
	ctx := context.Background()
	_, _ = env.svc.Create(ctx, owner, cashflow.Input{Type: models.TypeIncome, Label: "Gaji", Amount: 1000})
	_, _ = env.svc.Create(ctx, owner, cashflow.Input{Type: models.TypeExpense, Label: "Makan", Amount: 300})

	rec := performRequest(env.router, http.MethodGet, "/api/cash-flows/summary", nil, tok, "")
	var sum cashflow.Summary
	_ = json.Unmarshal(decode(t, rec).Data, &sum)
	if sum != (cashflow.Summary{TotalIncome: 1000, TotalExpense: 300, Balance: 700}) {
		t.Fatalf("summary = %+v", sum)
	}

	xlsx := performRequest(env.router, http.MethodGet, "/api/cash-flows/export/xlsx?from=2025-01-01&to=2025-12-31", nil, tok, "")
	if xlsx.Code != http.StatusOK || xlsx.Header().Get("Content-Type") != xlsxContentType || xlsx.Body.Len() == 0 {
		t.Fatalf("xlsx export: %d %q", xlsx.Code, xlsx.Header().Get("Content-Type"))
	}
	pdf := performRequest(env.router, http.MethodGet, "/api/cash-flows/export/pdf", nil, tok, "")
	if pdf.Code != http.StatusOK || !bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf export: %d", pdf.Code)
	}
	bad := performRequest(env.router, http.MethodGet, "/api/cash-flows/export/pdf?from=01-01-2025", nil, tok, "")
	if res := decode(t, bad); bad.Code != http.StatusBadRequest || res.Message != msgInvalidDate {
		t.Fatalf("bad range: %d %+v", bad.Code, res)
	}
}

func multipartReceipt(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "struk.png")
	_, _ = w.Write(content)
	_ = mw.Close()
	return buf, mw.FormDataContentType()
}

func TestScanReceipt(t *testing.T) {
	env := newTestEnv(t, fakeScanner{res: ocr.Result{Amount: 40000, Raw: "TOTAL Rp40.000", Confidence: 0.85}})
	tok := env.token(t, uuid.New())

	body, ct := multipartReceipt(t, []byte("image bytes"))
	rec := performRequest(env.router, http.MethodPost, "/api/cash-flows/scan", body, tok, ct)
	var res ocr.Result
	_ = json.Unmarshal(decode(t, rec).Data, &res)
	if rec.Code != http.StatusOK || res.Amount != 40000 || res.Raw != "TOTAL Rp40.000" {
		t.Fatalf("scan: %d %+v", rec.Code, res)
	}
	if len(env.svc.items) != 0 {
		t.Fatalf("scan must not persist a record")
	}

	missing := performRequest(env.router, http.MethodPost, "/api/cash-flows/scan", nil, tok, "")
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("scan without file: %d", missing.Code)
	}

	big, ct := multipartReceipt(t, make([]byte, 2<<20))
	if rec := performRequest(env.router, http.MethodPost, "/api/cash-flows/scan", big, tok, ct); rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized scan: %d", rec.Code)
	}

	none := newTestEnv(t, fakeScanner{err: ocr.ErrNoAmount})
	body, ct = multipartReceipt(t, []byte("blank"))
	if rec := performRequest(none.router, http.MethodPost, "/api/cash-flows/scan", body, none.token(t, uuid.New()), ct); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("no amount scan: %d", rec.Code)
	}
}
