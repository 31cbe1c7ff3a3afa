package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai_hoi/internal/core"
	"ai_hoi/internal/ingest"
	"ai_hoi/pkg"
	"ai_hoi/src/llm/llmtest"
	"ai_hoi/src/memory"
	"ai_hoi/src/model"
	"ai_hoi/src/vectorstore"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChat struct {
	input    core.ChatInput
	ask      core.AskInput
	reply    string
	err      error
	shutdown bool
}

func (f *fakeChat) Chat(ctx context.Context, in core.ChatInput) (*core.ChatOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &core.ChatOutput{Message: f.reply}, nil
}

func (f *fakeChat) Ask(ctx context.Context, in core.AskInput) (string, error) {
	f.ask = in
	if strings.TrimSpace(in.Question) == "" {
		return "", core.ErrEmptyQuestion
	}
	return f.reply, f.err
}

func (f *fakeChat) Shutdown(ctx context.Context) error {
	f.shutdown = true
	return nil
}

type fakeGeocoder struct {
	err error
}

func (f *fakeGeocoder) Resolve(ctx context.Context, text string) *model.Coordinates { return nil }

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lon float64) (*model.ReverseGeocode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.ReverseGeocode{
		DisplayName:    "Bến Nghé, Quận 1, Hồ Chí Minh",
		AreaName:       "Bến Nghé",
		AddressDetails: map[string]string{"suburb": "Bến Nghé"},
	}, nil
}

type fakeHistory struct {
	query string
	limit int
}

func (f *fakeHistory) History(ctx context.Context, query string, limit int) (memory.HistoryResult, error) {
	f.query, f.limit = query, limit
	return memory.HistoryResult{
		Score:              0.42,
		TotalConversations: 2,
		LatestSummary:      "Thích phở",
		Entries:            []memory.Entry{{Summary: "Hỏi phở Quận 1", MessageCount: 4}},
	}, nil
}

type testServer struct {
	chat    *fakeChat
	geo     *fakeGeocoder
	history *fakeHistory
	store   *vectorstore.MemoryStore
	srv     *Server
}

func newTestServer() *testServer {
	ts := &testServer{
		chat:    &fakeChat{reply: "Bạn thử Phở Thìn nhé"},
		geo:     &fakeGeocoder{},
		history: &fakeHistory{},
		store:   vectorstore.NewMemoryStore(),
	}
	ts.srv = New(Deps{
		Chat:     ts.chat,
		Geocoder: ts.geo,
		History:  ts.history,
		Ingester: ingest.New(&llmtest.Embedder{Dim: 4}, ts.store),
	}, model.ServerConfig{Addr: ":0", CORSOrigins: []string{"http://localhost:3000"}}, "restaurants")
	ts.srv.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestChatHandler(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodPost, "/chat", `{"text":"tìm phở gần đây","location":"10.77,106.70","history":[{"role":"user","content":"chào"},{"role":"assistant","content":"Chào bạn"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bạn thử Phở Thìn nhé", decode[pkg.ChatResponse](t, rec).Message)
	assert.Equal(t, "10.77,106.70", ts.chat.input.Location)
	assert.Equal(t, []model.Turn{{Role: "user", Content: "chào"}, {Role: "assistant", Content: "Chào bạn"}}, ts.chat.input.History)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestChatHandlerErrors(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodPost, "/chat", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/chat", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.chat.err = errors.New("answer generation failed: upstream 503")
	rec = ts.do(http.MethodPost, "/chat", `{"text":"phở"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[pkg.ErrorResponse](t, rec).Error, "upstream 503")
}

func TestAskHandler(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodPost, "/ask", `{"question":"Bún chả là gì?","namespace":"dishes","k":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.AskInput{Question: "Bún chả là gì?", Namespace: "dishes", K: 3}, ts.chat.ask)

	rec = ts.do(http.MethodPost, "/ask", `{"question":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocationHandler(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodPost, "/location", `{"lat":10.7769,"lon":106.7009}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[pkg.LocationResponse](t, rec)
	assert.Equal(t, "Bến Nghé", got.AreaName)
	assert.Equal(t, "Bến Nghé", got.AddressDetails["suburb"])

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/location", `{"lat":10.7}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/location", `{"lat":91,"lon":0}`).Code)

	ts.geo.err = errors.New("nominatim returned status 503")
	assert.Equal(t, http.StatusBadGateway, ts.do(http.MethodPost, "/location", `{"lat":0,"lon":0}`).Code)
}

func TestSearchHistoryHandler(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodGet, "/search-history?query=ph%E1%BB%9F&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "phở", ts.history.query)
	assert.Equal(t, 3, ts.history.limit)

	got := decode[pkg.SearchHistoryResponse](t, rec)
	assert.Equal(t, 2, got.TotalConversations)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Hỏi phở Quận 1", got.Results[0].Summary)

	ts.do(http.MethodGet, "/search-history", "")
	assert.Equal(t, defaultHistoryLimit, ts.history.limit)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/search-history?limit=zero", "").Code)
}

func TestIngestRestaurantsHandler(t *testing.T) {
	ts := newTestServer()
	body, err := sonic.MarshalString(pkg.IngestRestaurantsRequest{
		Content: "# Quán\n\n## Phở Thìn\n- **Địa chỉ**: 13 Lò Đúc\n\n## Bún chả Hương Liên\n- **Giá**: 50.000đ\n",
	})
	require.NoError(t, err)

	rec := ts.do(http.MethodPost, "/ingest-restaurants", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pkg.IngestResponse{Ingested: 2, Namespace: "restaurants"}, decode[pkg.IngestResponse](t, rec))

	docs, err := ts.store.Fetch(context.Background(), "restaurants", []string{ingest.Restaurant{Name: "Phở Thìn"}.ID()})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	rec = ts.do(http.MethodPost, "/ingest-restaurants", `{"content":"no sections here"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer()
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", "").Code)

	rec := ts.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORS(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSWildcardEchoesOrigin(t *testing.T) {
	srv := New(Deps{Chat: &fakeChat{}, Geocoder: &fakeGeocoder{}, History: &fakeHistory{}},
		model.ServerConfig{Addr: ":0", CORSOrigins: []string{"*"}}, "restaurants")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://app.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestShutdownWaitsForChatService(t *testing.T) {
	ts := newTestServer()
	require.NoError(t, ts.srv.Shutdown(context.Background()))
	assert.True(t, ts.chat.shutdown)
}
