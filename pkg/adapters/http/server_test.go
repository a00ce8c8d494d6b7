package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/action"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/contacts"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	handler http.Handler
	codec   *link.Codec
	store   *memory.Store
	events  *memory.EventStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := dsl.New()
	b.Root(10, domain.TypeRedirect).Option("url", "https://example.com/welcome")
	b.Root(20, domain.TypeRequireContact)
	b.Root(30, domain.TypeTag).Option("tags", []string{"clicked"})
	loader, err := b.Build()
	require.NoError(t, err)

	f := &fixture{
		codec:  link.NewCodec(link.WithBaseURL("https://go.example.com")),
		store:  memory.NewStore(),
		events: memory.NewEventStore(),
	}
	eng := arbor.New(
		arbor.WithLoader(loader),
		arbor.WithCapabilities(&action.Capabilities{Contacts: f.store, Events: f.events, Links: f.codec}),
		arbor.WithContactManager(contacts.NewManager(f.store)),
	)
	f.handler = httpAdapter.NewHandler(eng, httpAdapter.WithCodec(f.codec))
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestFollowLink_Redirect(t *testing.T) {
	f := newFixture(t)
	path := f.codec.CreateLink(link.Link{ActionID: 10}, false)

	w := f.do(httptest.NewRequest(http.MethodGet, path, nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/welcome", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, httpAdapter.DefaultCookieName, cookies[0].Name)

	events, err := f.events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, cookies[0].Value, events[0].AnonymousID)
}

func TestFollowLink_ReusesAnonymousCookie(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, f.codec.CreateLink(link.Link{ActionID: 10}, false), nil)
	req.AddCookie(&http.Cookie{Name: httpAdapter.DefaultCookieName, Value: "visitor-1"})

	w := f.do(req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, w.Result().Cookies())
	events, err := f.events.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "visitor-1", events[0].AnonymousID)
}

func TestFollowLink_Forbidden(t *testing.T) {
	f := newFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, f.codec.CreateLink(link.Link{ActionID: 20}, false), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFollowLink_ContactAndCustomURI(t *testing.T) {
	f := newFixture(t)
	c := &domain.Contact{FirstName: "Ann"}
	require.NoError(t, f.store.Save(context.Background(), c))

	path := f.codec.CreateLink(link.Link{ActionID: 30, ContactID: c.ID, CustomURI: "spring/offer"}, false)
	w := f.do(httptest.NewRequest(http.MethodGet, path, nil))

	require.Equal(t, http.StatusOK, w.Code)
	var res httpAdapter.ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, c.ID, res.ContactID)
	assert.Equal(t, domain.ContactModified, res.ContactState)

	saved, err := f.store.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"clicked"}, saved.Tags, "contact changes are persisted after the run")

	events, err := f.events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "spring/offer", events[0].Properties["custom_uri"])
}

func TestFollowLink_EscapedCustomURI(t *testing.T) {
	f := newFixture(t)
	path := f.codec.CreateLink(link.Link{ActionID: 10, CustomURI: "spring sale/über"}, false)
	assert.NotContains(t, path, " ")

	w := f.do(httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	events, err := f.events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "spring sale/über", events[0].Properties["custom_uri"])
}

func TestFollowLink_Errors(t *testing.T) {
	f := newFixture(t)

	tampered := "/a." + strings.Replace(link.Encode(link.Link{ActionID: 10}), ".10", ".11", 1)
	w := f.do(httptest.NewRequest(http.MethodGet, tampered, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/a.not-a-token", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, f.codec.CreateLink(link.Link{ActionID: 99}, false), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type failingEngine struct{}

func (failingEngine) Trigger(ctx context.Context, id int32, opts ...action.ContextOption) (*action.Result, error) {
	return nil, errors.New("store unavailable")
}

func TestFollowLink_EngineError(t *testing.T) {
	h := httpAdapter.NewHandler(failingEngine{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/a."+link.Encode(link.Link{ActionID: 1}), nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "store unavailable", "internal errors are logged, not sent to clients")
}

func TestTriggerAction(t *testing.T) {
	f := newFixture(t)
	body := `{"contact":{"email":{"address":"new@example.com"}},"identity":"user-1","properties":{"source":"api"}}`

	w := f.do(httptest.NewRequest(http.MethodPost, "/actions/30/trigger", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var res httpAdapter.ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, domain.ContactAdded, res.ContactState)
	assert.Positive(t, res.ContactID, "the new contact is saved and receives an id")
	assert.NotEmpty(t, res.EventID)

	w = f.do(httptest.NewRequest(http.MethodPost, "/actions/abc/trigger", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodPost, "/actions/30/trigger", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinks_CreateDecodeRewrite(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodPost, "/links",
		bytes.NewBufferString(`{"action_id":42,"contact_id":7,"custom_uri":"/promo/","absolute":true}`)))
	require.Equal(t, http.StatusOK, w.Code)
	var created httpAdapter.LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.URL, "https://go.example.com/a."))
	assert.True(t, strings.HasSuffix(created.Token, "/promo"))

	w = f.do(httptest.NewRequest(http.MethodGet, "/links/decode?link="+created.URL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var decoded link.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, link.Link{ActionID: 42, ContactID: 7, CustomURI: "promo"}, decoded)

	w = f.do(httptest.NewRequest(http.MethodPost, "/links/rewrite",
		bytes.NewBufferString(`{"text":"Hi! https://go.example.com/a.0.42 bye","contact_id":9}`)))
	require.Equal(t, http.StatusOK, w.Code)
	var rewritten map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rewritten))
	assert.Contains(t, rewritten["text"], "a."+link.Encode(link.Link{ActionID: 42, ContactID: 9}))

	w = f.do(httptest.NewRequest(http.MethodPost, "/links", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/links/decode?link=a.1.2", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	w = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
