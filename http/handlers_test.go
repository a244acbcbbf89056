package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ViniZap4/lumi-estimates/auth"
	"github.com/ViniZap4/lumi-estimates/contacts"
	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/ViniZap4/lumi-estimates/store"
	"github.com/ViniZap4/lumi-estimates/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	acmeToken = "acme-token"
	blueToken = "blue-token"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newTestAppContext(t, ctx)
}

// newTestAppContext builds the app with a hub that runs until ctx is done.
func newTestAppContext(t *testing.T, ctx context.Context) *fiber.App {
	t.Helper()

	acme, err := auth.HashToken(acmeToken)
	require.NoError(t, err)
	blue, err := auth.HashToken(blueToken)
	require.NoError(t, err)
	authn := auth.NewAuthenticator(
		auth.Credential{Workspace: domain.Workspace{ID: "acme"}, TokenHash: acme},
		auth.Credential{Workspace: domain.Workspace{ID: "blue"}, TokenHash: blue},
	)

	hub := ws.NewHub(zerolog.Nop())
	go hub.Run(ctx)

	svc := contacts.NewService(store.NewMemory(), hub, zerolog.Nop(), contacts.Options{})
	return NewServer(svc, hub, authn, zerolog.Nop()).App()
}

func do(t *testing.T, app *fiber.App, method, path, token, contentType, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, body := do(t, app, "GET", "/healthz", "", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestAPIRequiresToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, "GET", "/api/contacts", "", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, string(body))

	resp, _ = do(t, app, "POST", "/api/notes/parse", "bad", fiber.MIMETextPlain, "Total: $1")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestParseNotes(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/notes/parse", acmeToken, fiber.MIMEApplicationJSON,
		`{"notes":"Name Address:\nJohn Smith\n123 Main St\nDate: 01/02/2024"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{
		"estimate":[{"label":"Date","value":"01/02/2024"}],
		"customer":[{"label":"Customer","value":["John Smith","123 Main St"]}],
		"location":[],"vendor":[],"totals":[],"other":[],"lineItems":[]
	}`, string(body))
}

func TestParseNotes_PlainText(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/notes/parse", acmeToken, fiber.MIMETextPlainCharsetUTF8, "Total: $450.00")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var parsed domain.ParsedNote
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, []domain.Entry{{Label: "Total", Value: domain.TextValue("$450.00")}}, parsed.Totals)
}

func TestParseNotes_NullAndEmpty(t *testing.T) {
	app := newTestApp(t)
	empty := `{"estimate":[],"customer":[],"location":[],"vendor":[],"totals":[],"other":[],"lineItems":[]}`

	for _, body := range []string{`{"notes":null}`, `{}`, ""} {
		resp, got := do(t, app, "POST", "/api/notes/parse", acmeToken, fiber.MIMEApplicationJSON, body)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "body %q", body)
		assert.JSONEq(t, empty, string(got))
	}
}

func TestParseNotes_BadJSON(t *testing.T) {
	app := newTestApp(t)
	resp, _ := do(t, app, "POST", "/api/notes/parse", acmeToken, fiber.MIMEApplicationJSON, `{"notes":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSummary(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/notes/summary", acmeToken, fiber.MIMETextPlain,
		"Subtotal: $100\nSales Tax: $4\nTotal: $104")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got struct {
		Parsed  domain.ParsedNote `json:"parsed"`
		Summary struct {
			Balanced bool   `json:"balanced"`
			Computed string `json:"computed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Parsed.Totals, 3)
	assert.True(t, got.Summary.Balanced)
	assert.Equal(t, "104", got.Summary.Computed)
}

func TestContactLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/contacts", acmeToken, fiber.MIMEApplicationJSON,
		`{"name":"Jane Roe","email":"jane@example.com","notes":"Random preamble text\nSubtotal: $100"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var created domain.Contact
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "acme", created.WorkspaceID)
	assert.Equal(t, []domain.Entry{{Label: "Additional Details", Value: domain.ListValue("Random preamble text")}}, created.Parsed.Other)

	resp, body = do(t, app, "GET", "/api/contacts", acmeToken, "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []domain.Contact
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	resp, body = do(t, app, "PUT", "/api/contacts/"+created.ID, acmeToken, fiber.MIMEApplicationJSON,
		`{"name":"Jane Roe","email":"jane@example.com","notes":"Total: $450.00"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, app, "GET", "/api/contacts/"+created.ID+"/parsed", acmeToken, "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{
		"estimate":[],"customer":[],"location":[],"vendor":[],
		"totals":[{"label":"Total","value":"$450.00"}],
		"other":[],"lineItems":[]
	}`, string(body))

	resp, _ = do(t, app, "POST", "/api/contacts/"+created.ID+"/reparse", acmeToken, "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, "DELETE", "/api/contacts/"+created.ID, acmeToken, "", "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, body = do(t, app, "GET", "/api/contacts/"+created.ID, acmeToken, "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Contact not found"}`, string(body))
}

func TestContactsAreScopedToWorkspace(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, "POST", "/api/contacts", acmeToken, fiber.MIMEApplicationJSON, `{"name":"Jane"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created domain.Contact
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ = do(t, app, "GET", "/api/contacts/"+created.ID, blueToken, "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, "DELETE", "/api/contacts/"+created.ID, blueToken, "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = do(t, app, "GET", "/api/contacts", blueToken, "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestCreateContact_Errors(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, "POST", "/api/contacts", acmeToken, fiber.MIMEApplicationJSON, `{"name":"  "}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/contacts", acmeToken, fiber.MIMEApplicationJSON, `{"name":"A","email":"a@example.com"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/contacts", acmeToken, fiber.MIMEApplicationJSON, `{"name":"B","email":"a@example.com"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/contacts", acmeToken, fiber.MIMEApplicationJSON, `not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("OPTIONS", "/api/contacts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEvents_ScopedToWorkspace(t *testing.T) {
	hubCtx, stopHub := context.WithCancel(context.Background())
	app := newTestAppContext(t, hubCtx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()
	// stopping the hub closes the stream, so it runs before Shutdown
	defer stopHub()

	reqCtx, cancelReq := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelReq()
	req, err := http.NewRequestWithContext(reqCtx, "GET", "http://"+ln.Addr().String()+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set(auth.TokenHeader, acmeToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	stream := bufio.NewReader(resp.Body)
	readLine := func() string {
		t.Helper()
		line, err := stream.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimRight(line, "\n")
	}
	require.Equal(t, ": connected", readLine())
	require.Equal(t, "", readLine())

	// the blue contact is created first, so the first acme event proves it
	// was never sent
	created, _ := do(t, app, "POST", "/api/contacts", blueToken, fiber.MIMEApplicationJSON, `{"name":"Tom Blue"}`)
	require.Equal(t, fiber.StatusCreated, created.StatusCode)
	created, _ = do(t, app, "POST", "/api/contacts", acmeToken, fiber.MIMEApplicationJSON, `{"name":"Jane Acme"}`)
	require.Equal(t, fiber.StatusCreated, created.StatusCode)

	assert.Equal(t, "event: contact_created", readLine())
	data := readLine()
	require.True(t, strings.HasPrefix(data, "data: "), data)

	var event struct {
		Type    string         `json:"type"`
		Contact domain.Contact `json:"contact"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &event))
	assert.Equal(t, "contact_created", event.Type)
	assert.Equal(t, "Jane Acme", event.Contact.Name)
}
