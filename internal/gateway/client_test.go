package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
)

const testToken = "secret-token"

type recordedRequest struct {
	Path    string
	Headers http.Header
	Body    map[string]string
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(r recordedRequest) (int, string)
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]string
	_ = json.Unmarshal(raw, &body)

	rec := recordedRequest{Path: r.URL.Path, Headers: r.Header.Clone(), Body: body}
	g.mu.Lock()
	g.requests = append(g.requests, rec)
	g.mu.Unlock()

	status, resp := g.respond(rec)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

func (g *fakeGateway) calls() []recordedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]recordedRequest(nil), g.requests...)
}

func newFakeGateway(t *testing.T, respond func(r recordedRequest) (int, string)) (*fakeGateway, *httptest.Server) {
	t.Helper()
	g := &fakeGateway{respond: respond}
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return g, srv
}

func zapiCandidate() Candidate {
	return Candidate{
		Auth: Auth{Header: "Client-Token"},
		Body: Body{Phone: "phone", Message: "message"},
	}
}

func TestFixedClient_Send(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		resp      string
		wantOK    bool
		wantErr   error
		wantBody  string
		wantMsgID string
	}{
		{
			name:      "accepted with json body",
			status:    http.StatusOK,
			resp:      `{"messageId":"abc"}`,
			wantOK:    true,
			wantBody:  `{"messageId":"abc"}`,
			wantMsgID: "abc",
		},
		{
			name:     "plain text body is kept as a string",
			status:   http.StatusCreated,
			resp:     "queued",
			wantOK:   true,
			wantBody: `"queued"`,
		},
		{
			name:   "redirect counts as success",
			status: http.StatusFound,
			wantOK: true,
		},
		{
			name:     "rejected",
			status:   http.StatusUnauthorized,
			resp:     `{"error":"bad token"}`,
			wantErr:  domain.ErrGatewayRejected,
			wantBody: `{"error":"bad token"}`,
		},
		{
			name:    "not found is a failure for a fixed client",
			status:  http.StatusNotFound,
			wantErr: domain.ErrGatewayRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, srv := newFakeGateway(t, func(recordedRequest) (int, string) {
				return tt.status, tt.resp
			})
			client := NewFixedClient(Config{Provider: "zapi", BaseURL: srv.URL + "/send-text", Token: testToken}, zapiCandidate())

			d := client.Send(context.Background(), "5511999998888", "oi")

			assert.Equal(t, tt.wantOK, d.OK)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, 1, d.Attempts)
			assert.False(t, d.Inconclusive)
			assert.Equal(t, tt.wantMsgID, d.MessageID)
			if tt.wantBody == "" {
				assert.Nil(t, d.Body)
			} else {
				assert.JSONEq(t, tt.wantBody, string(d.Body))
			}
			if tt.wantErr != nil {
				assert.Contains(t, d.Error, tt.wantErr.Error())
			} else {
				assert.Empty(t, d.Error)
			}

			calls := g.calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "/send-text", calls[0].Path)
			assert.Equal(t, testToken, calls[0].Headers.Get("Client-Token"))
			assert.Equal(t, "application/json", calls[0].Headers.Get("Content-Type"))
			assert.Equal(t, map[string]string{"phone": "5511999998888", "message": "oi"}, calls[0].Body)
		})
	}
}

func TestFixedClient_AuthScheme(t *testing.T) {
	g, srv := newFakeGateway(t, func(recordedRequest) (int, string) { return http.StatusOK, "" })
	client := NewFixedClient(Config{BaseURL: srv.URL, Token: testToken}, Candidate{
		Auth: Auth{Header: "Authorization", Scheme: "Bearer"},
		Body: Body{Phone: "number", Message: "text"},
	})

	d := client.Send(context.Background(), "5511999998888", "oi")

	require.True(t, d.OK)
	calls := g.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer "+testToken, calls[0].Headers.Get("Authorization"))
	assert.Equal(t, map[string]string{"number": "5511999998888", "text": "oi"}, calls[0].Body)
	require.NotNil(t, d.Variant)
	assert.Equal(t, domain.Variant{AuthHeader: "Authorization", PhoneField: "number", MessageField: "text"}, *d.Variant)
}

func TestFixedClient_NotConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing url", Config{Token: testToken}},
		{"missing token", Config{BaseURL: "http://127.0.0.1:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewFixedClient(tt.cfg, zapiCandidate()).Send(context.Background(), "5511999998888", "oi")

			assert.False(t, d.OK)
			assert.Zero(t, d.Attempts)
			assert.Contains(t, d.Error, domain.ErrGatewayNotConfigured.Error())
		})
	}
}

func TestFixedClient_Unreachable(t *testing.T) {
	_, srv := newFakeGateway(t, func(recordedRequest) (int, string) { return http.StatusOK, "" })
	url := srv.URL
	srv.Close()

	d := NewFixedClient(Config{BaseURL: url, Token: testToken}, zapiCandidate()).
		Send(context.Background(), "5511999998888", "oi")

	assert.False(t, d.OK)
	assert.Zero(t, d.Status)
	assert.Equal(t, 1, d.Attempts)
	assert.Contains(t, d.Error, domain.ErrGatewayUnreachable.Error())
}

func TestFixedClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := NewFixedClient(Config{BaseURL: srv.URL, Token: testToken, Timeout: 50 * time.Millisecond}, zapiCandidate())
	d := client.Send(context.Background(), "5511999998888", "oi")

	assert.False(t, d.OK)
	assert.Contains(t, d.Error, domain.ErrGatewayUnreachable.Error())
}

func TestProbingClient_StopsAtFirstConclusiveResponse(t *testing.T) {
	g, srv := newFakeGateway(t, func(r recordedRequest) (int, string) {
		if r.Path == "/messages" && r.Headers.Get("apikey") == testToken && r.Body["to"] != "" {
			return http.StatusOK, `{"id":"1"}`
		}
		return http.StatusNotFound, "not found"
	})

	plan := Plan{
		Paths:  []string{"/send-text", "/messages"},
		Auth:   []Auth{{Header: "Client-Token"}, {Header: "apikey"}},
		Bodies: []Body{{Phone: "phone", Message: "message"}, {Phone: "to", Message: "body"}},
	}
	d := NewProbingClient(Config{Provider: "generic", BaseURL: srv.URL, Token: testToken}, plan).
		Send(context.Background(), "5511999998888", "oi")

	require.True(t, d.OK)
	assert.Equal(t, http.StatusOK, d.Status)
	assert.Equal(t, 8, d.Attempts)
	assert.Len(t, g.calls(), 8)
	assert.Equal(t, &domain.Variant{Path: "/messages", AuthHeader: "apikey", PhoneField: "to", MessageField: "body"}, d.Variant)
	assert.False(t, d.Inconclusive)
}

func TestProbingClient_ConclusiveFailureStopsProbe(t *testing.T) {
	g, srv := newFakeGateway(t, func(r recordedRequest) (int, string) {
		if r.Path == "/send-text" {
			return http.StatusMethodNotAllowed, ""
		}
		return http.StatusBadRequest, `{"error":"phone required"}`
	})

	plan := Plan{
		Paths:  []string{"/send-text", "/messages", "/send"},
		Auth:   []Auth{{Header: "Client-Token"}},
		Bodies: []Body{{Phone: "phone", Message: "message"}},
	}
	d := NewProbingClient(Config{BaseURL: srv.URL, Token: testToken}, plan).
		Send(context.Background(), "5511999998888", "oi")

	assert.False(t, d.OK)
	assert.False(t, d.Inconclusive)
	assert.Equal(t, http.StatusBadRequest, d.Status)
	assert.Equal(t, 2, d.Attempts)
	assert.Len(t, g.calls(), 2)
	assert.Contains(t, d.Error, domain.ErrGatewayRejected.Error())
}

func TestProbingClient_AllInconclusive(t *testing.T) {
	g, srv := newFakeGateway(t, func(recordedRequest) (int, string) {
		return http.StatusNotFound, "nope"
	})

	plan := Plan{
		Paths:  []string{"", "/send"},
		Auth:   []Auth{{Header: "Client-Token"}},
		Bodies: []Body{{Phone: "phone", Message: "message"}, {Phone: "number", Message: "text"}},
	}
	d := NewProbingClient(Config{BaseURL: srv.URL, Token: testToken}, plan).
		Send(context.Background(), "5511999998888", "oi")

	assert.False(t, d.OK)
	assert.True(t, d.Inconclusive)
	assert.Equal(t, http.StatusNotFound, d.Status)
	assert.Equal(t, 4, d.Attempts)
	assert.Len(t, g.calls(), 4)
	assert.JSONEq(t, `"nope"`, string(d.Body))
	assert.Contains(t, d.Error, domain.ErrNoRouteFound.Error())
	assert.Equal(t, &domain.Variant{Path: "/send", AuthHeader: "Client-Token", PhoneField: "number", MessageField: "text"}, d.Variant)
}

func TestProbingClient_TransportErrorStopsProbe(t *testing.T) {
	_, srv := newFakeGateway(t, func(recordedRequest) (int, string) { return http.StatusNotFound, "" })
	url := srv.URL
	srv.Close()

	d := NewProbingClient(Config{BaseURL: url, Token: testToken}, DefaultPlan()).
		Send(context.Background(), "5511999998888", "oi")

	assert.False(t, d.OK)
	assert.False(t, d.Inconclusive)
	assert.Equal(t, 1, d.Attempts)
	assert.Contains(t, d.Error, domain.ErrGatewayUnreachable.Error())
}

func TestProbingClient_CanceledContext(t *testing.T) {
	g, srv := newFakeGateway(t, func(recordedRequest) (int, string) { return http.StatusOK, "" })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewProbingClient(Config{BaseURL: srv.URL, Token: testToken}, DefaultPlan()).
		Send(ctx, "5511999998888", "oi")

	assert.False(t, d.OK)
	assert.Zero(t, d.Attempts)
	assert.Empty(t, g.calls())
	assert.Contains(t, d.Error, domain.ErrGatewayUnreachable.Error())
}

func TestPlan_CandidatesArePathMajor(t *testing.T) {
	plan := Plan{
		Paths:  []string{"/a", "/b"},
		Auth:   []Auth{{Header: "X"}, {Header: "Y"}},
		Bodies: []Body{{Phone: "p", Message: "m"}},
	}

	got := plan.Candidates()

	require.Len(t, got, 4)
	assert.Equal(t, []string{"/a", "/a", "/b", "/b"}, []string{got[0].Path, got[1].Path, got[2].Path, got[3].Path})
	assert.Equal(t, "X", got[0].Auth.Header)
	assert.Equal(t, "Y", got[1].Auth.Header)
}

func TestDefaultPlan_StartsWithZAPIShape(t *testing.T) {
	got := DefaultPlan().Candidates()

	require.NotEmpty(t, got)
	assert.Equal(t, Candidate{Path: "", Auth: Auth{Header: "Client-Token"}, Body: Body{Phone: "phone", Message: "message"}}, got[0])
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
paths = ["/api/send"]

[[auth]]
header = "Authorization"
scheme = "Bearer"
`), 0o600))

		plan, err := LoadPlan(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"/api/send"}, plan.Paths)
		assert.Equal(t, []Auth{{Header: "Authorization", Scheme: "Bearer"}}, plan.Auth)
		assert.Equal(t, DefaultPlan().Bodies, plan.Bodies)
	})

	t.Run("body entry missing a field", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[[body]]
phone = "to"
`), 0o600))

		_, err := LoadPlan(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPlan(filepath.Join(dir, "absent.toml"))
		assert.Error(t, err)
	})
}

func TestIsInconclusive(t *testing.T) {
	assert.True(t, IsInconclusive(http.StatusNotFound))
	assert.True(t, IsInconclusive(http.StatusMethodNotAllowed))
	assert.False(t, IsInconclusive(http.StatusBadRequest))
	assert.False(t, IsInconclusive(http.StatusOK))
	assert.False(t, IsInconclusive(http.StatusInternalServerError))
}

func TestMessageID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"z-api", `{"zaapId":"z1","messageId":"m1","id":"i1"}`, "m1"},
		{"zaap only", `{"zaapId":"z1"}`, "z1"},
		{"baileys style key", `{"key":{"id":"k1"},"status":"PENDING"}`, "k1"},
		{"plain id", `{"id":"i1"}`, "i1"},
		{"numeric id is ignored", `{"id":42}`, ""},
		{"string body", `"queued"`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageID(json.RawMessage(tt.body)))
		})
	}
}

func TestReadBody(t *testing.T) {
	tests := []struct {
		name    string
		r       io.Reader
		want    string
		wantErr bool
	}{
		{name: "json", r: strings.NewReader(` {"id":"1"} `), want: `{"id":"1"}`},
		{name: "text", r: strings.NewReader("queued"), want: `"queued"`},
		{name: "empty", r: strings.NewReader("")},
		{
			name:    "reset after partial text",
			r:       io.MultiReader(strings.NewReader("que"), iotest.ErrReader(errors.New("connection reset"))),
			want:    `"que"`,
			wantErr: true,
		},
		{
			name:    "reset before any byte",
			r:       iotest.ErrReader(errors.New("connection reset")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readBody(tt.r)

			if tt.wantErr {
				assert.ErrorContains(t, err, "connection reset")
			} else {
				assert.NoError(t, err)
			}
			if tt.want == "" {
				assert.Nil(t, got)
			} else {
				assert.JSONEq(t, tt.want, string(got))
			}
		})
	}
}

func TestFixedClient_TruncatedResponseIsRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"messageId":`)
	}))
	t.Cleanup(srv.Close)

	d := NewFixedClient(Config{BaseURL: srv.URL, Token: testToken}, zapiCandidate()).
		Send(context.Background(), "5511999998888", "oi")

	assert.True(t, d.OK)
	assert.Equal(t, http.StatusOK, d.Status)
	assert.NotEmpty(t, d.BodyError)
	assert.JSONEq(t, `"{\"messageId\":"`, string(d.Body))
}
