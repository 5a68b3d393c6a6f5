package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/onchain-registrar/interfaces"
	"github.com/ruteri/onchain-registrar/metrics"
	"github.com/ruteri/onchain-registrar/registrar"
)

var (
	testRegistry = common.HexToAddress("0x5f3dba5e45909d1bf126aa0af0601b1a369dbfd7")
	fooAddr      = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
)

func newTestServer(t *testing.T, reg interfaces.Registrar) *Server {
	t.Helper()
	srv, err := New(&HTTPServerConfig{
		Log:                      slog.New(slog.NewTextHandler(io.Discard, nil)),
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, reg)
	require.NoError(t, err)
	return srv
}

func doGet(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.getRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

	body := map[string]string{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestHandleResolve(t *testing.T) {
	transportErr := &registrar.TransportError{To: testRegistry, Err: errors.New("connection refused")}
	decodingErr := &registrar.DecodingError{Method: "getAddress", Len: 31, Err: registrar.ErrInvalidLength}

	tests := []struct {
		name        string
		path        string
		setupMock   func(*registrar.MockRegistrar)
		wantStatus  int
		wantBody    map[string]string
		wantOutcome string
	}{
		{
			name: "registered name",
			path: "/api/resolve/foo",
			setupMock: func(m *registrar.MockRegistrar) {
				m.On("Resolve", mock.Anything, "foo", "A").Return(interfaces.Present(fooAddr), nil)
			},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]string{"name": "foo", "record": "A", "address": fooAddr.Hex()},
			wantOutcome: metrics.OutcomeFound,
		},
		{
			name: "custom record type",
			path: "/api/resolve/foo?record=CNAME",
			setupMock: func(m *registrar.MockRegistrar) {
				m.On("Resolve", mock.Anything, "foo", "CNAME").Return(interfaces.Present(fooAddr), nil)
			},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]string{"name": "foo", "record": "CNAME", "address": fooAddr.Hex()},
			wantOutcome: metrics.OutcomeFound,
		},
		{
			name: "deferred form",
			path: "/api/resolve/foo?async=1",
			setupMock: func(m *registrar.MockRegistrar) {
				p := interfaces.NewPending[interfaces.ResolvedAddress]()
				go p.Complete(interfaces.Present(fooAddr), nil)
				m.On("ResolveAsync", mock.Anything, "foo", "A").Return(p)
			},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]string{"name": "foo", "record": "A", "address": fooAddr.Hex()},
			wantOutcome: metrics.OutcomeFound,
		},
		{
			name: "unregistered name",
			path: "/api/resolve/nobody",
			setupMock: func(m *registrar.MockRegistrar) {
				m.On("Resolve", mock.Anything, "nobody", "A").Return(interfaces.Absent[common.Address](), nil)
			},
			wantStatus:  http.StatusNotFound,
			wantBody:    map[string]string{"error": ErrNotRegistered.Error()},
			wantOutcome: metrics.OutcomeAbsent,
		},
		{
			name: "node unreachable",
			path: "/api/resolve/foo",
			setupMock: func(m *registrar.MockRegistrar) {
				m.On("Resolve", mock.Anything, "foo", "A").Return(interfaces.Absent[common.Address](), transportErr)
			},
			wantStatus:  http.StatusServiceUnavailable,
			wantBody:    map[string]string{"error": transportErr.Error()},
			wantOutcome: metrics.OutcomeTransportError,
		},
		{
			name: "malformed result",
			path: "/api/resolve/foo",
			setupMock: func(m *registrar.MockRegistrar) {
				m.On("Resolve", mock.Anything, "foo", "A").Return(interfaces.Absent[common.Address](), decodingErr)
			},
			wantStatus:  http.StatusBadGateway,
			wantBody:    map[string]string{"error": decodingErr.Error()},
			wantOutcome: metrics.OutcomeDecodingError,
		},
		{
			name: "lookup timed out",
			path: "/api/resolve/foo",
			setupMock: func(m *registrar.MockRegistrar) {
				m.On("Resolve", mock.Anything, "foo", "A").Return(interfaces.Absent[common.Address](), context.DeadlineExceeded)
			},
			wantStatus:  http.StatusGatewayTimeout,
			wantBody:    map[string]string{"error": context.DeadlineExceeded.Error()},
			wantOutcome: metrics.OutcomeCancelled,
		},
		{
			name:        "name too long",
			path:        "/api/resolve/" + strings.Repeat("a", maxNameLength+1),
			setupMock:   func(m *registrar.MockRegistrar) {},
			wantStatus:  http.StatusBadRequest,
			wantBody:    map[string]string{"error": ErrNameTooLong.Error()},
			wantOutcome: metrics.OutcomeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := new(registrar.MockRegistrar)
			tt.setupMock(reg)
			srv := newTestServer(t, reg)

			rr, body := doGet(t, srv, tt.path)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, 1.0, testutil.ToFloat64(srv.Metrics().Lookups.WithLabelValues(opResolve, tt.wantOutcome)))
			reg.AssertExpectations(t)
		})
	}
}

func TestHandleOwner(t *testing.T) {
	reg := new(registrar.MockRegistrar)
	reg.On("Owner", mock.Anything, "foo").Return(interfaces.Present(fooAddr), nil)
	reg.On("Owner", mock.Anything, "nobody").Return(interfaces.Absent[common.Address](), nil)
	srv := newTestServer(t, reg)

	rr, body := doGet(t, srv, "/api/owner/foo")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"name": "foo", "owner": fooAddr.Hex()}, body)

	rr, _ = doGet(t, srv, "/api/owner/nobody")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	reg.AssertExpectations(t)
}

func TestHandleData(t *testing.T) {
	value := common.HexToHash("0x01")
	reg := new(registrar.MockRegistrar)
	reg.On("Data", mock.Anything, "foo", "TXT").Return(interfaces.Present(value), nil)
	srv := newTestServer(t, reg)

	rr, body := doGet(t, srv, "/api/data/foo?record=TXT")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"name": "foo", "record": "TXT", "data": value.Hex()}, body)
	reg.AssertExpectations(t)
}

func TestHandleReverse(t *testing.T) {
	reg := new(registrar.MockRegistrar)
	reg.On("Reverse", mock.Anything, fooAddr).Return(interfaces.Present("foo"), nil)
	srv := newTestServer(t, reg)

	rr, body := doGet(t, srv, "/api/reverse/"+fooAddr.Hex())
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"address": fooAddr.Hex(), "name": "foo"}, body)

	rr, body = doGet(t, srv, "/api/reverse/not-an-address")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, body["error"], ErrInvalidAddress.Error())

	reg.AssertExpectations(t)
}

// TestHandleResolve_Client runs the handler over a real client so that the
// error types reaching the handler are the ones the client produces.
func TestHandleResolve_Client(t *testing.T) {
	codec, err := registrar.NewCodec()
	require.NoError(t, err)
	encoded, err := codec.EncodeAddress(fooAddr)
	require.NoError(t, err)

	tests := []struct {
		name       string
		raw        []byte
		err        error
		wantStatus int
	}{
		{name: "found", raw: encoded, wantStatus: http.StatusOK},
		{name: "absent", raw: make([]byte, 32), wantStatus: http.StatusNotFound},
		{name: "short result", raw: encoded[:31], wantStatus: http.StatusBadGateway},
		{name: "unreachable", err: errors.New("dial tcp: connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := interfaces.CallTransportFunc(func(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
				return tt.raw, tt.err
			})
			client, err := registrar.NewClient(testRegistry, registrar.NewBlocking(transport))
			require.NoError(t, err)

			rr, _ := doGet(t, newTestServer(t, client), "/api/resolve/foo")
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, new(registrar.MockRegistrar))

	rr, body := doGet(t, srv, "/livez")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alive", body["status"])

	rr, body = doGet(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", body["status"])

	_, body = doGet(t, srv, "/drain")
	assert.Equal(t, "draining", body["status"])
	_, body = doGet(t, srv, "/drain")
	assert.Equal(t, "already draining", body["status"])

	rr, body = doGet(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "not ready", body["status"])

	_, body = doGet(t, srv, "/undrain")
	assert.Equal(t, "ready", body["status"])
	_, body = doGet(t, srv, "/undrain")
	assert.Equal(t, "already ready", body["status"])

	rr, _ = doGet(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, rr.Code)
}

// goroutineTransport completes each call from its own goroutine.
type goroutineTransport struct {
	inner interfaces.CallTransport
}

func (g goroutineTransport) CallAsync(ctx context.Context, to common.Address, data []byte) *interfaces.Pending[[]byte] {
	p := interfaces.NewPending[[]byte]()
	go func() {
		p.Complete(g.inner.Call(ctx, to, data))
	}()
	return p
}

func TestHandleResolve_DeadlineSameInBothModes(t *testing.T) {
	hanging := interfaces.CallTransportFunc(func(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	blocking, err := registrar.NewClient(testRegistry, registrar.NewBlocking(hanging))
	require.NoError(t, err)
	deferred, err := registrar.NewClient(testRegistry, registrar.NewDeferred(goroutineTransport{inner: hanging}))
	require.NoError(t, err)

	tests := []struct {
		name   string
		client *registrar.Client
		path   string
	}{
		{name: "blocking", client: blocking, path: "/api/resolve/foo"},
		{name: "blocking async form", client: blocking, path: "/api/resolve/foo?async=1"},
		{name: "deferred", client: deferred, path: "/api/resolve/foo"},
		{name: "deferred async form", client: deferred, path: "/api/resolve/foo?async=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.client)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil).WithContext(ctx)
			srv.getRouter().ServeHTTP(rr, req)

			assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
			assert.Equal(t, 1.0, testutil.ToFloat64(srv.Metrics().Lookups.WithLabelValues(opResolve, metrics.OutcomeCancelled)))
		})
	}
}
