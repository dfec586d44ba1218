package canister

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/arbitra-backend/pkg/config"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Path string
	Args []json.RawMessage
}

type gateway struct {
	mu      sync.Mutex
	calls   []recordedCall
	handler func(w http.ResponseWriter, call recordedCall, attempt int)
	hits    atomic.Int32
}

func newGateway(t *testing.T, handler func(w http.ResponseWriter, call recordedCall, attempt int)) (*gateway, *httptest.Server) {
	t.Helper()
	g := &gateway{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Args []json.RawMessage `json:"args"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		call := recordedCall{Path: r.URL.Path, Args: req.Args}
		g.mu.Lock()
		g.calls = append(g.calls, call)
		g.mu.Unlock()
		attempt := int(g.hits.Add(1))
		w.Header().Set("Content-Type", "application/json")
		g.handler(w, call, attempt)
	}))
	t.Cleanup(srv.Close)
	return g, srv
}

func (g *gateway) Calls() []recordedCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]recordedCall, len(g.calls))
	copy(out, g.calls)
	return out
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(config.CanisterConfig{
		GatewayURL:     baseURL,
		DisputeLedger:  "arbitra_backend",
		EvidenceVault:  "evidence_manager",
		AnalysisEngine: "ai_analysis",
		Escrow:         "bitcoin_escrow",
		CallTimeout:    200 * time.Millisecond,
		RetryBackoff:   time.Millisecond,
		MaxRetries:     1,
	}, opts...)
	require.NoError(t, err)
	return client
}

func TestGetDisputeDecodesLegacyRecord(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `[{
			"id": "7",
			"claimant": "aaaaa-aa",
			"respondent": "2vxsx-fae",
			"arbitrator": [],
			"title": "Late delivery",
			"description": "Goods arrived late",
			"amount": 125000,
			"status": {"EvidenceSubmission": null},
			"createdAt": 1700000000000000000,
			"updatedAt": 1700000000000000000,
			"decision": [],
			"escrowId": ["escrow-1"]
		}]`)
	})
	client := newTestClient(t, srv.URL)

	raw, found, err := client.GetDispute(context.Background(), "7")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "7", raw.ID.String())
	assert.False(t, raw.Arbitrator.Valid)
	assert.True(t, raw.EscrowID.Valid)
	assert.Equal(t, "escrow-1", raw.EscrowID.Value)
	assert.Equal(t, "125000", raw.Amount.Value.String())

	require.Len(t, g.Calls(), 1)
	assert.Equal(t, "/arbitra_backend/getDispute", g.Calls()[0].Path)
	assert.JSONEq(t, `"7"`, string(g.Calls()[0].Args[0]))
}

func TestGetDisputeAbsent(t *testing.T) {
	_, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `[]`)
	})
	client := newTestClient(t, srv.URL)

	raw, found, err := client.GetDispute(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, raw)
}

func TestCallRetriesOnceAfterTransportFailure(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		if attempt == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"ok": null}`)
	})
	reg := prometheus.NewRegistry()
	client := newTestClient(t, srv.URL, WithMetrics(metrics.NewCanisterMetrics(reg)))

	err := client.SubmitDecision(context.Background(), "7", "Claimant prevails")
	require.NoError(t, err)
	assert.Len(t, g.Calls(), 2)
}

func TestCallGivesUpAfterOneRetry(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		w.WriteHeader(http.StatusBadGateway)
	})
	client := newTestClient(t, srv.URL)

	err := client.LinkEscrow(context.Background(), "7", "escrow-1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConnection, pkgerrors.CodeOf(err))
	assert.True(t, pkgerrors.IsRetryable(err))
	assert.Len(t, g.Calls(), 2)
}

func TestCallTimesOutEachAttempt(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		time.Sleep(400 * time.Millisecond)
		_, _ = io.WriteString(w, `{"ok": null}`)
	})
	client := newTestClient(t, srv.URL)

	err := client.TriggerAnalysis(context.Background(), "7")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConnection, pkgerrors.CodeOf(err))
	assert.Len(t, g.Calls(), 2)
}

func TestDomainRejectionIsNotRetried(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `{"err": "Only the assigned arbitrator can submit a decision"}`)
	})
	client := newTestClient(t, srv.URL)

	err := client.SubmitDecision(context.Background(), "7", "text")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDomainRejected, typed.Code())
	assert.Equal(t, "Only the assigned arbitrator can submit a decision", typed.Message())
	assert.Len(t, g.Calls(), 1)
}

func TestClientErrorStatusIsNotRetried(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, srv.URL)

	_, err := client.Health(context.Background(), "arbitra_backend")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConnection, pkgerrors.CodeOf(err))
	assert.Len(t, g.Calls(), 1)
}

func TestCreateDisputeSendsFullArguments(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `{"ok": 12}`)
	})
	client := newTestClient(t, srv.URL)

	id, err := client.CreateDispute(context.Background(), CreateDisputeParams{
		Title:             "Late delivery",
		Description:       "Goods arrived late",
		Respondent:        "2vxsx-fae",
		Currency:          "USD",
		GoverningLaw:      "New York",
		ArbitrationClause: "Clause 14",
	})
	require.NoError(t, err)
	assert.Equal(t, "12", id)

	require.Len(t, g.Calls(), 1)
	assert.Equal(t, "/arbitra_backend/createDisputeFull", g.Calls()[0].Path)
	require.Len(t, g.Calls()[0].Args, 7)
	assert.JSONEq(t, `"2vxsx-fae"`, string(g.Calls()[0].Args[2]))
	assert.JSONEq(t, `0`, string(g.Calls()[0].Args[3]))
}

func TestUpdateStatusDialects(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `{"ok": "updated"}`)
	})

	canonical := newTestClient(t, srv.URL)
	require.NoError(t, canonical.UpdateStatus(context.Background(), "7", enums.DisputeStatusAIAnalysis))

	legacy, err := NewClient(config.CanisterConfig{
		GatewayURL:    srv.URL,
		DisputeLedger: "arbitra_backend",
		CallTimeout:   time.Second,
		StatusDialect: config.StatusDialectLegacy,
	})
	require.NoError(t, err)
	require.NoError(t, legacy.UpdateStatus(context.Background(), "7", enums.DisputeStatusAIAnalysis))

	require.Len(t, g.Calls(), 2)
	assert.JSONEq(t, `{"AIAnalysis": null}`, string(g.Calls()[0].Args[1]))
	assert.JSONEq(t, `{"UnderReview": null}`, string(g.Calls()[1].Args[1]))
}

func TestLegacyReadResolvesUnderReview(t *testing.T) {
	_, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `[
			{"id": "1", "status": {"UnderReview": null}, "recommendation": []},
			{"id": "2", "status": {"UnderReview": null}, "ruling": [{"confidence": 0.7, "decision": "Refund"}]}
		]`)
	})

	legacy, err := NewClient(config.CanisterConfig{
		GatewayURL:    srv.URL,
		DisputeLedger: "arbitra_backend",
		CallTimeout:   time.Second,
		StatusDialect: config.StatusDialectLegacy,
	})
	require.NoError(t, err)
	raws, err := legacy.GetDisputesByUser(context.Background(), "aaaaa-aa")
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.JSONEq(t, `{"UnderReview": null}`, string(raws[0].Status))
	assert.JSONEq(t, `{"ArbitratorReview": null}`, string(raws[1].Status))

	canonical := newTestClient(t, srv.URL)
	raws, err = canonical.GetDisputesByUser(context.Background(), "aaaaa-aa")
	require.NoError(t, err)
	assert.JSONEq(t, `{"UnderReview": null}`, string(raws[1].Status))
}

func TestSubmitEvidenceEncodesFileMeta(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `{"ok": "ev-1"}`)
	})
	client := newTestClient(t, srv.URL)

	id, err := client.SubmitEvidence(context.Background(), "7", FileMeta{
		FileName:     "contract.pdf",
		MimeType:     "application/pdf",
		Size:         2048,
		EvidenceType: enums.EvidenceTypeDocument,
	}, "abc123", "Signed contract")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", id)

	require.Len(t, g.Calls(), 1)
	assert.Equal(t, "/evidence_manager/submitEvidence", g.Calls()[0].Path)
	assert.JSONEq(t, `{"fileName":"contract.pdf","mimeType":"application/pdf","fileSize":2048,"evidenceType":{"Document":null}}`, string(g.Calls()[0].Args[1]))
}

func TestEscrowCalls(t *testing.T) {
	g, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		switch call.Path {
		case "/bitcoin_escrow/getEscrow":
			_, _ = io.WriteString(w, `[{"id":"e1","disputeId":"7","amount":100,"depositor":"aaaaa-aa","beneficiary":"2vxsx-fae","status":{"Funded":null},"createdAt":1,"releasedAt":[]}]`)
		default:
			_, _ = io.WriteString(w, `{"ok":"tx-9"}`)
		}
	})
	client := newTestClient(t, srv.URL)

	ref, err := client.ReleaseFunds(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "tx-9", ref)

	escrow, found, err := client.GetEscrow(context.Background(), "7")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "e1", escrow.ID.String())
	assert.False(t, escrow.ReleasedAt.Valid)
	assert.Len(t, g.Calls(), 2)
}

func TestMalformedReplyIsConnectionError(t *testing.T) {
	_, srv := newGateway(t, func(w http.ResponseWriter, call recordedCall, attempt int) {
		_, _ = io.WriteString(w, `not json`)
	})
	client := newTestClient(t, srv.URL)

	_, err := client.GetDisputesByUser(context.Background(), "aaaaa-aa")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConnection, pkgerrors.CodeOf(err))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(config.CanisterConfig{CallTimeout: time.Second})
	assert.Error(t, err)
	_, err = NewClient(config.CanisterConfig{GatewayURL: "http://localhost"})
	assert.Error(t, err)
}
