package disputes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/internal/lifecycle"
	"github.com/angelmondragon/arbitra-backend/pkg/config"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusLedger is a gateway that stores whatever status variant it is sent
// and serves it back in the dispute record.
type statusLedger struct {
	mu             sync.Mutex
	status         json.RawMessage
	recommendation bool
}

func (l *statusLedger) serve(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Args []json.RawMessage `json:"args"`
		}
		require.NoError(t, json.Unmarshal(body, &req))

		l.mu.Lock()
		defer l.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/updateDisputeStatus"):
			l.status = req.Args[1]
			_, _ = io.WriteString(w, `{"ok":null}`)
		case strings.HasSuffix(r.URL.Path, "/getDispute"):
			rec := `[]`
			if l.recommendation {
				rec = `[{"confidence":0.8,"reasoning":"Delivery was late","decision":"Partial refund"}]`
			}
			_, _ = io.WriteString(w, `[{"id":"7","status":`+string(l.status)+`,"recommendation":`+rec+`}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusRoundTripsThroughEveryDialect(t *testing.T) {
	legacyCollapses := map[enums.DisputeStatus]enums.DisputeStatus{
		enums.DisputeStatusDraft:   enums.DisputeStatusActive,
		enums.DisputeStatusSettled: enums.DisputeStatusDecided,
	}

	for _, dialect := range []string{config.StatusDialectCanonical, config.StatusDialectLegacy} {
		for _, status := range enums.DisputeStatuses() {
			t.Run(dialect+"/"+status.String(), func(t *testing.T) {
				ledger := &statusLedger{recommendation: status.AtLeast(enums.DisputeStatusArbitratorReview)}
				srv := ledger.serve(t)
				client, err := canister.NewClient(config.CanisterConfig{
					GatewayURL:    srv.URL,
					DisputeLedger: "arbitra_backend",
					CallTimeout:   time.Second,
					StatusDialect: dialect,
				})
				require.NoError(t, err)

				ctx := context.Background()
				require.NoError(t, client.UpdateStatus(ctx, "7", status))
				raw, found, err := client.GetDispute(ctx, "7")
				require.NoError(t, err)
				require.True(t, found)

				want := status
				if collapsed, ok := legacyCollapses[status]; ok && dialect == config.StatusDialectLegacy {
					want = collapsed
				}
				assert.Equal(t, want, Project(*raw).Status)
			})
		}
	}
}

func TestLegacyLedgerReachesDecision(t *testing.T) {
	ledger := &statusLedger{}
	srv := ledger.serve(t)
	client, err := canister.NewClient(config.CanisterConfig{
		GatewayURL:    srv.URL,
		DisputeLedger: "arbitra_backend",
		CallTimeout:   time.Second,
		StatusDialect: config.StatusDialectLegacy,
	})
	require.NoError(t, err)
	ctx := context.Background()

	read := func() enums.DisputeStatus {
		raw, found, err := client.GetDispute(ctx, "7")
		require.NoError(t, err)
		require.True(t, found)
		return Project(*raw).Status
	}

	require.NoError(t, client.UpdateStatus(ctx, "7", enums.DisputeStatusAIAnalysis))
	assert.Equal(t, enums.DisputeStatusAIAnalysis, read())

	ledger.mu.Lock()
	ledger.recommendation = true
	ledger.mu.Unlock()
	require.NoError(t, client.UpdateStatus(ctx, "7", enums.DisputeStatusArbitratorReview))
	reviewed := read()
	assert.Equal(t, enums.DisputeStatusArbitratorReview, reviewed)

	to, ok := lifecycle.Target(reviewed, enums.LifecycleActionSubmitDecision)
	require.True(t, ok)
	require.NoError(t, client.UpdateStatus(ctx, "7", to))
	assert.Equal(t, enums.DisputeStatusDecided, read())

	require.NoError(t, client.UpdateStatus(ctx, "7", enums.DisputeStatusAppealed))
	appealed := read()
	to, ok = lifecycle.Target(appealed, enums.LifecycleActionReReview)
	require.True(t, ok)
	require.NoError(t, client.UpdateStatus(ctx, "7", to))
	assert.Equal(t, enums.DisputeStatusArbitratorReview, read())
}
