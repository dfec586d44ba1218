package evidence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/internal/lifecycle"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	claimant   types.Principal = "claimant-aaaa-bbbb"
	respondent types.Principal = "respondent-cccc-dddd"
	outsider   types.Principal = "outsider-eeee-ffff"
)

// fakeDisputes serves a single dispute and records transitions.
type fakeDisputes struct {
	disputes.Service

	dispute     disputes.Dispute
	loadErr     error
	refreshErr  error
	transitions []enums.LifecycleAction
	refreshes   int
}

func (f *fakeDisputes) Load(context.Context, disputes.Caller, string) (disputes.Dispute, error) {
	if f.loadErr != nil {
		return disputes.Dispute{}, f.loadErr
	}
	return f.dispute, nil
}

func (f *fakeDisputes) Transition(_ context.Context, _ disputes.Caller, _ string, action enums.LifecycleAction) (disputes.View, error) {
	f.transitions = append(f.transitions, action)
	if to, ok := lifecycle.Target(f.dispute.Status, action); ok {
		f.dispute.Status = to
	}
	return disputes.View{Dispute: f.dispute}, nil
}

func (f *fakeDisputes) Refresh(context.Context, disputes.Caller, string) (disputes.View, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return disputes.View{}, f.refreshErr
	}
	return disputes.View{Dispute: f.dispute}, nil
}

type fakeVault struct {
	submitted []canister.FileMeta
	hashes    []string
	err       error
}

func (v *fakeVault) SubmitEvidence(_ context.Context, _ string, meta canister.FileMeta, hash, _ string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	v.submitted = append(v.submitted, meta)
	v.hashes = append(v.hashes, hash)
	return "ev-" + hash[:8], nil
}

func (v *fakeVault) GetEvidenceByDispute(context.Context, string) ([]canister.RawEvidence, error) {
	return nil, nil
}

func newTestService(t *testing.T, d disputes.Dispute) (Service, *fakeDisputes, *fakeVault) {
	t.Helper()
	fd := &fakeDisputes{dispute: d}
	vault := &fakeVault{}
	svc, err := NewService(ServiceParams{
		Disputes:       fd,
		Vault:          vault,
		Gate:           lifecycle.NewGate(nil),
		MaxUploadBytes: 1 << 20,
		Clock:          func() time.Time { return time.Date(2025, 3, 4, 14, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc, fd, vault
}

func baseDispute(status enums.DisputeStatus) disputes.Dispute {
	return disputes.Dispute{
		ID:         "d-1",
		Claimant:   disputes.Party{Principal: claimant},
		Respondent: disputes.Party{Principal: respondent},
		Status:     status,
	}
}

func textUpload(body string) Upload {
	return Upload{FileName: "notes.txt", Content: strings.NewReader(body), Description: "delivery log"}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSubmitDuringEvidencePhase(t *testing.T) {
	svc, fd, vault := newTestService(t, baseDispute(enums.DisputeStatusEvidenceSubmission))

	got, err := svc.Submit(context.Background(), disputes.Caller{Principal: claimant}, "d-1", textUpload("goods arrived broken"))
	require.NoError(t, err)

	require.Len(t, vault.submitted, 1)
	assert.Equal(t, "text/plain", vault.submitted[0].MimeType)
	assert.Equal(t, enums.EvidenceTypeForMime("text/plain"), vault.submitted[0].EvidenceType)
	assert.True(t, IsHash(got.Evidence.ContentHash))
	assert.Equal(t, claimant, got.Evidence.UploadedBy)
	assert.Equal(t, "March 4, 2025 at 02:30 PM", got.Evidence.UploadedAt.Display)
	assert.Empty(t, fd.transitions)
	require.NotNil(t, got.Dispute)
	assert.Equal(t, 1, fd.refreshes)
}

func TestSubmitOpensEvidencePhaseFromActive(t *testing.T) {
	svc, fd, vault := newTestService(t, baseDispute(enums.DisputeStatusActive))

	_, err := svc.Submit(context.Background(), disputes.Caller{Principal: respondent}, "d-1", textUpload("reply"))
	require.NoError(t, err)
	assert.Equal(t, []enums.LifecycleAction{enums.LifecycleActionBeginEvidence}, fd.transitions)
	assert.Len(t, vault.submitted, 1)
}

func TestSubmitOnClosedDisputeMakesNoCall(t *testing.T) {
	svc, fd, vault := newTestService(t, baseDispute(enums.DisputeStatusClosed))

	_, err := svc.Submit(context.Background(), disputes.Caller{Principal: claimant}, "d-1", textUpload("late"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, vault.submitted)
	assert.Empty(t, fd.transitions)
}

func TestSubmitRejections(t *testing.T) {
	cases := []struct {
		name   string
		caller types.Principal
		upload Upload
		code   pkgerrors.Code
	}{
		{"outsider", outsider, textUpload("x"), pkgerrors.CodeForbidden},
		{"missing description", claimant, Upload{FileName: "a.txt", Content: strings.NewReader("x")}, pkgerrors.CodeValidation},
		{"missing file", claimant, Upload{Description: "nothing attached"}, pkgerrors.CodeValidation},
		{"disallowed type", claimant, Upload{FileName: "a.bin", Content: strings.NewReader("\x00\x01\x02"), Description: "blob"}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, vault := newTestService(t, baseDispute(enums.DisputeStatusEvidenceSubmission))
			_, err := svc.Submit(context.Background(), disputes.Caller{Principal: tc.caller}, "d-1", tc.upload)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if len(vault.submitted) != 0 {
				t.Fatalf("expected no vault call")
			}
		})
	}
}

func TestSubmitRejectsDuplicateContent(t *testing.T) {
	digest, err := Hash(strings.NewReader("same bytes"))
	require.NoError(t, err)
	d := baseDispute(enums.DisputeStatusEvidenceSubmission)
	d.Evidence = []disputes.Evidence{{ID: "ev-1", ContentHash: strings.ToUpper(digest)}}
	svc, _, vault := newTestService(t, d)

	_, err = svc.Submit(context.Background(), disputes.Caller{Principal: claimant}, "d-1", textUpload("same bytes"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, vault.submitted)
}

func TestSubmitSurvivesRefreshFailure(t *testing.T) {
	svc, fd, vault := newTestService(t, baseDispute(enums.DisputeStatusEvidenceSubmission))
	fd.refreshErr = pkgerrors.New(pkgerrors.CodeConnection, "ledger unreachable")

	got, err := svc.Submit(context.Background(), disputes.Caller{Principal: claimant}, "d-1", textUpload("receipt"))
	require.NoError(t, err)
	assert.Nil(t, got.Dispute)
	assert.Len(t, vault.submitted, 1)
}

func TestListReturnsEvidenceInOrder(t *testing.T) {
	d := baseDispute(enums.DisputeStatusEvidenceSubmission)
	d.Evidence = []disputes.Evidence{{ID: "ev-1", ContentHash: "aa"}, {ID: "ev-2", ContentHash: "bb"}}
	svc, _, _ := newTestService(t, d)

	got, err := svc.List(context.Background(), disputes.Caller{Principal: claimant}, "d-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ev-1", got[0].ID)
	assert.Equal(t, "ev-2", got[1].ID)
}
