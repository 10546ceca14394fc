package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"SignalOps/internal/domain/models"
	drepo "SignalOps/internal/domain/repository"
	"SignalOps/pkg/logger"
)

type fakeFlagRepo struct {
	snapshot models.FlagSnapshot
	failure  error
}

func newFakeFlagRepo() *fakeFlagRepo {
	return &fakeFlagRepo{snapshot: models.DefaultFlagSnapshot()}
}

func (f *fakeFlagRepo) GetSnapshot(ctx context.Context) (models.FlagSnapshot, error) {
	if f.failure != nil {
		return models.FlagSnapshot{}, f.failure
	}
	return f.snapshot, nil
}

func (f *fakeFlagRepo) SetGlobalHalt(ctx context.Context, value bool, reason string) error {
	if f.failure != nil {
		return f.failure
	}
	f.snapshot.GlobalHalt = value
	f.snapshot.Metadata = map[string]string{"reason": reason}
	return nil
}

func (f *fakeFlagRepo) SetHaltedPairs(ctx context.Context, pairs []string, reason string) error {
	if f.failure != nil {
		return f.failure
	}
	f.snapshot.HaltedPairs = models.NormalizePairs(pairs)
	f.snapshot.Metadata = map[string]string{"reason": reason}
	return nil
}

func (f *fakeFlagRepo) SetFlattenPairs(ctx context.Context, pairs []string, reason string) error {
	if f.failure != nil {
		return f.failure
	}
	f.snapshot.FlattenPairs = models.NormalizePairs(pairs)
	f.snapshot.Metadata = map[string]string{"reason": reason}
	return nil
}

func (f *fakeFlagRepo) SetLeverageScale(ctx context.Context, value float64, reason string) error {
	if f.failure != nil {
		return f.failure
	}
	f.snapshot.LeverageScale = value
	f.snapshot.Metadata = map[string]string{"reason": reason}
	return nil
}

type auditEntry struct {
	event   string
	payload map[string]string
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) Log(ctx context.Context, event string, payload map[string]string) {
	f.entries = append(f.entries, auditEntry{event: event, payload: payload})
}

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	messages []published
	failure  error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if f.failure != nil {
		return f.failure
	}
	f.messages = append(f.messages, published{channel: channel, payload: payload})
	return nil
}

type notification struct {
	message string
	title   string
	fields  map[string]string
}

type fakeNotifier struct {
	sent    []notification
	failure error
}

func (f *fakeNotifier) Notify(ctx context.Context, message, title string, fields map[string]string) error {
	if f.failure != nil {
		return f.failure
	}
	f.sent = append(f.sent, notification{message: message, title: title, fields: fields})
	return nil
}

type fixture struct {
	svc      *Service
	repo     *fakeFlagRepo
	audit    *fakeAudit
	pub      *fakePublisher
	notifier *fakeNotifier
}

func newFixture() *fixture {
	repo := newFakeFlagRepo()
	audit := &fakeAudit{}
	pub := &fakePublisher{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, audit, pub, "ops.events", notifier, drepo.NopMetrics{}, logger.Nop())
	return &fixture{svc: svc, repo: repo, audit: audit, pub: pub, notifier: notifier}
}

func TestExecuteUnknownCommand(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Execute(context.Background(), models.OpsCommand{Command: "self_destruct"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusError {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("unknown command must not be audited: %v", f.audit.entries)
	}
	if len(f.pub.messages) != 0 {
		t.Fatalf("unknown command must not broadcast")
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("unknown command must not notify")
	}
}

func TestExecuteStatus(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Execute(context.Background(), models.OpsCommand{Command: "status"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Details["global_halt"] != "false" {
		t.Fatalf("details global_halt = %q", resp.Details["global_halt"])
	}
	if resp.Details["leverage_scale"] != "1.000000" {
		t.Fatalf("details leverage_scale = %q", resp.Details["leverage_scale"])
	}
}

func TestExecuteHaltGlobal(t *testing.T) {
	f := newFixture()
	cmd := models.OpsCommand{
		Command:  "halt_global",
		Metadata: map[string]string{"actor": "alice"},
	}
	resp, err := f.svc.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q: %s", resp.Status, resp.Message)
	}
	if !f.repo.snapshot.GlobalHalt {
		t.Fatalf("global halt not applied")
	}
	if got := f.repo.snapshot.Metadata["reason"]; got != "manual_halt:alice" {
		t.Fatalf("reason = %q", got)
	}

	if len(f.audit.entries) != 1 || f.audit.entries[0].event != "ops.halt_global" {
		t.Fatalf("audit entries = %v", f.audit.entries)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.sent))
	}

	if len(f.pub.messages) != 1 || f.pub.messages[0].channel != "ops.events" {
		t.Fatalf("broadcast messages = %v", f.pub.messages)
	}
	var event models.OpsEvent
	if err := json.Unmarshal(f.pub.messages[0].payload, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Command != "halt_global" || event.Status != models.StatusOK {
		t.Fatalf("event = %+v", event)
	}
}

func TestExecuteResumeGlobal(t *testing.T) {
	f := newFixture()
	f.repo.snapshot.GlobalHalt = true

	resp, err := f.svc.Execute(context.Background(), models.OpsCommand{Command: "resume_global"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q", resp.Status)
	}
	if f.repo.snapshot.GlobalHalt {
		t.Fatalf("global halt not released")
	}
	if got := f.repo.snapshot.Metadata["reason"]; got != "manual_resume" {
		t.Fatalf("reason = %q", got)
	}
}

func TestExecuteHaltPairsNormalizes(t *testing.T) {
	f := newFixture()
	cmd := models.OpsCommand{
		Command:   "halt_pairs",
		Arguments: map[string]string{"pairs": "EURUSD, USDJPY, EURUSD"},
	}
	resp, err := f.svc.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q: %s", resp.Status, resp.Message)
	}
	want := []string{"EURUSD", "USDJPY"}
	if !reflect.DeepEqual(f.repo.snapshot.HaltedPairs, want) {
		t.Fatalf("halted_pairs = %v, want %v", f.repo.snapshot.HaltedPairs, want)
	}
	if resp.Details["halted_pairs"] != "EURUSD,USDJPY" {
		t.Fatalf("details halted_pairs = %q", resp.Details["halted_pairs"])
	}
}

func TestExecuteHaltPairsEmptyList(t *testing.T) {
	f := newFixture()
	cmd := models.OpsCommand{
		Command:   "halt_pairs",
		Arguments: map[string]string{"pairs": " , ,"},
	}
	resp, err := f.svc.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusError {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if len(f.repo.snapshot.HaltedPairs) != 0 {
		t.Fatalf("rejected command must not mutate: %v", f.repo.snapshot.HaltedPairs)
	}
	// Recognized command: audited even when rejected, but no side effects.
	if len(f.audit.entries) != 1 {
		t.Fatalf("audit entries = %v", f.audit.entries)
	}
	if len(f.pub.messages) != 0 || len(f.notifier.sent) != 0 {
		t.Fatalf("rejected command must not broadcast or notify")
	}
}

func TestExecuteFlattenPairs(t *testing.T) {
	f := newFixture()
	cmd := models.OpsCommand{
		Command:   "flatten_pairs",
		Arguments: map[string]string{"pairs": "GBPUSD"},
	}
	resp, err := f.svc.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q: %s", resp.Status, resp.Message)
	}
	if !reflect.DeepEqual(f.repo.snapshot.FlattenPairs, []string{"GBPUSD"}) {
		t.Fatalf("flatten_pairs = %v", f.repo.snapshot.FlattenPairs)
	}
}

func TestExecuteSetLeverage(t *testing.T) {
	f := newFixture()
	cmd := models.OpsCommand{
		Command:   "set_leverage",
		Arguments: map[string]string{"leverage": "0.5"},
	}
	resp, err := f.svc.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q: %s", resp.Status, resp.Message)
	}
	if f.repo.snapshot.LeverageScale != 0.5 {
		t.Fatalf("leverage_scale = %v", f.repo.snapshot.LeverageScale)
	}
}

func TestExecuteSetLeverageRejectsInvalid(t *testing.T) {
	f := newFixture()
	for _, raw := range []string{"-1", "0", "abc", ""} {
		cmd := models.OpsCommand{
			Command:   "set_leverage",
			Arguments: map[string]string{"leverage": raw},
		}
		resp, err := f.svc.Execute(context.Background(), cmd)
		if err != nil {
			t.Fatalf("Execute(%q): %v", raw, err)
		}
		if resp.Status != models.StatusError {
			t.Fatalf("leverage %q accepted", raw)
		}
	}
	if f.repo.snapshot.LeverageScale != 1.0 {
		t.Fatalf("rejected writes mutated leverage: %v", f.repo.snapshot.LeverageScale)
	}
	if len(f.pub.messages) != 0 {
		t.Fatalf("rejected commands must not broadcast")
	}
}

func TestExecuteCommandCaseInsensitive(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.Execute(context.Background(), models.OpsCommand{Command: "  HALT_GLOBAL "})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q", resp.Status)
	}
	if !f.repo.snapshot.GlobalHalt {
		t.Fatalf("global halt not applied")
	}
}

func TestExecutePropagatesRepoFailure(t *testing.T) {
	f := newFixture()
	f.repo.failure = fmt.Errorf("redis down")

	_, err := f.svc.Execute(context.Background(), models.OpsCommand{Command: "halt_global"})
	if err == nil {
		t.Fatalf("expected error when flag store fails")
	}
	if len(f.pub.messages) != 0 || len(f.notifier.sent) != 0 {
		t.Fatalf("failed command must not broadcast or notify")
	}
}

func TestExecuteSideEffectFailureDoesNotMaskSuccess(t *testing.T) {
	f := newFixture()
	f.pub.failure = fmt.Errorf("bus down")
	f.notifier.failure = fmt.Errorf("webhook down")

	resp, err := f.svc.Execute(context.Background(), models.OpsCommand{Command: "halt_global"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Status != models.StatusOK {
		t.Fatalf("status = %q, side effects must stay best-effort", resp.Status)
	}
	if !f.repo.snapshot.GlobalHalt {
		t.Fatalf("state mutation lost")
	}
}
