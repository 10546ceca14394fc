package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"SignalOps/internal/domain/models"
	drepo "SignalOps/internal/domain/repository"
	"SignalOps/pkg/logger"
)

// Service executes operator commands against the flag repository. It is a
// stateless dispatcher: validation failures come back as error responses,
// never as errors, while flag-store failures propagate to the caller.
type Service struct {
	repo            drepo.FlagRepository
	audit           drepo.AuditLogger
	eventPublisher  drepo.Publisher
	opsEventChannel string
	notifier        drepo.Notifier
	metrics         drepo.Metrics
	logger          *logger.Logger
}

// NewService creates an ops command service. notifier may be nil when no
// notification backend is configured.
func NewService(
	repo drepo.FlagRepository,
	audit drepo.AuditLogger,
	eventPublisher drepo.Publisher,
	opsEventChannel string,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	lgr *logger.Logger,
) *Service {
	return &Service{
		repo:            repo,
		audit:           audit,
		eventPublisher:  eventPublisher,
		opsEventChannel: opsEventChannel,
		notifier:        notifier,
		metrics:         metrics,
		logger:          lgr,
	}
}

// Execute runs one command. Unknown commands are rejected immediately with no
// audit entry and no notification.
func (s *Service) Execute(ctx context.Context, cmd models.OpsCommand) (models.OpsResponse, error) {
	name := strings.ToLower(strings.TrimSpace(cmd.Command))

	var (
		resp models.OpsResponse
		err  error
	)
	switch name {
	case models.CmdStatus:
		resp, err = s.status(ctx)
	case models.CmdHaltGlobal:
		resp, err = s.setGlobalHalt(ctx, cmd, true)
	case models.CmdResumeGlobal:
		resp, err = s.setGlobalHalt(ctx, cmd, false)
	case models.CmdHaltPairs:
		resp, err = s.setPairs(ctx, cmd, name)
	case models.CmdFlattenPairs:
		resp, err = s.setPairs(ctx, cmd, name)
	case models.CmdSetLeverage:
		resp, err = s.setLeverage(ctx, cmd)
	default:
		s.metrics.IncOpsCommand(name, models.StatusError)
		return models.OpsResponse{
			Status:  models.StatusError,
			Message: fmt.Sprintf("unknown command %q", cmd.Command),
		}, nil
	}
	if err != nil {
		return models.OpsResponse{}, err
	}

	s.metrics.IncOpsCommand(name, resp.Status)
	s.audit.Log(ctx, "ops."+name, auditPayload(cmd, resp))

	if resp.Status == models.StatusOK {
		s.broadcast(ctx, name, cmd, resp)
		s.notify(ctx, name, cmd, resp)
	}

	return resp, nil
}

func (s *Service) status(ctx context.Context) (models.OpsResponse, error) {
	snapshot, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return models.OpsResponse{}, err
	}
	return models.OpsResponse{
		Status:  models.StatusOK,
		Message: "current ops flags",
		Details: snapshot.Details(),
	}, nil
}

func (s *Service) setGlobalHalt(ctx context.Context, cmd models.OpsCommand, value bool) (models.OpsResponse, error) {
	def := "manual_resume"
	msg := "global halt released"
	if value {
		def = "manual_halt"
		msg = "global halt engaged"
	}
	if err := s.repo.SetGlobalHalt(ctx, value, reasonOrDefault(cmd, def)); err != nil {
		return models.OpsResponse{}, err
	}
	return s.okWithSnapshot(ctx, msg)
}

func (s *Service) setPairs(ctx context.Context, cmd models.OpsCommand, name string) (models.OpsResponse, error) {
	pairs := models.NormalizePairs(strings.Split(cmd.Arguments["pairs"], ","))
	if len(pairs) == 0 {
		return models.OpsResponse{
			Status:  models.StatusError,
			Message: "pairs argument must be a non-empty comma-separated list",
		}, nil
	}

	reason := reasonOrDefault(cmd, "manual_"+name)
	var err error
	if name == models.CmdHaltPairs {
		err = s.repo.SetHaltedPairs(ctx, pairs, reason)
	} else {
		err = s.repo.SetFlattenPairs(ctx, pairs, reason)
	}
	if err != nil {
		return models.OpsResponse{}, err
	}
	return s.okWithSnapshot(ctx, fmt.Sprintf("%s updated: %s", name, strings.Join(pairs, ",")))
}

func (s *Service) setLeverage(ctx context.Context, cmd models.OpsCommand) (models.OpsResponse, error) {
	raw := strings.TrimSpace(cmd.Arguments["leverage"])
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.OpsResponse{
			Status:  models.StatusError,
			Message: fmt.Sprintf("leverage argument %q is not a number", raw),
		}, nil
	}
	if value <= 0 {
		return models.OpsResponse{
			Status:  models.StatusError,
			Message: fmt.Sprintf("leverage must be positive, got %v", value),
		}, nil
	}

	if err := s.repo.SetLeverageScale(ctx, value, reasonOrDefault(cmd, "manual_set_leverage")); err != nil {
		return models.OpsResponse{}, err
	}
	return s.okWithSnapshot(ctx, fmt.Sprintf("leverage scale set to %v", value))
}

func (s *Service) okWithSnapshot(ctx context.Context, msg string) (models.OpsResponse, error) {
	snapshot, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return models.OpsResponse{}, err
	}
	return models.OpsResponse{
		Status:  models.StatusOK,
		Message: msg,
		Details: snapshot.Details(),
	}, nil
}

// broadcast publishes the ops event envelope. Best effort: a bus outage must
// not mask the already-applied state mutation.
func (s *Service) broadcast(ctx context.Context, name string, cmd models.OpsCommand, resp models.OpsResponse) {
	event := models.OpsEvent{
		Command:   name,
		Arguments: nonNil(cmd.Arguments),
		Metadata:  nonNil(cmd.Metadata),
		Status:    resp.Status,
		Details:   resp.Details,
	}
	b, err := json.Marshal(event)
	if err == nil {
		err = s.eventPublisher.Publish(ctx, s.opsEventChannel, b)
	}
	if err != nil {
		s.metrics.IncSideEffectFailure("event_publish")
		s.logger.Error("ops event publish failed",
			logger.String("command", name),
			logger.Error(err))
	}
}

// notify sends the human notification. Best effort, same reasoning as
// broadcast.
func (s *Service) notify(ctx context.Context, name string, cmd models.OpsCommand, resp models.OpsResponse) {
	if s.notifier == nil {
		return
	}
	fields := make(map[string]string, len(cmd.Arguments)+len(resp.Details))
	for k, v := range cmd.Arguments {
		fields["arg_"+k] = v
	}
	for k, v := range resp.Details {
		fields[k] = v
	}
	if err := s.notifier.Notify(ctx, resp.Message, "ops."+name, fields); err != nil {
		s.metrics.IncSideEffectFailure("notify")
		s.logger.Error("ops notification failed",
			logger.String("command", name),
			logger.Error(err))
	}
}

func auditPayload(cmd models.OpsCommand, resp models.OpsResponse) map[string]string {
	payload := map[string]string{
		"status":  resp.Status,
		"message": resp.Message,
	}
	for k, v := range cmd.Arguments {
		payload[k] = v
	}
	for k, v := range cmd.Metadata {
		payload[k] = v
	}
	return payload
}

func reasonOrDefault(cmd models.OpsCommand, def string) string {
	if reason := cmd.Metadata["reason"]; reason != "" {
		return reason
	}
	if actor := cmd.Metadata["actor"]; actor != "" {
		return def + ":" + actor
	}
	return def
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
