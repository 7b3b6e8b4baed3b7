package usecase

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/dinebook/internal/notification/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/clock"
	"github.com/shandysiswandi/dinebook/internal/pkg/config"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/mail"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/pkg/validator"
)

//go:embed template/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Option("missingkey=zero").ParseFS(templateFS, "template/*.html"))

const (
	defaultSendAttempts = 3
	defaultSendBackoff  = 500 * time.Millisecond
)

type repoDB interface {
	CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) error
	UpdateDeliveryLog(ctx context.Context, u entity.UpdateDeliveryLog) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
}

type Usecase struct {
	repoDB    repoDB
	repoMail  repoMail
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoMail   repoMail
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMail:  dep.RepoMail,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email":   s.cfg.GetString("modules.notification.company.support_email"),
		"company_name":    s.cfg.GetString("modules.notification.company.name"),
		"company_address": s.cfg.GetString("modules.notification.company.address"),
		"year":            s.clock.Now().Format("2006"),
	}
}

func (s *Usecase) sendAttempts() uint64 {
	if n := s.cfg.GetUint64("modules.notification.email.send_attempts"); n > 0 {
		return n
	}
	return defaultSendAttempts
}

func (s *Usecase) sendBackoff() time.Duration {
	if ms := s.cfg.GetInt64("modules.notification.email.backoff_ms"); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultSendBackoff
}
