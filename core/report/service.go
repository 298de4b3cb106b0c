package report

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/access"
)

// Service fronts the Compiler for the API layer and, when the student record
// carries a guardian email, sends a "report ready" notification. Notification
// failures are logged and never fail the request; the payload is the product.
type Service struct {
	compiler *Compiler
	mailSvc  core.EmailService
	logger   core.Logger
}

func NewService(compiler *Compiler, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		compiler: compiler,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

func (svc *Service) Compile(ctx context.Context, ac access.Context, studentID, termID string, in CompileInput) (Payload, error) {
	return svc.compiler.Compile(ctx, ac, studentID, termID, in)
}

// CompileAndNotify compiles the report and queues the guardian notification.
func (svc *Service) CompileAndNotify(ctx context.Context, ac access.Context, studentID, termID string, in CompileInput) (Payload, error) {
	payload, err := svc.compiler.Compile(ctx, ac, studentID, termID, in)
	if err != nil {
		return Payload{}, err
	}
	svc.notify(payload)
	return payload, nil
}

func (svc *Service) notify(payload Payload) {
	if svc.mailSvc == nil || payload.Student.GuardianEmail == "" {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: payload.Student.Name, Address: payload.Student.GuardianEmail}},
		Subject:      fmt.Sprintf("%s report for %s is ready", payload.Term.Name, payload.Student.Name),
		TemplateName: "report_ready",
		TemplateData: payload,
	}
	svc.mailSvc.SendMessages(msg) // rendering handled by the email service
	if svc.logger != nil {
		svc.logger.Debug("queued report notification", payload.Student.ID, payload.Term.ID)
	}
}
