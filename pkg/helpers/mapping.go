package helpers

import (
	"fmt"

	"github.com/oksasatya/party-lifecycle/pkg/mailer"
	mailtpl "github.com/oksasatya/party-lifecycle/pkg/mailer/templates"
)

// TemplateForNotification maps a notification type to its email template.
// Unknown types map to "".
func TemplateForNotification(notificationType string) string {
	switch notificationType {
	case "archive-request":
		return mailtpl.ArchiveRequest
	case "archive-resolved":
		return mailtpl.ArchiveResolved
	case "analysis-rejected":
		return mailtpl.AnalysisRejected
	case "registration-rejected":
		return mailtpl.RegistrationRejected
	default:
		return ""
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
