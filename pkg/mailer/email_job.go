package mailer

// EmailJob is one rendered-or-renderable email produced by the notification worker.
// Html is optional; Text is recommended as fallback.
// You can also use a template by specifying Template and Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "archive_request", "analysis_rejected"
	Data     map[string]any `json:"data,omitempty"`
}
