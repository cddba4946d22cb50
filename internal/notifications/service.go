package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/bullpost/bullpost-client/internal/config"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service forwards reports and alerts via Teams and e-mail
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a schedule report via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(s.buildTeamsReport(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendReportEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert forwards an urgent notification to Teams
func (s *Service) SendAlert(alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Debugf("Alert not forwarded, no Teams webhook: %s", alert.Message)
		return nil
	}

	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   alert.Title,
		Text:    alert.Message,
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "Type", Value: alert.Type},
				{Name: "Raised", Value: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		}},
	}
	return s.postToTeams(message)
}

func (s *Service) postToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsReport(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("BullPost Schedule - %s", periodTitle(report.Period)),
		Text:    fmt.Sprintf("%d posts scheduled for %s", len(report.Scheduled), report.User),
	}

	facts := []TeamsFact{
		{Name: "Scheduled Posts", Value: fmt.Sprintf("%d", len(report.Scheduled))},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	for _, key := range sortedKeys(report.Summary) {
		facts = append(facts, TeamsFact{
			Name:  key,
			Value: fmt.Sprintf("%d", report.Summary[key]),
		})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Scheduled) > 0 {
		var upcoming []string
		limit := 5
		if len(report.Scheduled) < limit {
			limit = len(report.Scheduled)
		}

		for i := 0; i < limit; i++ {
			post := report.Scheduled[i]
			upcoming = append(upcoming, fmt.Sprintf("**%s** - %s", postTitle(post), scheduleLine(post)))
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Upcoming Posts",
			ActivityText:  strings.Join(upcoming, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendReportEmail(report *models.Report) error {
	subject := fmt.Sprintf("BullPost Schedule - %s (%d posts)",
		periodTitle(report.Period), len(report.Scheduled))

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>BullPost Schedule</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #1d1f2b; color: white; padding: 20px; border-radius: 5px; }
        .post { border-left: 4px solid #f5a623; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .post-meta { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="header">
        <h1>BullPost Schedule</h1>
        <p>{{.Period | title}} report for {{.User}}, generated {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM MST"}}</p>
    </div>

    {{if .Scheduled}}
    <h2>Upcoming Posts</h2>
    {{range $index, $post := .Scheduled}}
        {{if lt $index 10}}
        <div class="post">
            <strong>{{postTitle $post}}</strong>
            <div class="post-meta">{{scheduleLine $post}}</div>
        </div>
        {{end}}
    {{end}}
    {{else}}
    <p>Nothing is scheduled.</p>
    {{end}}
</body>
</html>
`

func buildEmailHTML(report *models.Report) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{
		"title":        periodTitle,
		"postTitle":    postTitle,
		"scheduleLine": scheduleLine,
	}).Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func buildEmailText(report *models.Report) string {
	var text strings.Builder

	fmt.Fprintf(&text, "BullPost Schedule - %s\n", periodTitle(report.Period))
	fmt.Fprintf(&text, "Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	if len(report.Scheduled) == 0 {
		text.WriteString("Nothing is scheduled.\n")
		return text.String()
	}

	text.WriteString("UPCOMING POSTS\n")
	text.WriteString("==============\n")
	for i, post := range report.Scheduled {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&text, "%d. %s\n   %s\n", i+1, postTitle(post), scheduleLine(post))
	}

	return text.String()
}

func periodTitle(period string) string {
	if period == "" {
		return ""
	}
	return strings.ToUpper(period[:1]) + period[1:]
}

func postTitle(post models.Post) string {
	if post.Title != "" {
		return post.Title
	}
	return "Untitled post " + post.ID
}

// scheduleLine lists each channel the post is due on
func scheduleLine(post models.Post) string {
	var parts []string
	for _, ch := range models.AllChannels {
		if at := post.ScheduledAt(ch); at != nil {
			parts = append(parts, fmt.Sprintf("%s at %s", ch.Title(), at.UTC().Format("Jan 2 15:04 UTC")))
		}
	}
	if len(parts) == 0 {
		return "no channel time set"
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
