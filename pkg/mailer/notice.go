package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const noticeDateLayout = "Monday, January 2, 2006"

// AttendanceNotice describes one attendance event to report to a student.
type AttendanceNotice struct {
	Email       string
	StudentName string
	Date        time.Time
	Status      string
	IsUpdate    bool
}

var noticeTemplate = template.Must(template.New("notice").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px;">
  <h2 style="color: #333; text-align: center; border-bottom: 2px solid #eee; padding-bottom: 10px;">{{.Title}}</h2>
  <p>Dear <strong>{{.Name}}</strong>,</p>
  <p>{{if .IsUpdate}}Your attendance record has been <strong>updated</strong> to{{else}}Your attendance has been marked as{{end}} <strong style="color: {{.Color}};">{{.Status}}</strong> for <strong>{{.Date}}</strong>.</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p style="margin: 5px 0;"><strong>Student:</strong> {{.Name}}</p>
    <p style="margin: 5px 0;"><strong>Date:</strong> {{.Date}}</p>
    <p style="margin: 5px 0;"><strong>{{.StatusLabel}}:</strong> {{.Status}}</p>
  </div>
  <p>If you believe there is an error in this record, please contact the administration office.</p>
  <p style="margin-top: 30px;">Regards,<br>Student Attendance System</p>
  <div style="text-align: center; margin-top: 30px; padding-top: 15px; border-top: 1px solid #eee; color: #777; font-size: 12px;">
    <p>This is an automated message. Please do not reply to this email.</p>
  </div>
</div>`))

type noticeView struct {
	Title       string
	Name        string
	Status      string
	StatusLabel string
	Color       string
	Date        string
	IsUpdate    bool
}

// Compose renders the subject and HTML body for a notice.
func Compose(n AttendanceNotice) (Message, error) {
	date := n.Date.UTC().Format(noticeDateLayout)
	status := capitalize(n.Status)

	view := noticeView{
		Title:       "Attendance Notification",
		Name:        n.StudentName,
		Status:      status,
		StatusLabel: "Status",
		Color:       statusColor(n.Status),
		Date:        date,
		IsUpdate:    n.IsUpdate,
	}
	subject := fmt.Sprintf("Attendance Marked: %s on %s", status, date)
	if n.IsUpdate {
		view.Title = "Attendance Update Notification"
		view.StatusLabel = "Updated Status"
		subject = fmt.Sprintf("Attendance Updated: %s on %s", status, date)
	}

	var body bytes.Buffer
	if err := noticeTemplate.Execute(&body, view); err != nil {
		return Message{}, fmt.Errorf("render attendance notice: %w", err)
	}
	return Message{To: n.Email, Subject: subject, HTML: body.String()}, nil
}

// Notifier renders attendance notices and hands them to a Sender.
type Notifier struct {
	sender Sender
}

// NewNotifier wraps sender.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// Notify composes and sends one notice.
func (n *Notifier) Notify(ctx context.Context, notice AttendanceNotice) error {
	msg, err := Compose(notice)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

func statusColor(status string) string {
	switch status {
	case "present":
		return "green"
	case "absent":
		return "red"
	default:
		return "orange"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
