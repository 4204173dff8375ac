package services

import (
	"fmt"
	"html/template"
	"strings"

	"conference-api/models"
)

type emailMetaItem struct {
	Label string
	Value string
}

func buildEmailHTML(subject string, paragraphs []string, meta []emailMetaItem, footer string) string {
	var contentBuilder strings.Builder
	for _, paragraph := range paragraphs {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}
		escaped := template.HTMLEscapeString(trimmed)
		escaped = strings.ReplaceAll(strings.ReplaceAll(escaped, "\r\n", "\n"), "\r", "\n")
		escaped = strings.ReplaceAll(escaped, "\n", "<br />")
		contentBuilder.WriteString(`<p style="margin:0 0 18px 0;line-height:1.7;word-break:break-word;">`)
		contentBuilder.WriteString(escaped)
		contentBuilder.WriteString(`</p>`)
	}

	metaSection := ""
	if len(meta) > 0 {
		var metaBuilder strings.Builder
		metaBuilder.WriteString(`<div style="margin:0 0 24px 0;">
<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="border:1px solid #e5e7eb;border-radius:12px;background-color:#f9fafb;">
<tbody>`)
		for i, row := range meta {
			border := "border-bottom:1px solid #e5e7eb;"
			if i == len(meta)-1 {
				border = ""
			}
			metaBuilder.WriteString(fmt.Sprintf(`<tr>
<td style="padding:12px 16px;font-size:13px;color:#6b7280;width:38%%;%s;word-break:break-word;">%s</td>
<td style="padding:12px 16px;font-size:15px;color:#111827;font-weight:600;%s;word-break:break-word;white-space:pre-wrap;">%s</td>
</tr>
`, border, template.HTMLEscapeString(row.Label), border, template.HTMLEscapeString(row.Value)))
		}
		metaBuilder.WriteString(`</tbody>
</table>
</div>`)
		metaSection = metaBuilder.String()
	}

	footerSection := ""
	if strings.TrimSpace(footer) != "" {
		footerSection = fmt.Sprintf(`<div style="color:#6b7280;font-size:13px;line-height:1.7;">%s</div>`,
			template.HTMLEscapeString(footer))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
<div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
<div style="text-align:center;">
<h1 style="margin:18px 0 0 0;font-size:22px;font-weight:700;color:#111827;line-height:1.35;word-break:break-word;">%s</h1>
</div>
<div style="margin-top:20px;color:#1f2937;font-size:16px;line-height:1.75;word-break:break-word;">
%s
</div>
%s
%s
</div>
</div>
</body>
</html>`, template.HTMLEscapeString(subject), template.HTMLEscapeString(subject),
		contentBuilder.String(), metaSection, footerSection)
}

// RenderDecisionEmail builds the subject and HTML body for a scheduled
// decision email.
func RenderDecisionEmail(email *models.ScheduledEmail, submission *models.Submission, speaker *models.User) (string, string) {
	greeting := fmt.Sprintf("Dear %s,", speaker.FullName())

	if email.EmailType == models.EmailTypeAcceptance {
		subject := fmt.Sprintf("Your talk \"%s\" has been accepted", submission.Title)
		paragraphs := []string{
			greeting,
			fmt.Sprintf("We are delighted to let you know that the committee has accepted your %s proposal \"%s\".", submission.SubmissionType, submission.Title),
		}
		if email.PersonalMessage != nil && strings.TrimSpace(*email.PersonalMessage) != "" {
			paragraphs = append(paragraphs, *email.PersonalMessage)
		}
		paragraphs = append(paragraphs, "We will follow up shortly with scheduling details. Congratulations, and thank you for submitting!")
		return subject, buildEmailHTML(subject, paragraphs, nil, "This message was sent by the programme committee.")
	}

	subject := fmt.Sprintf("Your proposal \"%s\" — committee decision", submission.Title)
	paragraphs := []string{
		greeting,
		fmt.Sprintf("Thank you for submitting \"%s\". After careful review, the committee was unable to include it in this year's programme.", submission.Title),
	}
	if email.IncludeFeedback && email.FeedbackText != nil && strings.TrimSpace(*email.FeedbackText) != "" {
		paragraphs = append(paragraphs, "The reviewers shared the following feedback:", *email.FeedbackText)
	}
	if email.PersonalMessage != nil && strings.TrimSpace(*email.PersonalMessage) != "" {
		paragraphs = append(paragraphs, *email.PersonalMessage)
	}

	var meta []emailMetaItem
	if email.CouponCode != nil {
		meta = append(meta, emailMetaItem{Label: "Ticket discount code", Value: *email.CouponCode})
		if email.CouponDiscountPercent != nil {
			meta = append(meta, emailMetaItem{Label: "Discount", Value: fmt.Sprintf("%d%%", *email.CouponDiscountPercent)})
		}
		if email.CouponValidityDays != nil {
			meta = append(meta, emailMetaItem{Label: "Valid for", Value: fmt.Sprintf("%d days", *email.CouponValidityDays)})
		}
		paragraphs = append(paragraphs, "We would still love to see you at the conference, so here is a personal ticket discount:")
	}

	return subject, buildEmailHTML(subject, paragraphs, meta, "This message was sent by the programme committee.")
}
