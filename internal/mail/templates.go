package mail

import (
	"fmt"
	"html"
)

// layout wraps the message body in the shared transactional shell.
func layout(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif;background:#f4f4f5;margin:0;padding:24px">
<div style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:8px;padding:32px">
<h1 style="font-size:20px;margin-top:0">%s</h1>
%s
<p style="color:#71717a;font-size:12px;margin-bottom:0">MatScout &middot; this is an automated message, replies are not monitored.</p>
</div>
</body>
</html>`, html.EscapeString(title), body)
}

func button(label, url string) string {
	return fmt.Sprintf(`<p><a href="%s" style="display:inline-block;background:#1d4ed8;color:#ffffff;text-decoration:none;padding:10px 20px;border-radius:6px">%s</a></p>`,
		html.EscapeString(url), html.EscapeString(label))
}

func paragraph(text string) string {
	return "<p>" + html.EscapeString(text) + "</p>"
}

func ComposeWelcome(to, userID, firstName string) Email {
	name := firstName
	if name == "" {
		name = "there"
	}
	return Email{
		To:      to,
		Kind:    KindWelcome,
		UserID:  userID,
		Subject: "Welcome to MatScout",
		HTML: layout("Welcome to MatScout",
			paragraph(fmt.Sprintf("Hi %s, your account is ready.", name))+
				paragraph("Create a team, log your sessions, and start tracking match reports.")),
	}
}

func ComposeVerification(to, userID, verifyURL string) Email {
	return Email{
		To:      to,
		Kind:    KindVerification,
		UserID:  userID,
		Subject: "Verify your MatScout email",
		HTML: layout("Verify your email",
			paragraph("Confirm this address to activate your account. The link expires in 24 hours.")+
				button("Verify email", verifyURL)),
	}
}

func ComposePasswordReset(to, userID, resetURL string) Email {
	return Email{
		To:      to,
		Kind:    KindPasswordReset,
		UserID:  userID,
		Subject: "Reset your MatScout password",
		HTML: layout("Reset your password",
			paragraph("Someone requested a password reset for this account. If it was not you, ignore this email.")+
				button("Choose a new password", resetURL)),
	}
}

func ComposeJoinRequest(to, userID, teamID, requesterName, teamName, manageURL string) Email {
	return Email{
		To:      to,
		Kind:    KindJoinRequest,
		UserID:  userID,
		TeamID:  teamID,
		Subject: fmt.Sprintf("%s wants to join %s", requesterName, teamName),
		HTML: layout("New join request",
			paragraph(fmt.Sprintf("%s asked to join %s.", requesterName, teamName))+
				button("Review request", manageURL)),
	}
}

func ComposeJoinApproved(to, userID, teamID, teamName, teamURL string) Email {
	return Email{
		To:      to,
		Kind:    KindJoinApproved,
		UserID:  userID,
		TeamID:  teamID,
		Subject: fmt.Sprintf("You're in: %s", teamName),
		HTML: layout("Request approved",
			paragraph(fmt.Sprintf("Your request to join %s was approved.", teamName))+
				button("Open team", teamURL)),
	}
}
