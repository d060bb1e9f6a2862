package app

import "fmt"

// Notification templates. Plain HTML bodies; the mail client renders
// them, the dispatcher just carries them.

func welcomeSubject() string { return "Welcome aboard" }

func welcomeBody(display string, kickDays int) string {
	return fmt.Sprintf(
		"<html><body>"+
			"<p>Hi %s, your access is live.</p>"+
			"<p>One house rule: accounts with no activity for %d days are removed "+
			"automatically to make room for others. Watch something now and then "+
			"and you will never hear from me again.</p>"+
			"</body></html>",
		display, kickDays)
}

func warningSubject(daysLeft int) string {
	return fmt.Sprintf("Inactivity notice: %d days until removal", daysLeft)
}

func warningBody(display string, daysInactive, kickDays int) string {
	left := kickDays - daysInactive
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf(
		"<html><body>"+
			"<p>Hi %s, you have been inactive for %d days.</p>"+
			"<p>Accounts idle for %d days are removed automatically. You have "+
			"%d days left; watching anything resets the clock.</p>"+
			"</body></html>",
		display, daysInactive, kickDays, left)
}

func removalSubject() string { return "Your access has been removed" }

func removalBody(display string, daysInactive int) string {
	return fmt.Sprintf(
		"<html><body>"+
			"<p>Hi %s, your access was removed after %d days without activity.</p>"+
			"<p>Reply to this mail for a re-invite if there is room.</p>"+
			"</body></html>",
		display, daysInactive)
}

func adminSubject(event, display string) string {
	return fmt.Sprintf("[guardian] %s: %s", event, display)
}
