package domain

// NotificationKind identifies which lifecycle event a notification is for.
type NotificationKind string

const (
	NotifyWelcome NotificationKind = "welcome"
	NotifyWarning NotificationKind = "warning"
	NotifyRemoval NotificationKind = "removal"
	NotifyAdmin   NotificationKind = "admin"
)

// Action is a side effect computed by a lifecycle scan. Scans are pure;
// the daemon applies actions afterwards so the decision logic stays
// testable without I/O.
type Action interface {
	isAction()
}

// SendNotification asks the daemon to queue a notification.
type SendNotification struct {
	Kind      NotificationKind
	Recipient string
	UserID    string
	Display   string
	// DaysInactive is set for warning notifications so the message can
	// say how long the user has been idle.
	DaysInactive int
}

func (SendNotification) isAction() {}

// CallRemove asks the daemon to remove the user from the external
// service. The removal outcome is recorded by the daemon, not the scan,
// because success depends on the provider call.
type CallRemove struct {
	UserID       string
	Display      string
	Email        string
	DaysInactive int
}

func (CallRemove) isAction() {}
