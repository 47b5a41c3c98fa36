package domain

import "time"

type NotificationType string

const (
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
	NotificationFollow  NotificationType = "FOLLOW"
)

// Notification est append-only. RecipientID reçoit, ActorID a agi.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	ActorID     string
	PostID      string // vide si aucune référence
	CommentID   string
	Read        bool
	CreatedAt   time.Time
}

// NotificationView est l'entrée d'inbox enrichie pour l'affichage.
type NotificationView struct {
	Notification
	Actor   UserSummary
	Post    *PostPreview
	Comment *CommentPreview
}

type PostPreview struct {
	ID      string
	Content string
	Image   string
}

type CommentPreview struct {
	ID        string
	Content   string
	CreatedAt time.Time
}

// EngagementEvent décrit l'action qui peut déclencher une notification.
type EngagementEvent struct {
	Type        NotificationType
	ActorID     string
	RecipientID string
	PostID      string
	CommentID   string
}

// EmitNotification dérive l'écriture de notification associée à un événement.
// Renvoie false quand l'acteur est aussi le destinataire : on ne se notifie
// jamais soi-même.
func EmitNotification(evt EngagementEvent, id string, now time.Time) (Write, bool) {
	if evt.ActorID == "" || evt.RecipientID == "" || evt.ActorID == evt.RecipientID {
		return nil, false
	}
	return InsertNotification{Notification: Notification{
		ID:          id,
		Type:        evt.Type,
		RecipientID: evt.RecipientID,
		ActorID:     evt.ActorID,
		PostID:      evt.PostID,
		CommentID:   evt.CommentID,
		CreatedAt:   now.UTC(),
	}}, true
}
