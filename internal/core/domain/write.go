package domain

// Write est une écriture en attente. Le service assemble la liste complète
// AVANT d'entrer dans la transaction ; le store l'applique d'un bloc
// (tout ou rien) sans aucune logique métier.
type Write interface {
	WriteKind() string
	sealed()
}

type InsertPost struct{ Post Post }

// DeletePost ne supprime que si AuthorID correspond (garde anti-course).
// Les enfants (comments, likes, notifications) partent en cascade.
type DeletePost struct {
	PostID   string
	AuthorID string
}

type InsertLike struct{ Like Like }

type DeleteLike struct {
	UserID string
	PostID string
}

type InsertFollow struct{ Follow Follow }

type DeleteFollow struct {
	FollowerID  string
	FollowingID string
}

type InsertComment struct{ Comment Comment }

type InsertNotification struct{ Notification Notification }

// MarkNotificationsRead : IDs vide = toute l'inbox du destinataire.
type MarkNotificationsRead struct {
	RecipientID string
	IDs         []string
}

func (InsertPost) WriteKind() string            { return "insert_post" }
func (DeletePost) WriteKind() string            { return "delete_post" }
func (InsertLike) WriteKind() string            { return "insert_like" }
func (DeleteLike) WriteKind() string            { return "delete_like" }
func (InsertFollow) WriteKind() string          { return "insert_follow" }
func (DeleteFollow) WriteKind() string          { return "delete_follow" }
func (InsertComment) WriteKind() string         { return "insert_comment" }
func (InsertNotification) WriteKind() string    { return "insert_notification" }
func (MarkNotificationsRead) WriteKind() string { return "mark_notifications_read" }

func (InsertPost) sealed()            {}
func (DeletePost) sealed()            {}
func (InsertLike) sealed()            {}
func (DeleteLike) sealed()            {}
func (InsertFollow) sealed()          {}
func (DeleteFollow) sealed()          {}
func (InsertComment) sealed()         {}
func (InsertNotification) sealed()    {}
func (MarkNotificationsRead) sealed() {}

// WriteKinds sert au logging / aux attributs de span.
func WriteKinds(writes []Write) []string {
	kinds := make([]string, len(writes))
	for i, w := range writes {
		kinds[i] = w.WriteKind()
	}
	return kinds
}
