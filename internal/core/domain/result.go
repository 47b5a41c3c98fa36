package domain

// Failure est la forme "soft-fail" renvoyée au client : jamais de panic,
// juste un message affichable (toast côté UI).
type Failure struct {
	Kind    Kind
	Message string
}

// Result est le type de retour de toutes les opérations d'engagement.
// Success=false + Failure remplace la propagation d'erreur.
type Result[T any] struct {
	Success bool
	Value   T
	Failure *Failure
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Success: true, Value: value}
}

func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{Failure: &Failure{Kind: kind, Message: message}}
}

// Unauthenticated indique un no-op silencieux (aucun utilisateur local résolu).
func (r Result[T]) Unauthenticated() bool {
	return r.Failure != nil && r.Failure.Kind == KindUnauthenticated
}

// ErrorMessage renvoie "" en cas de succès.
func (r Result[T]) ErrorMessage() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Message
}
