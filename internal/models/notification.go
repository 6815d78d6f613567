package models

// Варианты отображения уведомлений.
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notification уведомление для пользователя, которое показывает клиент.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}
