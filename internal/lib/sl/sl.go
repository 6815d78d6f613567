// Package sl содержит вспомогательные функции для работы с логгером slog:
// единообразные атрибуты для ошибок, устройств и операций, а также
// построение корневого логгера в зависимости от окружения.
package sl

import (
	"io"
	"log/slog"
)

// Окружения, влияющие на формат и уровень логов.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil возвращается пустая строка, чтобы логирование не паниковало.
//
// Пример:
//
//	log.Error("failed to save cart", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Device возвращает атрибут с идентификатором клиентского устройства.
func Device(id string) slog.Attr {
	return slog.String("device_id", id)
}

// Op возвращает атрибут с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// New создаёт логгер для окружения env: текстовый вывод для local,
// JSON с уровнем debug для dev и JSON с уровнем info для prod.
// Неизвестное окружение трактуется как prod.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

// Discard возвращает логгер, который ничего не пишет. Используется в тестах.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}
