// Package smtp подключается к почтовому серверу по STARTTLS
// для писем сервиса рассылки.
package smtp

import "io"

// Client операции SMTP-сессии, нужные для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает SMTP-сессии от имени отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
