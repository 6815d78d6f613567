// Package rabbitmq содержит подключение к RabbitMQ, объявление топологии
// событий витрины, публикацию и потребление сообщений.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, повторяя попытку retries раз с паузой delay.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	if retries < 1 {
		retries = 1
	}
	for attempt := range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if attempt < retries-1 {
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}
