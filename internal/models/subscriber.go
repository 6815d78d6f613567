package models

import (
	"encoding/json"
	"time"
)

// SubscriberStatus состояние жизненного цикла подписчика рассылки.
type SubscriberStatus string

const (
	// SubscriberActive подписчик получает рассылку.
	SubscriberActive SubscriberStatus = "active"
	// SubscriberInactive подписчик отписался; запись сохраняется (мягкое удаление).
	SubscriberInactive SubscriberStatus = "inactive"
)

// Subscriber запись подписчика рассылки. Email уникален и сравнивается с учётом регистра.
type Subscriber struct {
	Email        string           `json:"email"`
	SubscribedAt time.Time        `json:"subscribed_at"`
	Status       SubscriberStatus `json:"status"`
}

// IsActive сообщает, активна ли подписка.
func (s Subscriber) IsActive() bool {
	return s.Status == SubscriberActive
}

// UnmarshalJSON принимает как текущий формат, так и старый,
// где состояние хранилось булевым полем active, а дата — в subscribedAt.
func (s *Subscriber) UnmarshalJSON(data []byte) error {
	var raw struct {
		Email           string           `json:"email"`
		SubscribedAt    *time.Time       `json:"subscribed_at"`
		LegacyCreatedAt *time.Time       `json:"subscribedAt"`
		Status          SubscriberStatus `json:"status"`
		Active          *bool            `json:"active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Email = raw.Email
	switch {
	case raw.SubscribedAt != nil:
		s.SubscribedAt = *raw.SubscribedAt
	case raw.LegacyCreatedAt != nil:
		s.SubscribedAt = *raw.LegacyCreatedAt
	}
	s.Status = raw.Status
	if s.Status == "" && raw.Active != nil {
		s.Status = SubscriberInactive
		if *raw.Active {
			s.Status = SubscriberActive
		}
	}
	return nil
}

// MonthCount количество подписчиков за календарный месяц.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// SubscriberStats сводная статистика рассылки.
// Monthly содержит ключи вида "YYYY-M" за текущий и пять предыдущих месяцев,
// Series — те же значения в хронологическом порядке.
type SubscriberStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	Monthly  map[string]int `json:"monthly"`
	Series   []MonthCount   `json:"series"`
}
