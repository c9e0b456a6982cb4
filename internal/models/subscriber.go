package models

import "time"

type Subscriber struct {
	SubscriberID string    `json:"subscriber_id"`
	Email        string    `json:"email"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	SessionID string    `json:"session_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ServiceStat struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Count   int    `json:"count"`
}
