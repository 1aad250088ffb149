package limiter

import "time"

// Quota is the answer to a limit check for one conversation.
type Quota struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Total     int  `json:"total"`
}

// UsageRecord tracks consumed generations and granted bonus generations for
// one conversation id.
type UsageRecord struct {
	ChatID    string    `json:"chat_id"`
	Used      int       `json:"used"`
	Bonus     int       `json:"bonus"`
	UpdatedAt time.Time `json:"updated_at"`
}
