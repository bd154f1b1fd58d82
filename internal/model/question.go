package model

import "time"

// Question is one provisioned question of a session. Immutable once stored.
type Question struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	Order     int       `json:"order" bson:"order"`
	Text      string    `json:"text" bson:"text"`
	Category  string    `json:"category" bson:"category"`
	Tailored  bool      `json:"tailored" bson:"tailored"`
	Gentle    bool      `json:"gentle" bson:"gentle"`
	BankID    string    `json:"bankId,omitempty" bson:"bankId,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// BankItem is a candidate question in the fixed question bank
type BankItem struct {
	ID       string `json:"id" yaml:"id" bson:"_id"`
	Text     string `json:"text" yaml:"text" bson:"text"`
	Category string `json:"category" yaml:"category" bson:"category"`
	Gentle   bool   `json:"gentle" yaml:"gentle" bson:"gentle"`
}

// QuestionView is the client-facing shape of a question
type QuestionView struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Order    int    `json:"order"`
}

func (q *Question) View() QuestionView {
	return QuestionView{ID: q.ID, Text: q.Text, Category: q.Category, Order: q.Order}
}
