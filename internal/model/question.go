package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuestionPart is a lettered sub-question such as (a) or (b)(ii).
type QuestionPart struct {
	Label string `json:"label" bson:"label"`
	Text  string `json:"text" bson:"text"`
	Marks int    `json:"marks,omitempty" bson:"marks,omitempty"`
}

// QuestionBody is the question stem plus its parts.
type QuestionBody struct {
	Text  string         `json:"text" bson:"text"`
	Parts []QuestionPart `json:"parts,omitempty" bson:"parts,omitempty"`
	Type  string         `json:"type,omitempty" bson:"type,omitempty"`
}

// Answer is the marking-scheme answer with optional worked steps.
type Answer struct {
	Text  string `json:"text" bson:"text"`
	Steps string `json:"steps,omitempty" bson:"steps,omitempty"`
}

// Question is one stored exam question, as kept in its subject collection.
type Question struct {
	ID             string       `json:"id" bson:"id"`
	Subject        string       `json:"subject" bson:"subject"`
	Paper          string       `json:"paper" bson:"paper"`
	Year           int          `json:"year" bson:"year"`
	QuestionNumber int          `json:"question_number" bson:"question_number"`
	Form           int          `json:"form,omitempty" bson:"form,omitempty"`
	Difficulty     Difficulty   `json:"difficulty,omitempty" bson:"difficulty,omitempty"`
	Topic          string       `json:"topic,omitempty" bson:"topic,omitempty"`
	Marks          int          `json:"marks,omitempty" bson:"marks,omitempty"`
	Question       QuestionBody `json:"question" bson:"question"`
	Options        []string     `json:"options,omitempty" bson:"options,omitempty"`
	Answer         *Answer      `json:"answer,omitempty" bson:"answer,omitempty"`
	ImageURL       string       `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Source         string       `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt      *time.Time   `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// DifficultyBreakdown counts questions per difficulty.
type DifficultyBreakdown struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// SubjectStats summarizes one subject collection.
type SubjectStats struct {
	TotalQuestions int                 `json:"totalQuestions"`
	Years          []int               `json:"years"`
	Papers         []string            `json:"papers"`
	Topics         []string            `json:"topics"`
	Difficulties   DifficultyBreakdown `json:"difficulties"`
}

// CollectionName maps a subject name to its collection.
func CollectionName(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// DisplayName renders a collection name for people, e.g. "mathematics" -> "Mathematics".
func DisplayName(subject string) string {
	words := strings.FieldsFunc(subject, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
