package functions

import "github.com/kmf-ai/server/internal/model"

// QuestionSummary is the compact listing form of a question. question_text
// is cut to the calling tool's budget.
type QuestionSummary struct {
	ID             string           `json:"id"`
	Subject        string           `json:"subject"`
	Year           int              `json:"year"`
	Paper          string           `json:"paper"`
	QuestionNumber int              `json:"question_number"`
	Topic          string           `json:"topic"`
	Difficulty     model.Difficulty `json:"difficulty"`
	Marks          int              `json:"marks"`
	QuestionText   string           `json:"question_text"`
	HasImage       bool             `json:"has_image"`
	ImageURL       string           `json:"image_url,omitempty"`
}

// CompleteQuestion is the untruncated form returned by get_complete_question.
type CompleteQuestion struct {
	ID             string             `json:"id"`
	Subject        string             `json:"subject"`
	Year           int                `json:"year"`
	Paper          string             `json:"paper"`
	QuestionNumber int                `json:"question_number"`
	Form           int                `json:"form,omitempty"`
	Difficulty     model.Difficulty   `json:"difficulty"`
	Topic          string             `json:"topic"`
	Marks          int                `json:"marks"`
	Question       model.QuestionBody `json:"question"`
	Options        []string           `json:"options,omitempty"`
	Answer         *model.Answer      `json:"answer,omitempty"`
	Source         string             `json:"source,omitempty"`
	ImageURL       string             `json:"image_url,omitempty"`
}

func summarize(questions []model.Question, textLen int) []QuestionSummary {
	out := make([]QuestionSummary, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionSummary{
			ID:             q.ID,
			Subject:        q.Subject,
			Year:           q.Year,
			Paper:          q.Paper,
			QuestionNumber: q.QuestionNumber,
			Topic:          q.Topic,
			Difficulty:     q.Difficulty,
			Marks:          q.Marks,
			QuestionText:   truncate(q.Question.Text, textLen),
			HasImage:       q.ImageURL != "",
			ImageURL:       q.ImageURL,
		})
	}
	return out
}

func complete(q *model.Question) CompleteQuestion {
	return CompleteQuestion{
		ID:             q.ID,
		Subject:        q.Subject,
		Year:           q.Year,
		Paper:          q.Paper,
		QuestionNumber: q.QuestionNumber,
		Form:           q.Form,
		Difficulty:     q.Difficulty,
		Topic:          q.Topic,
		Marks:          q.Marks,
		Question:       q.Question,
		Options:        q.Options,
		Answer:         q.Answer,
		Source:         q.Source,
		ImageURL:       q.ImageURL,
	}
}

// truncate cuts s to n runes and marks the cut with "...". n <= 0 disables it.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}

// head returns at most n questions.
func head(questions []model.Question, n int) []model.Question {
	if n > 0 && len(questions) > n {
		return questions[:n]
	}
	return questions
}
