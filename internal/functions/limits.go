package functions

// Limits are the default result counts and question_text budgets of the
// exam tools. Zero values fall back to DefaultLimits.
type Limits struct {
	SubjectLimit    int
	TopicLimit      int
	DifficultyLimit int
	FormLimit       int
	SearchLimit     int

	SubjectTextLen    int
	YearTextLen       int
	PaperTextLen      int
	TopicTextLen      int
	DifficultyTextLen int
	FormTextLen       int
	SearchTextLen     int
}

func DefaultLimits() Limits {
	return Limits{
		SubjectLimit:    20,
		TopicLimit:      15,
		DifficultyLimit: 15,
		FormLimit:       15,
		SearchLimit:     20,

		SubjectTextLen:    200,
		YearTextLen:       200,
		PaperTextLen:      300,
		TopicTextLen:      250,
		DifficultyTextLen: 250,
		FormTextLen:       250,
		SearchTextLen:     300,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	pick := func(v, def int) int {
		if v > 0 {
			return v
		}
		return def
	}

	return Limits{
		SubjectLimit:    pick(l.SubjectLimit, d.SubjectLimit),
		TopicLimit:      pick(l.TopicLimit, d.TopicLimit),
		DifficultyLimit: pick(l.DifficultyLimit, d.DifficultyLimit),
		FormLimit:       pick(l.FormLimit, d.FormLimit),
		SearchLimit:     pick(l.SearchLimit, d.SearchLimit),

		SubjectTextLen:    pick(l.SubjectTextLen, d.SubjectTextLen),
		YearTextLen:       pick(l.YearTextLen, d.YearTextLen),
		PaperTextLen:      pick(l.PaperTextLen, d.PaperTextLen),
		TopicTextLen:      pick(l.TopicTextLen, d.TopicTextLen),
		DifficultyTextLen: pick(l.DifficultyTextLen, d.DifficultyTextLen),
		FormTextLen:       pick(l.FormTextLen, d.FormTextLen),
		SearchTextLen:     pick(l.SearchTextLen, d.SearchTextLen),
	}
}
