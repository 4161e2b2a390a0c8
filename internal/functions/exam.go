package functions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kmf-ai/server/internal/model"
	"github.com/kmf-ai/server/internal/repository"
)

// Exam tool names.
const (
	ListSubjects             = "list_subjects"
	GetSubjectOverview       = "get_subject_overview"
	GetQuestionsBySubject    = "get_questions_by_subject"
	GetQuestionsByYear       = "get_questions_by_year"
	GetQuestionsByPaper      = "get_questions_by_paper"
	GetQuestionsByTopic      = "get_questions_by_topic"
	GetQuestionsByDifficulty = "get_questions_by_difficulty"
	GetQuestionsByForm       = "get_questions_by_form"
	SearchQuestions          = "search_questions"
	GetCompleteQuestion      = "get_complete_question"
	GetAvailableYears        = "get_available_years"
	GetAvailablePapers       = "get_available_papers"
	GetTopics                = "get_topics"
)

const (
	allSubjects             = "all subjects"
	questionNotFoundMessage = "Question not found: %s"
)

type noArgs struct{}

type subjectArgs struct {
	Subject string `json:"subject" jsonschema:"description=Subject name (e.g. mathematics or english or chemistry)"`
}

func (a *subjectArgs) Validate() error {
	return requireSubject(a.Subject)
}

type subjectLimitArgs struct {
	Subject string `json:"subject" jsonschema:"description=Subject name (e.g. mathematics or english or chemistry)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"description=Maximum number of questions to return,minimum=1"`
}

func (a *subjectLimitArgs) Validate() error {
	return errors.Join(requireSubject(a.Subject), checkLimit(a.Limit))
}

type yearArgs struct {
	Subject string `json:"subject" jsonschema:"description=Subject name"`
	Year    int    `json:"year" jsonschema:"description=Exam year (e.g. 2022 or 2023)"`
}

func (a *yearArgs) Validate() error {
	return errors.Join(requireSubject(a.Subject), checkYear(a.Year))
}

type paperArgs struct {
	Subject string `json:"subject" jsonschema:"description=Subject name"`
	Year    int    `json:"year" jsonschema:"description=Exam year"`
	Paper   string `json:"paper" jsonschema:"description=Paper name (e.g. 'Paper 1' or 'Paper 2')"`
}

func (a *paperArgs) Validate() error {
	var paperErr error
	if strings.TrimSpace(a.Paper) == "" {
		paperErr = fmt.Errorf("paper must not be empty")
	}
	return errors.Join(requireSubject(a.Subject), checkYear(a.Year), paperErr)
}

type topicArgs struct {
	Subject string `json:"subject" jsonschema:"description=Subject name"`
	Topic   string `json:"topic" jsonschema:"description=Topic name or keyword"`
	Limit   int    `json:"limit,omitempty" jsonschema:"description=Maximum number of questions to return,minimum=1"`
}

func (a *topicArgs) Validate() error {
	var topicErr error
	if strings.TrimSpace(a.Topic) == "" {
		topicErr = fmt.Errorf("topic must not be empty")
	}
	return errors.Join(requireSubject(a.Subject), topicErr, checkLimit(a.Limit))
}

type difficultyArgs struct {
	Subject    string `json:"subject" jsonschema:"description=Subject name"`
	Difficulty string `json:"difficulty" jsonschema:"description=Difficulty level,enum=easy,enum=medium,enum=hard"`
	Limit      int    `json:"limit,omitempty" jsonschema:"description=Maximum number of questions to return,minimum=1"`
}

func (a *difficultyArgs) Validate() error {
	var difficultyErr error
	if !model.Difficulty(a.Difficulty).Valid() {
		difficultyErr = fmt.Errorf("difficulty must be easy, medium or hard")
	}
	return errors.Join(requireSubject(a.Subject), difficultyErr, checkLimit(a.Limit))
}

type formArgs struct {
	Subject string `json:"subject" jsonschema:"description=Subject name"`
	Form    int    `json:"form" jsonschema:"description=Form level (1 2 3 or 4),minimum=1,maximum=4"`
	Limit   int    `json:"limit,omitempty" jsonschema:"description=Maximum number of questions to return,minimum=1"`
}

func (a *formArgs) Validate() error {
	var formErr error
	if a.Form < 1 || a.Form > 4 {
		formErr = fmt.Errorf("form must be between 1 and 4, got %d", a.Form)
	}
	return errors.Join(requireSubject(a.Subject), formErr, checkLimit(a.Limit))
}

type searchArgs struct {
	Query   string `json:"query" jsonschema:"description=Search keywords or phrase"`
	Subject string `json:"subject,omitempty" jsonschema:"description=Specific subject to search within (optional)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results to return,minimum=1"`
}

func (a *searchArgs) Validate() error {
	var queryErr error
	if strings.TrimSpace(a.Query) == "" {
		queryErr = fmt.Errorf("query must not be empty")
	}
	return errors.Join(queryErr, checkLimit(a.Limit))
}

type questionIDArgs struct {
	QuestionID string `json:"question_id" jsonschema:"description=Unique question ID"`
}

func (a *questionIDArgs) Validate() error {
	if strings.TrimSpace(a.QuestionID) == "" {
		return fmt.Errorf("question_id must not be empty")
	}
	return nil
}

func requireSubject(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("subject must not be empty")
	}
	return nil
}

func checkLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	return nil
}

func checkYear(year int) error {
	if year <= 0 {
		return fmt.Errorf("year must be positive, got %d", year)
	}
	return nil
}

func orDefault(limit, def int) int {
	if limit > 0 {
		return limit
	}
	return def
}

type subjectEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type subjectsPayload struct {
	Subjects []subjectEntry `json:"subjects"`
}

type overviewPayload struct {
	Subject  string             `json:"subject"`
	Overview model.SubjectStats `json:"overview"`
}

type subjectQuestionsPayload struct {
	Subject        string            `json:"subject"`
	TotalQuestions int               `json:"total_questions"`
	Questions      []QuestionSummary `json:"questions"`
}

type yearQuestionsPayload struct {
	Subject   string            `json:"subject"`
	Year      int               `json:"year"`
	Questions []QuestionSummary `json:"questions"`
}

type paperQuestionsPayload struct {
	Subject   string            `json:"subject"`
	Year      int               `json:"year"`
	Paper     string            `json:"paper"`
	Questions []QuestionSummary `json:"questions"`
}

type topicQuestionsPayload struct {
	Subject    string            `json:"subject"`
	Topic      string            `json:"topic"`
	TotalFound int               `json:"total_found"`
	Questions  []QuestionSummary `json:"questions"`
}

type difficultyQuestionsPayload struct {
	Subject    string            `json:"subject"`
	Difficulty string            `json:"difficulty"`
	TotalFound int               `json:"total_found"`
	Questions  []QuestionSummary `json:"questions"`
}

type formQuestionsPayload struct {
	Subject    string            `json:"subject"`
	Form       int               `json:"form"`
	TotalFound int               `json:"total_found"`
	Questions  []QuestionSummary `json:"questions"`
}

type searchPayload struct {
	Query      string            `json:"query"`
	Subject    string            `json:"subject"`
	TotalFound int               `json:"total_found"`
	Questions  []QuestionSummary `json:"questions"`
}

type completeQuestionPayload struct {
	Question CompleteQuestion `json:"question"`
}

type notFoundPayload struct {
	Error string `json:"error"`
}

type yearsPayload struct {
	Subject        string `json:"subject"`
	AvailableYears []int  `json:"available_years"`
}

type papersPayload struct {
	Subject         string   `json:"subject"`
	Year            int      `json:"year"`
	AvailablePapers []string `json:"available_papers"`
}

type topicsPayload struct {
	Subject string   `json:"subject"`
	Topics  []string `json:"topics"`
}

// ExamTools are the read-only question bank tools exposed to the model.
type ExamTools struct {
	store  repository.QuestionRepository
	limits Limits
}

func NewExamTools(store repository.QuestionRepository, limits Limits) *ExamTools {
	return &ExamTools{store: store, limits: limits.withDefaults()}
}

// NewExamRegistry returns a registry holding the exam tools, in the order
// they are offered to the model.
func NewExamRegistry(store repository.QuestionRepository, limits Limits) (*Registry, error) {
	r := NewRegistry()
	if err := NewExamTools(store, limits).Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds every exam tool to r.
func (t *ExamTools) Register(r *Registry) error {
	declarations, err := t.Declarations()
	if err != nil {
		return err
	}

	for _, fd := range declarations {
		if err := r.AddFunctionCall(fd); err != nil {
			return err
		}
	}

	return nil
}

func (t *ExamTools) Declarations() ([]*FunctionDeclaration, error) {
	var errs []error
	collect := func(fd *FunctionDeclaration, err error) *FunctionDeclaration {
		errs = append(errs, err)
		return fd
	}

	declarations := []*FunctionDeclaration{
		collect(Typed(ListSubjects,
			"List all available KCSE subjects in the database.",
			"Loading available KCSE subjects...",
			t.listSubjects)),
		collect(Typed(GetSubjectOverview,
			"Get comprehensive statistics and overview for a specific KCSE subject.",
			"Gathering subject statistics...",
			t.subjectOverview)),
		collect(Typed(GetQuestionsBySubject,
			"Get all exam questions for a specific KCSE subject.",
			"Fetching questions for subject...",
			t.questionsBySubject)),
		collect(Typed(GetQuestionsByYear,
			"Get all exam questions for a specific subject and year.",
			"Loading questions by year...",
			t.questionsByYear)),
		collect(Typed(GetQuestionsByPaper,
			"Get all exam questions for a specific subject, year, and paper.",
			"Retrieving paper questions...",
			t.questionsByPaper)),
		collect(Typed(GetQuestionsByTopic,
			"Get all exam questions for a specific topic within a subject.",
			"Finding topic-specific questions...",
			t.questionsByTopic)),
		collect(Typed(GetQuestionsByDifficulty,
			"Get exam questions filtered by difficulty level for a specific subject.",
			"Filtering questions by difficulty...",
			t.questionsByDifficulty)),
		collect(Typed(GetQuestionsByForm,
			"Get exam questions for a specific form level within a subject.",
			"Loading questions for form level...",
			t.questionsByForm)),
		collect(Typed(SearchQuestions,
			"Search for exam questions by keywords in question text, answers, or topics. Can search across all subjects or within a specific subject.",
			"Searching through exam questions...",
			t.searchQuestions)),
		collect(Typed(GetCompleteQuestion,
			"Get a specific exam question with its complete details including the full answer and solution steps.",
			"Loading complete question with solution...",
			t.completeQuestion)),
		collect(Typed(GetAvailableYears,
			"Get all available exam years for a specific subject.",
			"Checking available exam years...",
			t.availableYears)),
		collect(Typed(GetAvailablePapers,
			"Get all available papers for a specific subject and year.",
			"Checking available papers...",
			t.availablePapers)),
		collect(Typed(GetTopics,
			"Get all available topics for a specific subject.",
			"Listing subject topics...",
			t.topics)),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	defaults := map[string]int{
		GetQuestionsBySubject:    t.limits.SubjectLimit,
		GetQuestionsByTopic:      t.limits.TopicLimit,
		GetQuestionsByDifficulty: t.limits.DifficultyLimit,
		GetQuestionsByForm:       t.limits.FormLimit,
		SearchQuestions:          t.limits.SearchLimit,
	}
	for _, fd := range declarations {
		if def, ok := defaults[fd.Name]; ok {
			setDefault(fd.ParametersSchema, "limit", def)
		}
	}

	return declarations, nil
}

// setDefault records a default in the property schema and its description.
func setDefault(schema map[string]any, property string, value int) {
	props, _ := schema["properties"].(map[string]any)
	prop, ok := props[property].(map[string]any)
	if !ok {
		return
	}

	prop["default"] = value
	if desc, ok := prop["description"].(string); ok {
		prop["description"] = fmt.Sprintf("%s (default: %d)", desc, value)
	}
}

func (t *ExamTools) listSubjects(ctx context.Context, _ noArgs) (any, error) {
	subjects, err := t.store.Subjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch subjects: %w", err)
	}

	entries := make([]subjectEntry, 0, len(subjects))
	for _, s := range subjects {
		entries = append(entries, subjectEntry{Name: s, DisplayName: model.DisplayName(s)})
	}

	return subjectsPayload{Subjects: entries}, nil
}

func (t *ExamTools) subjectOverview(ctx context.Context, args subjectArgs) (any, error) {
	stats, err := t.store.Stats(ctx, args.Subject)
	if err != nil {
		return nil, fmt.Errorf("fetch overview for %s: %w", args.Subject, err)
	}

	return overviewPayload{Subject: args.Subject, Overview: stats}, nil
}

func (t *ExamTools) questionsBySubject(ctx context.Context, args subjectLimitArgs) (any, error) {
	questions, err := t.store.BySubject(ctx, args.Subject)
	if err != nil {
		return nil, fmt.Errorf("fetch questions for %s: %w", args.Subject, err)
	}

	limit := orDefault(args.Limit, t.limits.SubjectLimit)
	return subjectQuestionsPayload{
		Subject:        args.Subject,
		TotalQuestions: len(questions),
		Questions:      summarize(head(questions, limit), t.limits.SubjectTextLen),
	}, nil
}

func (t *ExamTools) questionsByYear(ctx context.Context, args yearArgs) (any, error) {
	questions, err := t.store.BySubjectAndYear(ctx, args.Subject, args.Year)
	if err != nil {
		return nil, fmt.Errorf("fetch questions for %s %d: %w", args.Subject, args.Year, err)
	}

	return yearQuestionsPayload{
		Subject:   args.Subject,
		Year:      args.Year,
		Questions: summarize(questions, t.limits.YearTextLen),
	}, nil
}

func (t *ExamTools) questionsByPaper(ctx context.Context, args paperArgs) (any, error) {
	questions, err := t.store.BySubjectYearPaper(ctx, args.Subject, args.Year, args.Paper)
	if err != nil {
		return nil, fmt.Errorf("fetch questions for %s %d %s: %w", args.Subject, args.Year, args.Paper, err)
	}

	return paperQuestionsPayload{
		Subject:   args.Subject,
		Year:      args.Year,
		Paper:     args.Paper,
		Questions: summarize(questions, t.limits.PaperTextLen),
	}, nil
}

func (t *ExamTools) questionsByTopic(ctx context.Context, args topicArgs) (any, error) {
	questions, err := t.store.ByTopic(ctx, args.Subject, args.Topic)
	if err != nil {
		return nil, fmt.Errorf("fetch questions for topic %s: %w", args.Topic, err)
	}

	limit := orDefault(args.Limit, t.limits.TopicLimit)
	return topicQuestionsPayload{
		Subject:    args.Subject,
		Topic:      args.Topic,
		TotalFound: len(questions),
		Questions:  summarize(head(questions, limit), t.limits.TopicTextLen),
	}, nil
}

func (t *ExamTools) questionsByDifficulty(ctx context.Context, args difficultyArgs) (any, error) {
	questions, err := t.store.ByDifficulty(ctx, args.Subject, model.Difficulty(args.Difficulty))
	if err != nil {
		return nil, fmt.Errorf("fetch %s questions for %s: %w", args.Difficulty, args.Subject, err)
	}

	limit := orDefault(args.Limit, t.limits.DifficultyLimit)
	return difficultyQuestionsPayload{
		Subject:    args.Subject,
		Difficulty: args.Difficulty,
		TotalFound: len(questions),
		Questions:  summarize(head(questions, limit), t.limits.DifficultyTextLen),
	}, nil
}

func (t *ExamTools) questionsByForm(ctx context.Context, args formArgs) (any, error) {
	questions, err := t.store.ByForm(ctx, args.Subject, args.Form)
	if err != nil {
		return nil, fmt.Errorf("fetch form %d questions for %s: %w", args.Form, args.Subject, err)
	}

	limit := orDefault(args.Limit, t.limits.FormLimit)
	return formQuestionsPayload{
		Subject:    args.Subject,
		Form:       args.Form,
		TotalFound: len(questions),
		Questions:  summarize(head(questions, limit), t.limits.FormTextLen),
	}, nil
}

func (t *ExamTools) searchQuestions(ctx context.Context, args searchArgs) (any, error) {
	questions, err := t.store.Search(ctx, args.Query, args.Subject)
	if err != nil {
		return nil, fmt.Errorf("search questions for %q: %w", args.Query, err)
	}

	subject := args.Subject
	if subject == "" {
		subject = allSubjects
	}

	limit := orDefault(args.Limit, t.limits.SearchLimit)
	return searchPayload{
		Query:      args.Query,
		Subject:    subject,
		TotalFound: len(questions),
		Questions:  summarize(head(questions, limit), t.limits.SearchTextLen),
	}, nil
}

func (t *ExamTools) completeQuestion(ctx context.Context, args questionIDArgs) (any, error) {
	question, err := t.store.ByID(ctx, args.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("fetch question %s: %w", args.QuestionID, err)
	}

	if question == nil {
		return notFoundPayload{Error: fmt.Sprintf(questionNotFoundMessage, args.QuestionID)}, nil
	}

	return completeQuestionPayload{Question: complete(question)}, nil
}

func (t *ExamTools) availableYears(ctx context.Context, args subjectArgs) (any, error) {
	years, err := t.store.Years(ctx, args.Subject)
	if err != nil {
		return nil, fmt.Errorf("fetch years for %s: %w", args.Subject, err)
	}

	return yearsPayload{Subject: args.Subject, AvailableYears: years}, nil
}

func (t *ExamTools) availablePapers(ctx context.Context, args yearArgs) (any, error) {
	papers, err := t.store.Papers(ctx, args.Subject, args.Year)
	if err != nil {
		return nil, fmt.Errorf("fetch papers for %s %d: %w", args.Subject, args.Year, err)
	}

	return papersPayload{Subject: args.Subject, Year: args.Year, AvailablePapers: papers}, nil
}

func (t *ExamTools) topics(ctx context.Context, args subjectArgs) (any, error) {
	topics, err := t.store.Topics(ctx, args.Subject)
	if err != nil {
		return nil, fmt.Errorf("fetch topics for %s: %w", args.Subject, err)
	}

	return topicsPayload{Subject: args.Subject, Topics: topics}, nil
}
