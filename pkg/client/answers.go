package client

import (
	"errors"
	"sync"
)

// OptionOutcome describes how one option of a closed question should
// render once the student has picked an answer.
type OptionOutcome string

const (
	// SelectedCorrect: the student picked this option and it is right
	SelectedCorrect OptionOutcome = "selected_correct"
	// SelectedIncorrect: the student picked this option and it is wrong
	SelectedIncorrect OptionOutcome = "selected_incorrect"
	// RevealedCorrect: the right option, shown after a wrong pick
	RevealedCorrect OptionOutcome = "revealed_correct"
	// Neutral: not selected and not revealed
	Neutral OptionOutcome = "neutral"
)

var (
	ErrQuestionLocked = errors.New("question already answered")
	ErrNoSuchQuestion = errors.New("no question at that index")
	ErrNoSuchOption   = errors.New("no option at that index")
	ErrOpenQuestion   = errors.New("question expects free text")
	ErrClosedQuestion = errors.New("question expects an option")
	ErrSheetSubmitted = errors.New("answers already submitted")
)

// AnswerSheet tracks a student's in-progress answers for one case.
// Closed questions lock after the first selection so the immediate
// right/wrong reveal cannot be gamed by re-picking; open answers stay
// editable until the sheet is submitted.
type AnswerSheet struct {
	mu        sync.Mutex
	questions []Question
	selected  map[int]int
	open      map[int]string
	submitted bool
}

// NewAnswerSheet builds a sheet over the case's questions
func NewAnswerSheet(questions []Question) *AnswerSheet {
	return &AnswerSheet{
		questions: questions,
		selected:  make(map[int]int),
		open:      make(map[int]string),
	}
}

// SelectOption records the pick for a closed question. The first pick
// wins; later calls fail with ErrQuestionLocked.
func (s *AnswerSheet) SelectOption(questionIndex, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return ErrSheetSubmitted
	}
	q, err := s.question(questionIndex)
	if err != nil {
		return err
	}
	if q.IsOpen() {
		return ErrOpenQuestion
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return ErrNoSuchOption
	}
	if _, locked := s.selected[questionIndex]; locked {
		return ErrQuestionLocked
	}
	s.selected[questionIndex] = optionIndex
	return nil
}

// SetOpenAnswer records or rewrites the free-text answer for an open
// question
func (s *AnswerSheet) SetOpenAnswer(questionIndex int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return ErrSheetSubmitted
	}
	q, err := s.question(questionIndex)
	if err != nil {
		return err
	}
	if !q.IsOpen() {
		return ErrClosedQuestion
	}
	s.open[questionIndex] = text
	return nil
}

// OptionOutcome reports how an option should render. Before any pick
// every option is Neutral; after a pick the chosen option is
// SelectedCorrect or SelectedIncorrect and, on a wrong pick, the right
// option becomes RevealedCorrect.
func (s *AnswerSheet) OptionOutcome(questionIndex, optionIndex int) OptionOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.question(questionIndex)
	if err != nil || q.IsOpen() || optionIndex < 0 || optionIndex >= len(q.Options) {
		return Neutral
	}
	picked, answered := s.selected[questionIndex]
	if !answered {
		return Neutral
	}

	correct := q.CorrectIndex != nil && *q.CorrectIndex == picked
	switch {
	case optionIndex == picked && correct:
		return SelectedCorrect
	case optionIndex == picked:
		return SelectedIncorrect
	case !correct && q.CorrectIndex != nil && *q.CorrectIndex == optionIndex:
		return RevealedCorrect
	default:
		return Neutral
	}
}

// Answered reports whether the question has an answer yet
func (s *AnswerSheet) Answered(questionIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.question(questionIndex)
	if err != nil {
		return false
	}
	if q.IsOpen() {
		text, ok := s.open[questionIndex]
		return ok && text != ""
	}
	_, ok := s.selected[questionIndex]
	return ok
}

// Complete reports whether every question has an answer
func (s *AnswerSheet) Complete() bool {
	for i := range s.questions {
		if !s.Answered(i) {
			return false
		}
	}
	return true
}

// Submitted reports whether the sheet was already sent to the server
func (s *AnswerSheet) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Items collects the recorded answers in question order for submission
func (s *AnswerSheet) Items() []AnswerItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]AnswerItem, 0, len(s.questions))
	for i := range s.questions {
		if opt, ok := s.selected[i]; ok {
			o := opt
			items = append(items, AnswerItem{QuestionIndex: i, SelectedOption: &o})
			continue
		}
		if text, ok := s.open[i]; ok && text != "" {
			t := text
			items = append(items, AnswerItem{QuestionIndex: i, OpenAnswer: &t})
		}
	}
	return items
}

// markSubmitted freezes the sheet after a successful submission
func (s *AnswerSheet) markSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = true
}

// Reset clears all answers and the submitted flag, keeping the
// questions
func (s *AnswerSheet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int]int)
	s.open = make(map[int]string)
	s.submitted = false
}

func (s *AnswerSheet) question(i int) (*Question, error) {
	if i < 0 || i >= len(s.questions) {
		return nil, ErrNoSuchQuestion
	}
	return &s.questions[i], nil
}
