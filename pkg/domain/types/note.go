package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type NoteID string

func (x NoteID) String() string {
	return string(x)
}

func NewNoteID() NoteID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return NoteID(id.String())
}

func (x NoteID) Validate() error {
	if x == EmptyNoteID {
		return goerr.New("empty note ID")
	}
	return nil
}

const (
	EmptyNoteID NoteID = ""
)

// ReviewMode describes how a review answer was collected.
type ReviewMode string

const (
	ReviewModeFlashcard ReviewMode = "flashcard"
	ReviewModeQuiz      ReviewMode = "quiz"
	ReviewModeSelfCheck ReviewMode = "self_check"
)

func (m ReviewMode) String() string {
	return string(m)
}

func (m ReviewMode) Validate() error {
	switch m {
	case ReviewModeFlashcard, ReviewModeQuiz, ReviewModeSelfCheck:
		return nil
	}
	return goerr.New("invalid review mode", goerr.V("mode", m))
}

// Quality is a recall rating from 0 (no recall) to 5 (perfect recall).
type Quality int

const (
	QualityMin Quality = 0
	QualityMax Quality = 5
)

func (q Quality) Validate() error {
	if q < QualityMin || q > QualityMax {
		return goerr.New("quality out of range", goerr.V("quality", int(q)))
	}
	return nil
}

// IsSuccess reports whether the rating counts as a successful recall.
func (q Quality) IsSuccess() bool {
	return q >= 3
}
