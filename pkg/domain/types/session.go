package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type FocusSessionID string

func (x FocusSessionID) String() string {
	return string(x)
}

func NewFocusSessionID() FocusSessionID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return FocusSessionID(id.String())
}

func (x FocusSessionID) Validate() error {
	if x == EmptyFocusSessionID {
		return goerr.New("empty focus session ID")
	}
	if _, err := uuid.Parse(string(x)); err != nil {
		return goerr.Wrap(err, "invalid focus session ID format", goerr.V("id", x))
	}
	return nil
}

const (
	EmptyFocusSessionID FocusSessionID = ""
)

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
)

var sessionStatusLabels = map[SessionStatus]string{
	SessionStatusActive:    "▶️ Active",
	SessionStatusPaused:    "⏸️ Paused",
	SessionStatusCompleted: "✅️ Completed",
}

func (s SessionStatus) String() string {
	return string(s)
}

func (s SessionStatus) Label() string {
	return sessionStatusLabels[s]
}

func (s SessionStatus) Validate() error {
	if _, ok := sessionStatusLabels[s]; !ok {
		return goerr.New("invalid session status", goerr.V("status", s))
	}
	return nil
}

type ClusterID string

func (x ClusterID) String() string {
	return string(x)
}

func (x ClusterID) Validate() error {
	if x == EmptyClusterID {
		return goerr.New("empty cluster ID")
	}
	return nil
}

const (
	EmptyClusterID ClusterID = ""
)
