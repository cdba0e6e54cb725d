package models

import "strings"

// Choice is a yes/no vote on a poll.
type Choice string

const (
	ChoiceYes Choice = "yes"
	ChoiceNo  Choice = "no"
)

func ParseChoice(s string) (Choice, error) {
	switch Choice(strings.ToLower(strings.TrimSpace(s))) {
	case ChoiceYes:
		return ChoiceYes, nil
	case ChoiceNo:
		return ChoiceNo, nil
	}
	return "", ErrInvalidChoice
}

// Fields returns the profile list the vote is recorded in and the opposite
// list it must be removed from.
func (c Choice) Fields() (string, string) {
	if c == ChoiceYes {
		return FieldYesVotes, FieldNoVotes
	}
	return FieldNoVotes, FieldYesVotes
}
