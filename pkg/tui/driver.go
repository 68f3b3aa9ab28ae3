package tui

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrCancelled is returned when the user interrupts an interactive prompt.
var ErrCancelled = errors.New("tui: cancelled")

// Driver abstracts the interactive prompt surface so engine logic can be
// tested without a terminal and callers can swap implementations.
type Driver interface {
	// Confirm asks a yes/no question, offering preferred as the default.
	Confirm(message string, preferred bool) (bool, error)
	// Input collects one line of text, offering preferred as the default.
	Input(message, preferred string) (string, error)
}

// Survey implements Driver on top of the survey prompt library.
type Survey struct{}

// Confirm implements Driver.
func (Survey) Confirm(message string, preferred bool) (bool, error) {
	var out bool
	prompt := &survey.Confirm{
		Message: message,
		Default: preferred,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

// Input implements Driver.
func (Survey) Input(message, preferred string) (string, error) {
	var out string
	prompt := &survey.Input{
		Message: message,
		Default: preferred,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrCancelled
	}
	return err
}
