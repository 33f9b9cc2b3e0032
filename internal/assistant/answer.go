package assistant

import (
	"encoding/json"
	"errors"
)

// Question is the body of POST /ask.
type Question struct {
	Task string `json:"task"`
}

// Answer is the structured result of a run.
type Answer struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var (
	errMissingAnswer = errors.New(`field "answer" is required`)
	errAnswerType    = errors.New(`field "answer" must be a string`)
)

// ParseAnswer decodes the agent's final result. The text must be a JSON
// object with a string "answer"; other fields are ignored.
func ParseAnswer(result string) (Answer, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(result), &fields); err != nil {
		return Answer{}, err
	}
	raw, ok := fields["answer"]
	if !ok {
		return Answer{}, errMissingAnswer
	}
	if string(raw) == "null" {
		return Answer{}, errAnswerType
	}
	var answer Answer
	if err := json.Unmarshal(raw, &answer.Answer); err != nil {
		return Answer{}, errAnswerType
	}
	return answer, nil
}
