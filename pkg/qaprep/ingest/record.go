package ingest

import (
	"errors"
	"strings"
)

// Record field names, in canonical column order.
const (
	FieldContext  = "context"
	FieldQuestion = "question"
	FieldAnswer   = "answer"
	FieldType     = "type"
)

// RecordFields lists the raw record columns in order.
var RecordFields = []string{FieldContext, FieldQuestion, FieldAnswer, FieldType}

// Record is one raw corpus entry
type Record struct {
	Context  string `json:"context"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
}

// Validate checks that the record carries any text at all
func (r Record) Validate() error {
	for _, v := range r.Values() {
		if strings.TrimSpace(v) != "" {
			return nil
		}
	}
	return errors.New("record has no text in any field")
}

// Values returns the field values in RecordFields order.
func (r Record) Values() []string {
	return []string{r.Context, r.Question, r.Answer, r.Type}
}
