package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicateAnyIsIdentity(t *testing.T) {
	p := ByAuthorID(7)

	assert.Equal(t, p.String(), Any.And(p).String())
	assert.Equal(t, p.String(), p.And(Any).String())
	assert.Equal(t, p.String(), Any.Or(p).String())
	assert.Equal(t, p.String(), p.Or(Any).String())
}

func TestPredicateDoubleNegation(t *testing.T) {
	p := WorkIsNew()

	assert.Equal(t, p.String(), p.Not().Not().String())
	assert.True(t, Any.Not().Empty())
}

func TestPredicateComposition(t *testing.T) {
	p := ByAuthorID(1).And(WorkIsNew())

	assert.Equal(t, "(AUTHOR_ID = 1) AND (ISNEW = 1)", p.String())

	q := Me(3).Or(Me(4))
	assert.Equal(t, "(_id = 3) OR (_id = 4)", q.String())
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "sedrik", expected: "'sedrik'"},
		{name: "embedded quote", input: "o'brien", expected: "'o''brien'"},
		{name: "empty", input: "", expected: "''"},
		{name: "cyrillic", input: "Седрик", expected: "'Седрик'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Quote(tt.input))
		})
	}
}

func TestURLIsQuotes(t *testing.T) {
	assert.Equal(t, "URL = '/s/o''hara/'", URLIs("/s/o'hara/").String())
}
