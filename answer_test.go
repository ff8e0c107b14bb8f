package quizdrill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswersMatch(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		correct string
		want    bool
	}{
		{"same letter", "A", "A", true},
		{"different letter", "B", "A", false},
		{"comma separated", "AB", "A,B", true},
		{"order does not matter", "CA", "A,C", true},
		{"spaces ignored", "A C", "A, C", true},
		{"missing choice", "A", "A,B", false},
		{"extra choice", "ABC", "AB", false},
		{"empty answer", "", "A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnswersMatch(tt.user, tt.correct))
		})
	}
}

func TestOptionLetter(t *testing.T) {
	assert.Equal(t, "A", OptionLetter("A. Paris"))
	assert.Equal(t, "B", OptionLetter("B、北京"))
	assert.Equal(t, "C", OptionLetter("C,foo"))
	assert.Equal(t, "D", OptionLetter("D"))
}

func TestJoinChoices(t *testing.T) {
	assert.Equal(t, "ABD", JoinChoices([]string{"D", "A", "B"}))
	assert.Equal(t, "", JoinChoices(nil))
}

func TestCleanAnswer(t *testing.T) {
	assert.Equal(t, "ABC", CleanAnswer("A, B,C"))
}
