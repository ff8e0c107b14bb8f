package quizdrill

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrongBook(t *testing.T) {
	var wb WrongBook
	assert.False(t, wb.Contains(1))
	assert.Equal(t, 0, wb.Len())

	wb.Add(3)
	wb.Add(1)
	wb.Add(3)
	assert.True(t, wb.Contains(3))
	assert.Equal(t, []int{1, 3}, wb.IDs())

	wb.Remove(3)
	assert.False(t, wb.Contains(3))
	assert.Equal(t, 1, wb.Len())

	wb.Clear()
	assert.Equal(t, 0, wb.Len())
	assert.Equal(t, []int{}, wb.IDs())
}

func TestWrongBook_JSONList(t *testing.T) {
	data, err := json.Marshal(Progress{WrongQuestions: NewWrongBook(5, 2), Mode: ModeWrong})
	require.NoError(t, err)
	assert.JSONEq(t, `{"wrong_questions":[2,5],"practice_index":0,"wrong_index":0,"mode":"wrong"}`, string(data))

	var p Progress
	require.NoError(t, json.Unmarshal([]byte(`{"wrong_questions":null}`), &p))
	assert.Equal(t, 0, p.WrongQuestions.Len())
}
