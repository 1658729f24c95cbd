package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syng-dev/syng/internal/model"
)

func TestRankAllTokensMatch(t *testing.T) {
	rank, ok := model.Rank("bohemian rhapsody", "Bohemian Rhapsody", "Queen")
	assert.True(t, ok)
	assert.Equal(t, 0.0, rank)
}

func TestRankPartialMatchIsRejected(t *testing.T) {
	_, ok := model.Rank("bohemian madonna", "Bohemian Rhapsody", "Queen")
	assert.False(t, ok)
}

func TestRankNoMatch(t *testing.T) {
	_, ok := model.Rank("vogue", "Bohemian Rhapsody", "Queen")
	assert.False(t, ok)
}

func TestRankIsCaseInsensitive(t *testing.T) {
	rank, ok := model.Rank("QUEEN", "bohemian rhapsody", "queen")
	assert.True(t, ok)
	assert.Equal(t, 0.0, rank)
}
