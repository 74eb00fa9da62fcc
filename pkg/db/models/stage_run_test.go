package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagePredecessor(t *testing.T) {
	pred, err := StagePredecessor(StagePrice)
	require.NoError(t, err)
	assert.Equal(t, "", pred)

	pred, err = StagePredecessor(StageSpend)
	require.NoError(t, err)
	assert.Equal(t, StagePrice, pred)

	pred, err = StagePredecessor(StageMetric)
	require.NoError(t, err)
	assert.Equal(t, StageSpend, pred)

	_, err = StagePredecessor("compaction")
	assert.Error(t, err)
}
