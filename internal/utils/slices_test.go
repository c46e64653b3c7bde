package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValues(t *testing.T) {
	a, b := 1, 2
	assert.Equal(t, []int{1, 2}, Values([]*int{&a, &b}))
	assert.Empty(t, Values[int](nil))
}
