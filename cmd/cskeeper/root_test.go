package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vintari/cskeeper/types"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  []types.Tag
	}{
		{"nil means leave alone", nil, nil},
		{"empty list means clear", []string{}, []types.Tag{}},
		{
			"key value pairs",
			[]string{"env=prod", "team=infra"},
			[]types.Tag{{Key: "env", Value: "prod"}, {Key: "team", Value: "infra"}},
		},
		{
			"value containing equals",
			[]string{"expr=a=b"},
			[]types.Tag{{Key: "expr", Value: "a=b"}},
		},
		{
			"bare key",
			[]string{"env"},
			[]types.Tag{{Key: "env", Value: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTags(tt.pairs))
		})
	}
}

func TestValidState(t *testing.T) {
	assert.NoError(t, validState("present"))
	assert.NoError(t, validState("absent"))
	assert.Error(t, validState("deleted"))
	assert.Error(t, validState(""))
}
