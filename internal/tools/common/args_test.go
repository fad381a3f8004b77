package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/notify"
	"github.com/teemow/taskcal/internal/tasks"
)

func TestStringArg(t *testing.T) {
	args := map[string]any{"title": "x", "empty": "", "num": 3.0, "null": nil}

	v, present, err := StringArg(args, "title")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "x", v)

	v, present, err = StringArg(args, "empty")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Empty(t, v)

	_, present, err = StringArg(args, "missing")
	require.NoError(t, err)
	assert.False(t, present)

	_, present, err = StringArg(args, "null")
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = StringArg(args, "num")
	assert.EqualError(t, err, "num must be a string")
}

func TestRequiredString(t *testing.T) {
	_, err := RequiredString(map[string]any{"id": "  "}, "id")
	assert.EqualError(t, err, "id is required")

	v, err := RequiredString(map[string]any{"id": "abc"}, "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    int
		wantErr bool
	}{
		{name: "absent", args: map[string]any{}, want: 5},
		{name: "json number", args: map[string]any{"n": 12.0}, want: 12},
		{name: "int", args: map[string]any{"n": 3}, want: 3},
		{name: "fraction", args: map[string]any{"n": 1.5}, wantErr: true},
		{name: "string", args: map[string]any{"n": "7"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntArg(tt.args, "n", 5)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoolArg(t *testing.T) {
	b, err := BoolArg(map[string]any{}, "all", true)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = BoolArg(map[string]any{"all": false}, "all", true)
	require.NoError(t, err)
	assert.False(t, b)

	_, err = BoolArg(map[string]any{"all": "yes"}, "all", false)
	assert.Error(t, err)
}

func TestErrorResult(t *testing.T) {
	for _, err := range []error{
		tasks.ErrNotFound,
		fmt.Errorf("%w: title is required", tasks.ErrInvalid),
		notify.ErrNotFound,
		ErrNoPrincipal,
	} {
		res, rerr := ErrorResult(err)
		require.NoError(t, rerr)
		assert.True(t, res.IsError, err.Error())
	}

	internal := errors.New("disk I/O error")
	res, err := ErrorResult(internal)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, internal)
}
