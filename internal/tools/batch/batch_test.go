package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []string
		wantErr string
	}{
		{name: "single string", input: "task-1", want: []string{"task-1"}},
		{name: "array of strings", input: []any{"a", "b", "c"}, want: []string{"a", "b", "c"}},
		{name: "native string slice", input: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "duplicates dropped", input: []any{"a", "b", "a"}, want: []string{"a", "b"}},
		{name: "JSON string array", input: `["a", "b"]`, want: []string{"a", "b"}},
		{name: "invalid JSON kept verbatim", input: `[oops`, want: []string{`[oops`}},
		{name: "nil input", input: nil, wantErr: "ids is required"},
		{name: "empty string", input: "", wantErr: "ids cannot be empty"},
		{name: "empty array", input: []any{}, wantErr: "ids cannot be empty"},
		{name: "JSON empty array", input: `[]`, wantErr: "ids cannot be empty"},
		{name: "non-string element", input: []any{"a", 1}, wantErr: "ids[1] must be a string"},
		{name: "empty element", input: []any{"a", ""}, wantErr: "ids[1] cannot be empty"},
		{name: "invalid type", input: 42, wantErr: "ids must be a string or array of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "ids")
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStringOrArray_TooMany(t *testing.T) {
	ids := make([]any, MaxItems+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	_, err := ParseStringOrArray(ids, "ids")
	assert.ErrorContains(t, err, "at most")
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		NewSuccessResult("id1", "done"),
		NewSuccessResult("id2", map[string]string{"title": "x"}),
		NewErrorResult("id3", errors.New("task not found")),
	}

	var br BatchResult
	require.NoError(t, json.Unmarshal([]byte(FormatResults(results)), &br))
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, 1, br.Failed)
	assert.Equal(t, "task not found", br.Results[2].Error)
}

func TestProcessBatch(t *testing.T) {
	fn := func(_ context.Context, id string) (any, error) {
		if id == "id2" {
			return nil, errors.New("failed to process id2")
		}
		return "processed " + id, nil
	}

	results := ProcessBatch(context.Background(), []string{"id1", "id2", "id3"}, fn)
	require.Len(t, results, 3)

	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, "processed id1", results[0].Result)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, "failed to process id2", results[1].Error)
	assert.Equal(t, StatusSuccess, results[2].Status)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fn := func(_ context.Context, id string) (any, error) {
		calls++
		cancel()
		return id, nil
	}

	results := ProcessBatch(ctx, []string{"a", "b", "c"}, fn)
	require.Len(t, results, 3)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, context.Canceled.Error(), results[1].Error)
	assert.Equal(t, context.Canceled.Error(), results[2].Error)
}
