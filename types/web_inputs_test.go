package types

import (
	"reflect"
	"testing"
)

func TestInputBulkDelete_AllIDs(t *testing.T) {
	tests := []struct {
		name  string
		input InputBulkDelete
		want  []int64
	}{
		{
			name:  "emailIds shape",
			input: InputBulkDelete{EmailIDs: []int64{1, 2, 3}},
			want:  []int64{1, 2, 3},
		},
		{
			name:  "ids with location shape",
			input: InputBulkDelete{IDs: []int64{4, 5}, Location: "inbox"},
			want:  []int64{4, 5},
		},
		{
			name:  "emailIds wins when both are present",
			input: InputBulkDelete{EmailIDs: []int64{1}, IDs: []int64{9}},
			want:  []int64{1},
		},
		{
			name:  "empty input",
			input: InputBulkDelete{},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.input.AllIDs()
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("AllIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}
