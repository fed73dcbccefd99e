package commands

import (
	"errors"
	"testing"
)

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int64
		wantErr string
	}{
		{name: "simple", args: []string{"3"}, want: 3},
		{name: "large", args: []string{"9007199254740993"}, want: 9007199254740993},
		{name: "leading zeros", args: []string{"007"}, want: 7},
		{name: "zero", args: []string{"0"}, wantErr: "invalid task id: 0"},
		{name: "negative", args: []string{"-4"}, wantErr: "invalid task id: -4"},
		{name: "letters", args: []string{"a1"}, wantErr: "invalid task id: a1"},
		{name: "empty string", args: []string{""}, wantErr: "invalid task id: "},
		{name: "extra args", args: []string{"1", "2"}, wantErr: "unexpected argument: 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTaskID(tt.args)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("expected error %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParseTaskID_Required(t *testing.T) {
	_, err := ParseTaskID(nil)
	if !errors.Is(err, ErrTaskIDRequired) {
		t.Errorf("expected ErrTaskIDRequired, got %v", err)
	}
}
