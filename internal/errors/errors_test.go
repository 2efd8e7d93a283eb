package errors

import (
	"errors"
	"testing"
)

func TestTechoErrorFormat(t *testing.T) {
	tests := []struct {
		name    string
		err     *TechoError
		wantErr string
	}{
		{
			name:    "what only",
			err:     &TechoError{What: "something broke"},
			wantErr: "something broke",
		},
		{
			name:    "what and why",
			err:     &TechoError{What: "something broke", Why: "bad input"},
			wantErr: "something broke: bad input",
		},
		{
			name: "with cause",
			err: &TechoError{
				What:  "something broke",
				Cause: errors.New("underlying error"),
			},
			wantErr: "something broke: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantErr {
				t.Errorf("Error() = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *TechoError
		want int
	}{
		{ErrGoalNotFound(7), 404},
		{ErrNotFound("todo", 3), 404},
		{ErrGoalCycle(1, 2), 409},
		{ErrInvalidInput("bad date"), 400},
		{&TechoError{Code: CodeStoreFailure, What: "disk full"}, 500},
		{&TechoError{Code: "SOMETHING_ELSE", What: "x"}, 500},
	}

	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus() for %s = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

func TestErrorIs(t *testing.T) {
	err := ErrGoalNotFound(1)
	if !errors.Is(err, &TechoError{Code: CodeGoalNotFound}) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, &TechoError{Code: CodeGoalCycle}) {
		t.Error("expected errors.Is to reject differing code")
	}
}
