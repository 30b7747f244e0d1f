package pagination

import (
	"errors"
	"strings"
	"testing"

	"github.com/Sternrassler/flare-explorer-client/pkg/client"
)

func TestAfterClause(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
		want   string
	}{
		{name: "empty cursor omits the argument", cursor: "", want: ""},
		{name: "opaque cursor", cursor: "g3QAAAABZAAC", want: `after: "g3QAAAABZAAC"`},
		{name: "single character", cursor: "X", want: `after: "X"`},
		{name: "base64 padding", cursor: "YWJj+/==", want: `after: "YWJj+/=="`},
		{name: "quote is escaped", cursor: `x") { id } y(a: "`, want: `after: "x\") { id } y(a: \""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AfterClause(tt.cursor); got != tt.want {
				t.Errorf("AfterClause(%q) = %q, want %q", tt.cursor, got, tt.want)
			}
		})
	}
}

func TestAfterClauseFor(t *testing.T) {
	empty := ""
	cursor := "abc"

	if got := AfterClauseFor(nil); got != "" {
		t.Errorf("AfterClauseFor(nil) = %q, want empty", got)
	}
	if got := AfterClauseFor(&empty); got != "" {
		t.Errorf("AfterClauseFor(&\"\") = %q, want empty", got)
	}
	if got := AfterClauseFor(&cursor); got != `after: "abc"` {
		t.Errorf("AfterClauseFor(&\"abc\") = %q", got)
	}
}

func TestAfterClause_NeverEmitsEmptyAfter(t *testing.T) {
	for _, cursor := range []string{"", "a", "YWJj", "x y"} {
		got := AfterClause(cursor)
		if strings.Contains(got, `after: ""`) {
			t.Errorf("AfterClause(%q) = %q contains an empty after argument", cursor, got)
		}
		if cursor != "" && !strings.Contains(got, cursor) {
			t.Errorf("AfterClause(%q) = %q does not carry the cursor", cursor, got)
		}
	}
}

func TestFirstClause(t *testing.T) {
	if got := FirstClause(5); got != "first: 5" {
		t.Errorf("FirstClause(5) = %q", got)
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		cursor string
		extra  []string
		want   string
	}{
		{name: "first page", size: 10, want: "first: 10"},
		{name: "continued page", size: 5, cursor: "X", want: `first: 5 after: "X"`},
		{name: "extra args", size: 10, extra: []string{`tokenContractAddressHash: "0xabc"`}, want: `first: 10 tokenContractAddressHash: "0xabc"`},
		{name: "empty extras skipped", size: 5, cursor: "c", extra: []string{"", "x: 1"}, want: `first: 5 after: "c" x: 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Args(tt.size, tt.cursor, tt.extra...); got != tt.want {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateCursor(t *testing.T) {
	tests := []struct {
		name    string
		cursor  string
		wantErr bool
	}{
		{name: "empty", cursor: "", wantErr: false},
		{name: "base64", cursor: "g3QAAAABZAACaWRhAW4HAKA0Q5f1=", wantErr: false},
		{name: "quote", cursor: `x") { edges { node { id } } } tokenTransfers(first: 1000 after: "y`, wantErr: true},
		{name: "backslash", cursor: `x\`, wantErr: true},
		{name: "newline", cursor: "x\ny", wantErr: true},
		{name: "nul", cursor: "x\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCursor(tt.cursor)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateCursor(%q) = %v, want nil", tt.cursor, err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidCursor) {
				t.Fatalf("ValidateCursor(%q) = %v, want ErrInvalidCursor", tt.cursor, err)
			}
			if client.Classify(err) != client.ErrorClassPrecondition {
				t.Errorf("Classify() = %q, want precondition", client.Classify(err))
			}
			if errors.Is(err, client.ErrQueryComplexityLimit) {
				t.Error("an invalid cursor is not a complexity limit breach")
			}
		})
	}
}
