package remote_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/remote"
)

func TestMapErrorPayload(t *testing.T) {
	known := []string{"firstName", "phone"}
	cases := []struct {
		name    string
		known   []string
		payload map[string][]string
		want    remote.ErrorMapping
	}{
		{
			name:    "empty",
			known:   known,
			payload: nil,
			want:    remote.ErrorMapping{},
		},
		{
			name:  "pointer paths and wrappers",
			known: known,
			payload: map[string][]string{
				"/body/phone":       {"Already in use", " Already in use "},
				"data.firstName[0]": {"Too long"},
			},
			want: remote.ErrorMapping{Fields: map[string][]string{
				"phone":     {"Already in use"},
				"firstName": {"Too long"},
			}},
		},
		{
			name:  "form level keys and unknown fields",
			known: known,
			payload: map[string][]string{
				"__all__": {"Try again"},
				"ssn":     {"Not accepted"},
				"phone":   {"  "},
			},
			want:    remote.ErrorMapping{Form: []string{"Try again", "Not accepted"}},
		},
		{
			name:    "no known fields uses first segment",
			payload: map[string][]string{"#/profile/age": {"Too young"}},
			want:    remote.ErrorMapping{Fields: map[string][]string{"profile": {"Too young"}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := remote.MapErrorPayload(tc.known, tc.payload)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeFormErrors(t *testing.T) {
	got := remote.MergeFormErrors([]string{"a", " b "}, "b", "", "c")
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeMessage(t *testing.T) {
	cases := map[string]string{
		"":                                        "",
		"plain":                                   "plain",
		"<script>alert(1)</script>Invalid number": "Invalid number",
		"Tom's  <b>corp</b>\n":                    "Tom's corp",
	}
	for in, want := range cases {
		if got := remote.SanitizeMessage(in); got != want {
			t.Fatalf("SanitizeMessage(%q): want %q, got %q", in, want, got)
		}
	}
}
