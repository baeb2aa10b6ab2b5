package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectTaskLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"taskboard"},
			want: []string{"taskboard"},
		},
		{
			name: "direct id first token",
			in:   []string{"taskboard", "42"},
			want: []string{"taskboard", "tasks", "show", "42"},
		},
		{
			name: "zero is an id",
			in:   []string{"taskboard", "0"},
			want: []string{"taskboard", "tasks", "show", "0"},
		},
		{
			name: "direct id after value flag",
			in:   []string{"taskboard", "--api-url", "http://localhost:3000/tasks", "7"},
			want: []string{"taskboard", "--api-url", "http://localhost:3000/tasks", "tasks", "show", "7"},
		},
		{
			name: "direct id after equals flag",
			in:   []string{"taskboard", "--format=table", "7"},
			want: []string{"taskboard", "--format=table", "tasks", "show", "7"},
		},
		{
			name: "direct id after bool flag",
			in:   []string{"taskboard", "--pretty", "7"},
			want: []string{"taskboard", "--pretty", "tasks", "show", "7"},
		},
		{
			name: "direct id after double dash",
			in:   []string{"taskboard", "--env", "production", "--", "7"},
			want: []string{"taskboard", "--env", "production", "--", "tasks", "show", "7"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"taskboard", "tasks", "show", "7"},
			want: []string{"taskboard", "tasks", "show", "7"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"taskboard", "wat"},
			want: []string{"taskboard", "wat"},
		},
		{
			name: "negative number is not an id",
			in:   []string{"taskboard", "--", "-3"},
			want: []string{"taskboard", "--", "-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectTaskLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v; got %v", tt.want, got)
			}
		})
	}
}
