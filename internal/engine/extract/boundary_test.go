package extract

import (
	"strings"
	"testing"
)

func TestBoundaryOK(t *testing.T) {
	tests := []struct {
		text string
		tok  string
		want bool
	}{
		{"i code in go daily", "go", true},
		{"go", "go", true},
		{"google", "go", false},
		{"going home", "go", false},
		{"ergo", "go", false},
		{"go-inc partners", "go", false},
		{"let's go.", "go", true},
		{"(go)", "go", true},
		{"#go", "go", true},
		{"built on node.js", "js", false},
		{"c++ rocks", "c", false},
		{"c# rocks", "c", false},
		{"c, c++", "c", true},
		{"c++11", "c++", true},
		{"asp.net core", ".net", true},
		{"go_lang", "go", false},
		{"t-sql", "sql", false},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.tok, func(t *testing.T) {
			i := strings.Index(tt.text, tt.tok)
			if i < 0 {
				t.Fatalf("token %q not in %q", tt.tok, tt.text)
			}
			if got := boundaryOK(tt.text, i, i+len(tt.tok)); got != tt.want {
				t.Errorf("boundaryOK(%q, %q) = %v, want %v", tt.text, tt.tok, got, tt.want)
			}
		})
	}
}

func TestAutomatonOverlapping(t *testing.T) {
	a := newAutomaton()
	for i, p := range []string{"he", "she", "his", "hers"} {
		a.add(p, i)
	}
	a.build()

	type m struct{ end, id int }
	var got []m
	a.findAll("ushers", func(end, id int) { got = append(got, m{end, id}) })

	want := []m{{4, 1}, {4, 0}, {6, 3}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, got[i], want[i])
		}
	}
}
