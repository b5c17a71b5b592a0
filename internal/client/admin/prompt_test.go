package admin

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestPromptPackage(t *testing.T) {
	in := "local\n  Bohol Escape \n3D2N\nPHP 9,999\n/tmp/bohol.jpg\n"
	var out bytes.Buffer
	got := PromptPackage(bufio.NewScanner(strings.NewReader(in)), &out)

	want := PackageInput{Category: "local", Title: "Bohol Escape", Details: "3D2N", Price: "PHP 9,999", ImageFile: "/tmp/bohol.jpg"}
	if got != want {
		t.Errorf("PromptPackage = %+v; want %+v", got, want)
	}
	if !strings.Contains(out.String(), "Title: ") {
		t.Errorf("prompt output %q lacks the title question", out.String())
	}
}

func TestPromptChanges(t *testing.T) {
	in := "\nNew Title\n\n"
	got := PromptChanges(bufio.NewScanner(strings.NewReader(in)), &bytes.Buffer{})

	if got.Category != nil || got.Details != nil || got.Price != nil {
		t.Errorf("blank answers must stay nil, got %+v", got)
	}
	if got.Title == nil || *got.Title != "New Title" {
		t.Errorf("Title = %v; want New Title", got.Title)
	}
}
