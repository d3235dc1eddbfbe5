package sendgrid

import (
	"strings"
	"testing"
)

func TestBuildEmailBodyEmbedsNote(t *testing.T) {
	body := buildEmailBody("Groceries", "milk, eggs\nbread")

	if !strings.Contains(body, "Groceries") {
		t.Error("body missing note title")
	}
	if !strings.Contains(body, "milk, eggs\nbread") {
		t.Error("body missing note content")
	}
}

func TestBuildEmailBodyEscapesHTML(t *testing.T) {
	body := buildEmailBody("<script>alert(1)</script>", "a & b")

	if strings.Contains(body, "<script>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(body, "&amp; b") {
		t.Error("content not escaped")
	}
}
