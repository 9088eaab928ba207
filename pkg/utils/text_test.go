package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("épreuve", 2); got != "ép..." {
		t.Errorf("multibyte: got %q", got)
	}
}

func TestHead(t *testing.T) {
	if got := Head("quota exceeded", 5); got != "quota" {
		t.Errorf("got %q", got)
	}
	if got := Head("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}
