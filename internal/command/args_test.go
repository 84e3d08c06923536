package command_test

import (
	"reflect"
	"testing"

	"coffer/internal/command"
)

func TestDecodeArgsJSON(t *testing.T) {
	got := command.DecodeArgs("payto", []string{
		"cfr1aabbccddeeff00112233",
		"1500",
		"true",
		`"quoted"`,
		"plain text",
	})
	want := []any{
		"cfr1aabbccddeeff00112233",
		float64(1500),
		true,
		"quoted",
		"plain text",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DecodeArgs = %#v, want %#v", got, want)
	}
}

func TestDecodeArgsRawCommandsKeepText(t *testing.T) {
	// Passwords and labels that happen to look like JSON must survive intact.
	for _, name := range []string{"create", "password", "setlabel"} {
		got := command.DecodeArgs(name, []string{"1234", "true", `{"a":1}`})
		want := []any{"1234", "true", `{"a":1}`}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("DecodeArgs(%q) = %#v, want %#v", name, got, want)
		}
	}
}

func TestArgString(t *testing.T) {
	req := &command.Request{Args: []any{"hello", float64(7)}}
	s, err := command.ArgString(req, 0)
	if err != nil || s != "hello" {
		t.Fatalf("ArgString = %q, %v", s, err)
	}
	if _, err := command.ArgString(req, 1); err == nil {
		t.Fatal("expected type error for non-string argument")
	}
	if _, err := command.ArgString(req, 5); err == nil {
		t.Fatal("expected error for missing argument")
	}
}

func TestArgInt64(t *testing.T) {
	req := &command.Request{Args: []any{float64(42), float64(1.5), "nope"}}
	n, err := command.ArgInt64(req, 0)
	if err != nil || n != 42 {
		t.Fatalf("ArgInt64 = %d, %v", n, err)
	}
	if _, err := command.ArgInt64(req, 1); err == nil {
		t.Fatal("expected error for fractional value")
	}
	if _, err := command.ArgInt64(req, 2); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}
