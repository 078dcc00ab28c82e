package patient

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func validPatient() *Patient {
	return &Patient{
		Name:      "John Doe",
		Age:       45,
		Diagnosis: "Chronic hypertension",
		Operation: "Appendectomy",
		Details:   "Recovering well after surgery",
		Relatives: []string{"+49 170 1234567"},
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{
		"+491701234567",
		"+49 170 1234567",
		"0123-456-7890",
		"(123) 456 7890",
		"12345678",
	}
	for _, v := range valid {
		if !ValidPhone(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}

	invalid := []string{
		"12345",            // too short
		"12345678901234567", // too long
		"not-a-number",
		"++491701234567",
	}
	for _, v := range invalid {
		if ValidPhone(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestNormalizeRelatives(t *testing.T) {
	in := []string{"  +49  170   1234567 ", "", "   ", "0123 456\t7890"}
	got := NormalizeRelatives(in)
	want := []string{"+49 170 1234567", "0123 456 7890"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeRelatives_PreservesOrder(t *testing.T) {
	in := []string{"111 222 3333", "", "444 555 6666", "777 888 9999"}
	got := NormalizeRelatives(in)
	want := []string{"111 222 3333", "444 555 6666", "777 888 9999"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseRelatives_JSONString(t *testing.T) {
	got, err := ParseRelatives([]string{`["+491701234567", " ", "0123 456 7890"]`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"+491701234567", "0123 456 7890"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseRelatives_MalformedJSON(t *testing.T) {
	_, err := ParseRelatives([]string{`["unterminated`})
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !strings.Contains(verr.Error(), "Invalid relatives data format") {
		t.Errorf("unexpected message %q", verr.Error())
	}
}

func TestParseRelatives_RepeatedValues(t *testing.T) {
	got, err := ParseRelatives([]string{"+491701234567", "0123 456 7890"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %v", got)
	}
}

func TestParseRelatives_Empty(t *testing.T) {
	for _, values := range [][]string{nil, {}, {""}, {"   "}} {
		got, err := ParseRelatives(values)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty list for %v, got %v", values, got)
		}
	}
}

func TestValidate_Valid(t *testing.T) {
	p := validPatient()
	p.Normalize()
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NameBounds(t *testing.T) {
	p := validPatient()
	p.Name = "J"
	if err := p.Validate(); err == nil {
		t.Error("expected error for one-character name")
	}

	p.Name = strings.Repeat("a", 101)
	if err := p.Validate(); err == nil {
		t.Error("expected error for 101-character name")
	}

	p.Name = strings.Repeat("a", 100)
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected error for 100-character name: %v", err)
	}
}

func TestValidate_AgeBounds(t *testing.T) {
	p := validPatient()

	p.Age = -1
	if err := p.Validate(); err == nil {
		t.Error("expected error for negative age")
	}

	p.Age = 121
	if err := p.Validate(); err == nil {
		t.Error("expected error for age over 120")
	}

	for _, age := range []int{0, 120} {
		p.Age = age
		if err := p.Validate(); err != nil {
			t.Errorf("unexpected error for age %d: %v", age, err)
		}
	}
}

func TestValidate_TextBounds(t *testing.T) {
	p := validPatient()
	p.Diagnosis = "flu"
	if err := p.Validate(); err == nil {
		t.Error("expected error for short diagnosis")
	}

	p = validPatient()
	p.Details = strings.Repeat("x", 2001)
	if err := p.Validate(); err == nil {
		t.Error("expected error for oversized details")
	}
}

func TestValidate_BadPhone(t *testing.T) {
	p := validPatient()
	p.Relatives = []string{"+491701234567", "bogus"}
	err := p.Validate()
	if err == nil {
		t.Fatal("expected error for invalid phone")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("expected failing entry in message, got %q", err.Error())
	}
}

func TestValidate_JoinsMultipleFailures(t *testing.T) {
	p := &Patient{Name: "J", Age: 130, Diagnosis: "ok", Operation: "fine", Details: "sure"}
	err := p.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Fields) < 3 {
		t.Errorf("expected several field failures, got %d", len(verr.Fields))
	}
	if !strings.Contains(verr.Error(), ", ") {
		t.Errorf("expected joined message, got %q", verr.Error())
	}
}

func TestNormalize(t *testing.T) {
	p := &Patient{
		Name:      "  Jane Roe  ",
		Age:       30,
		Diagnosis: " Fractured wrist ",
		Operation: " Cast placement ",
		Details:   "  Follow-up in six weeks  ",
		Relatives: []string{" +49    170 1234567 ", ""},
	}
	p.Normalize()

	if p.Name != "Jane Roe" {
		t.Errorf("expected trimmed name, got %q", p.Name)
	}
	if p.Diagnosis != "Fractured wrist" {
		t.Errorf("expected trimmed diagnosis, got %q", p.Diagnosis)
	}
	if len(p.Relatives) != 1 || p.Relatives[0] != "+49 170 1234567" {
		t.Errorf("expected normalized relatives, got %v", p.Relatives)
	}
}
