package model

import (
	"testing"
	"time"
)

func TestNewRegisteredProfile_NormalizesFields(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	p := NewRegisteredProfile("  Diana  ", "Diana@Example.COM", " Ingeniería ", 2024, now)

	if p.Name != "Diana" {
		t.Errorf("Name = %q, want %q", p.Name, "Diana")
	}
	if p.Email != "diana@example.com" {
		t.Errorf("Email = %q, want %q", p.Email, "diana@example.com")
	}
	if p.Degree != "Ingeniería" {
		t.Errorf("Degree = %q, want %q", p.Degree, "Ingeniería")
	}
	if p.CreatedAt != "2025-04-01T00:30:00Z" {
		t.Errorf("CreatedAt = %q, want %q", p.CreatedAt, "2025-04-01T00:30:00Z")
	}
}

func TestProfile_Fields_OmitsEmptyTimestamps(t *testing.T) {
	f := Profile{Name: "a", Email: "a@b.com", Degree: "d", GraduationYear: 2020}.Fields()

	if _, ok := f[FieldCreatedAt]; ok {
		t.Error("createdAt should be omitted when empty")
	}
	if _, ok := f[FieldUpdatedAt]; ok {
		t.Error("updatedAt should be omitted when empty")
	}
	if f[FieldGraduationYear] != 2020 {
		t.Errorf("graduationYear = %v, want 2020", f[FieldGraduationYear])
	}
}

func TestProfileFromFields_AcceptsJSONNumbers(t *testing.T) {
	tests := []struct {
		name string
		year any
		want int
	}{
		{"float64", float64(2021), 2021},
		{"int", 2022, 2022},
		{"string", "2023", 2023},
		{"fraction", 2020.5, 0},
		{"missing", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fields{FieldName: "n"}
			if tt.year != nil {
				f[FieldGraduationYear] = tt.year
			}
			if got := ProfileFromFields(f).GraduationYear; got != tt.want {
				t.Errorf("GraduationYear = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := NewWrongPasswordError()
	if !HasCode(err, ErrCodeWrongPassword) {
		t.Error("expected HasCode to match WRONG_PASSWORD")
	}
	if HasCode(err, ErrCodeUserNotFound) {
		t.Error("expected HasCode not to match USER_NOT_FOUND")
	}
	if HasCode(nil, ErrCodeWrongPassword) {
		t.Error("expected HasCode(nil) to be false")
	}
}
