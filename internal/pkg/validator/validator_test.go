package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(" x "))
}

func TestIsValidDate(t *testing.T) {
	_, ok := IsValidDate("2025-03-31")
	assert.True(t, ok)

	_, ok = IsValidDate("2025-13-01")
	assert.False(t, ok)

	_, ok = IsValidDate("31-03-2025")
	assert.False(t, ok)
}

func TestIsValidClockTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "12:00", "23:59"}
	for _, s := range valid {
		assert.True(t, IsValidClockTime(s), s)
	}

	invalid := []string{"24:00", "9:30", "12:60", "12:0", "noon", ""}
	for _, s := range invalid {
		assert.False(t, IsValidClockTime(s), s)
	}
}

func TestIsValidMonth(t *testing.T) {
	assert.True(t, IsValidMonth(1))
	assert.True(t, IsValidMonth(12))
	assert.False(t, IsValidMonth(0))
	assert.False(t, IsValidMonth(13))
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{
		{Field: "latitude", Message: "latitude is not a number"},
		{Field: "employee_id", Message: "employee_id is required"},
	}
	assert.Contains(t, errs.Error(), "latitude: latitude is not a number")
	assert.Len(t, errs.ToMap(), 2)
}
