package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Level string `json:"level" validate:"omitempty,oneof=easy medium hard"`
}

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Count int    `json:"count" validate:"gte=0,lte=30"`
	Inner inner  `json:"inner"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Email: "a@b.co"}, nil))

	err := Struct(sample{}, nil)
	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Field)
	assert.Equal(t, "email is required", ve.Message)

	err = Struct(sample{Email: "a@b.co", Count: 31}, nil)
	assert.EqualError(t, err, "count must be at most 30")

	err = Struct(sample{Email: "a@b.co", Inner: inner{Level: "extreme"}}, map[string]string{
		"inner.level": "Invalid level",
	})
	assert.EqualError(t, err, "Invalid level")
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(errors.New("plain")))
}
