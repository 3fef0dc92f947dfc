package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneKey(t *testing.T) {
	assert.Equal(t, "01712345678", PhoneKey("8801712345678"))
	assert.Equal(t, "01712345678", PhoneKey("+8801712345678"))
	assert.Equal(t, PhoneKey("8801712345678"), PhoneKey("01712345678"))
	assert.Equal(t, "12345", PhoneKey("12345"))
	assert.Equal(t, "", PhoneKey(""))
	assert.NotEqual(t, PhoneKey("01712345678"), PhoneKey("01812345678"))
}
