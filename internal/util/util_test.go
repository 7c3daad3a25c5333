package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLog(t *testing.T) {
	assert.Equal(t, "cred-1", SanitizeLog("cred-1"))
	assert.Equal(t, "cred-1forged log line", SanitizeLog("cred-1\nforged log line"))
	assert.Equal(t, "cred-1forged log line", SanitizeLog("cred-1\r\nforged log line"))
	assert.Empty(t, SanitizeLog(""))
}
