package gmailclient

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessage(t *testing.T) {
	raw := encodeMessage("coordinator@example.org", "ada@example.org", "Timesheet\napproved", "Your hours were approved.")

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	assert.Equal(t,
		"From: coordinator@example.org\r\n"+
			"To: ada@example.org\r\n"+
			"Subject: Timesheet approved\r\n"+
			"Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n"+
			"Your hours were approved.",
		string(decoded))
}

func TestEncodeMessage_NoSender(t *testing.T) {
	raw := encodeMessage("", "ada@example.org", "Hello", "Body")

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.NotContains(t, string(decoded), "From:")
	assert.Contains(t, string(decoded), "To: ada@example.org\r\n")
}
