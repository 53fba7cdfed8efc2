package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@example.com", MaskEmail("alice@example.com"))
	assert.Equal(t, "a***@x.com", MaskEmail("  a@x.com  "))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
	assert.Equal(t, "***", MaskEmail("@x.com"))
	assert.Equal(t, "", MaskEmail(""))
}

func TestAnonymizeIP(t *testing.T) {
	assert.Equal(t, "192.168.1.0", AnonymizeIP("192.168.1.47"))
	assert.Equal(t, "2001:0db8:85a3::", AnonymizeIP("2001:db8:85a3::8a2e:370:7334"))
	assert.Equal(t, "unknown", AnonymizeIP(""))
	assert.Equal(t, "invalid", AnonymizeIP("not-an-ip"))
}

func TestAnonymizeAddr(t *testing.T) {
	assert.Equal(t, "10.0.0.0", AnonymizeAddr("10.0.0.9:51332"))
	assert.Equal(t, "10.0.0.0", AnonymizeAddr("10.0.0.9"))
}
