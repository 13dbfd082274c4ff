package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{" https://App.Example.com ", "http://localhost:3000", "not a url"})

	assert.False(t, p.AllowAll())
	assert.True(t, p.Allowed(""))
	assert.True(t, p.Allowed("https://app.example.com"))
	assert.True(t, p.Allowed("http://LOCALHOST:3000"))
	assert.False(t, p.Allowed("http://localhost:3001"))
	assert.False(t, p.Allowed("https://evil.example.com"))
	assert.False(t, p.Allowed("::::"))
}

func TestOriginPolicy_Wildcard(t *testing.T) {
	p := NewOriginPolicy([]string{"*"})
	assert.True(t, p.AllowAll())
	assert.True(t, p.Allowed("https://anything.example"))
}
