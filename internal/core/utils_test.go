package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinMapKeys(t *testing.T) {
	m := map[string]int{"varnish6": 6, "varnish4": 4, "varnish5": 5}
	assert.Equal(t, "varnish4, varnish5, varnish6", JoinMapKeys(m))
	assert.Equal(t, "", JoinMapKeys(map[int]bool{}))
}

func TestMustFprintf(t *testing.T) {
	var buf bytes.Buffer
	MustFprintf(&buf, "%d rows written\n", 4)
	assert.Equal(t, "4 rows written\n", buf.String())
}
