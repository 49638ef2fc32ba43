package offloading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFileName_RejectsTraversal(t *testing.T) {
	cases := map[string]string{
		"model.tflite":                 "model.tflite",
		"../../../etc/cron.d/evil":     "evil",
		"/etc/passwd":                  "passwd",
		"..":                           "data",
		"":                             "data",
		"a/b/../../../../outside.bin":  "outside.bin",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeFileName(in), "input %q", in)
	}
}
