package validate

import (
	"strings"
	"testing"

	"github.com/aretw0/autofix/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "CrashLoopBackOff", "CrashLoopBackOff"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
		{"Surrounding Space", "  pod OOMKilled \n", "pod OOMKilled"},
		{"Chinese", "容器反复重启", "容器反复重启"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput("event", tt.input, DefaultMaxEventSize)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_Truncates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"Under Limit", strings.Repeat("a", 999), 1000, strings.Repeat("a", 999)},
		{"Exact Limit", strings.Repeat("a", 1000), 1000, strings.Repeat("a", 1000)},
		{"Over Limit", strings.Repeat("a", 1001), 1000, strings.Repeat("a", 1000)},
		// 修 is three bytes; a limit of 4 must not split the second rune.
		{"Rune Boundary", "修复完成", 4, "修"},
		{"No Limit", strings.Repeat("b", 5000), 0, strings.Repeat("b", 5000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput("message", tt.input, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("event", "bad\xffbytes", DefaultMaxEventSize)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeploymentName(t *testing.T) {
	assert.NoError(t, DeploymentName("web-app"))
	assert.NoError(t, DeploymentName("api.v2"))

	for _, bad := range []string{"", "Web_App", "-leading", strings.Repeat("a", 254), "web app"} {
		err := DeploymentName(bad)
		assert.ErrorIs(t, err, domain.ErrValidation, "name %q", bad)
	}
}

func TestNamespace(t *testing.T) {
	assert.NoError(t, Namespace("prod"))
	assert.NoError(t, Namespace("default"))

	for _, bad := range []string{"", "Prod", "kube.system", strings.Repeat("n", 64)} {
		var vErr *domain.ValidationError
		err := Namespace(bad)
		require.ErrorAs(t, err, &vErr, "namespace %q", bad)
		assert.Equal(t, "namespace", vErr.Field)
	}
}

func TestOneOf(t *testing.T) {
	assert.NoError(t, OneOf("type", "incident", "human_help", "incident"))

	err := OneOf("type", "pager", "human_help", "incident")
	assert.EqualError(t, err, `invalid type: unsupported value "pager", expected one of human_help, incident`)
}
