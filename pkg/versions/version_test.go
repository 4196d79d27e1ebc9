package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()

	info := GetVersionInfo()
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestGetVersionInfoWithValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		version         string
		commit          string
		buildDate       string
		expectedVersion string
	}{
		{
			name:            "release build keeps its version",
			version:         "1.2.3",
			commit:          "abcdef1234567890",
			buildDate:       "2026-08-29T12:00:00Z",
			expectedVersion: "1.2.3",
		},
		{
			name:            "dev build manufactures a version from the commit",
			version:         "dev",
			commit:          "abcdef1234567890",
			buildDate:       unknownStr,
			expectedVersion: "build-abcdef12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := getVersionInfoWithValues(tt.version, tt.commit, tt.buildDate)
			assert.Equal(t, tt.expectedVersion, info.Version)
			assert.Equal(t, tt.commit, info.Commit)
		})
	}
}

func TestBuildDateFormatting(t *testing.T) {
	t.Parallel()

	info := getVersionInfoWithValues("1.0.0", "abc", "2026-08-29T09:30:00Z")
	assert.Equal(t, "2026-08-29 09:30:00 UTC", info.BuildDate)
}
