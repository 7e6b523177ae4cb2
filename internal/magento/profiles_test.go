package magento

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_ExportVersion(t *testing.T) {
	tests := []struct {
		profile Profile
		want    string
	}{
		{ProfileVarnish4, "4"},
		{ProfileVarnish5, "5"},
		{ProfileVarnish6, "6"},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			got, err := tt.profile.ExportVersion()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfile_ExportVersion_Unknown(t *testing.T) {
	_, err := Profile("varnish3").ExportVersion()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown VCL profile")
}

func TestProfile_MinMagentoVersion(t *testing.T) {
	for profile, want := range map[Profile]string{
		ProfileVarnish4: "2.2.0",
		ProfileVarnish5: "2.2.0",
		ProfileVarnish6: "2.3.2",
	} {
		got, err := profile.MinMagentoVersion()
		require.NoError(t, err)
		assert.Equal(t, want, got, string(profile))
	}

	_, err := Profile("varnish3").MinMagentoVersion()
	require.Error(t, err)
}

func TestDefaultProfile(t *testing.T) {
	assert.Equal(t, ProfileVarnish4, DefaultProfile)
	assert.True(t, IsValidProfile(string(DefaultProfile)))
}

func TestValidProfiles(t *testing.T) {
	assert.Equal(t, "varnish4, varnish5, varnish6", ValidProfiles())
}

func TestSuggestProfile(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing letter", "varnsh4", "varnish4"},
		{"upper case", "VARNISH6", "varnish6"},
		{"unknown version picks lowest", "varnish7", "varnish4"},
		{"too far", "nginx", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestProfile(tt.input))
		})
	}
}
