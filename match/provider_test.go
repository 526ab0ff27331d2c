package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uaforge/pattern/dataset"
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/format"
	"github.com/uaforge/pattern/internal/fixture"
)

func newProvider(t *testing.T, version format.Version) *Provider {
	t.Helper()

	ds, err := dataset.FromBuffer(fixture.Build(version), dataset.WithDefaultCaches())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	return NewProvider(ds)
}

func TestMatchKnownMobileUserAgent(t *testing.T) {
	for _, version := range []format.Version{format.PatternV31, format.PatternV32} {
		t.Run(version.String(), func(t *testing.T) {
			p := newProvider(t, version)

			m, err := p.Match(fixture.MobileUserAgent)
			require.NoError(t, err)
			require.NotNil(t, m.Signature())

			require.Equal(t, fixture.MobileProfileIDs, m.ProfileIDs())
			require.NotEmpty(t, m.DeviceID())

			isMobile, err := m.Values("IsMobile")
			require.NoError(t, err)
			require.Contains(t, isMobile, "True")
		})
	}
}

func TestMatchKnownDesktopUserAgent(t *testing.T) {
	p := newProvider(t, format.PatternV32)

	m, err := p.Match(fixture.DesktopUserAgent)
	require.NoError(t, err)
	require.Equal(t, fixture.DesktopProfileIDs, m.ProfileIDs())

	isMobile, err := m.Values("IsMobile")
	require.NoError(t, err)
	require.Contains(t, isMobile, "False")

	browser, err := m.Values("BrowserName")
	require.NoError(t, err)
	require.Contains(t, browser, "Chrome")
}

// Device-id round trip: a match reconstructed from the id string, the id
// byte array and the profile-id list reports the same device id and the
// same IsMobile value as the original.
func TestDeviceIDRoundTrip(t *testing.T) {
	p := newProvider(t, format.PatternV32)

	original, err := p.Match(fixture.MobileUserAgent)
	require.NoError(t, err)

	deviceIDString := original.DeviceID()
	deviceIDBytes := original.DeviceIDBytes()
	profileIDs := original.ProfileIDs()
	require.Len(t, deviceIDBytes, 4*len(profileIDs))

	wantIsMobile, err := original.Values("IsMobile")
	require.NoError(t, err)

	fromString, err := p.MatchDeviceID(deviceIDString)
	require.NoError(t, err)
	fromBytes, err := p.MatchDeviceIDBytes(deviceIDBytes)
	require.NoError(t, err)
	fromIDs, err := p.MatchDeviceIDs(profileIDs)
	require.NoError(t, err)

	for _, reconstructed := range []*Match{fromString, fromBytes, fromIDs} {
		require.Equal(t, deviceIDString, reconstructed.DeviceID())

		isMobile, err := reconstructed.Values("IsMobile")
		require.NoError(t, err)
		require.Equal(t, wantIsMobile, isMobile)
	}
}

func TestMatchDeviceIDMalformed(t *testing.T) {
	p := newProvider(t, format.PatternV32)

	_, err := p.MatchDeviceID("not-a-number")
	require.ErrorIs(t, err, errs.ErrMalformed)

	_, err = p.MatchDeviceIDBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, errs.ErrMalformed)

	_, err = p.MatchDeviceIDs([]int32{123456})
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
}

// An empty User-Agent yields a non-nil match whose properties resolve to
// the dataset's defaults.
func TestMatchEmptyUserAgent(t *testing.T) {
	p := newProvider(t, format.PatternV32)

	m, err := p.Match("")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Nil(t, m.Signature())
	require.Equal(t, fixture.DefaultProfileIDs, m.ProfileIDs())

	names, err := m.PropertyNames()
	require.NoError(t, err)
	require.Equal(t, fixture.PropertyNames, names)

	// Every property resolves to a value.
	for _, name := range names {
		values, err := m.Values(name)
		require.NoError(t, err)
		require.NotEmpty(t, values)
	}

	isMobile, err := m.Values("IsMobile")
	require.NoError(t, err)
	require.Equal(t, []string{"False"}, isMobile)
}

func TestMatchUnknownUserAgent(t *testing.T) {
	p := newProvider(t, format.PatternV32)

	m, err := p.Match("curl/8.0.1")
	require.NoError(t, err)
	require.Nil(t, m.Signature())
	require.Equal(t, fixture.DefaultProfileIDs, m.ProfileIDs())
}

func TestMatchHeaders(t *testing.T) {
	p := newProvider(t, format.PatternV32)

	t.Run("User-Agent header", func(t *testing.T) {
		m, err := p.MatchHeaders(map[string]string{"User-Agent": fixture.MobileUserAgent})
		require.NoError(t, err)
		require.Equal(t, fixture.MobileProfileIDs, m.ProfileIDs())
	})

	t.Run("Empty values behave like empty map", func(t *testing.T) {
		// Every recognised header present but empty: identical result to
		// an empty bundle.
		empty := make(map[string]string)
		for _, h := range p.Dataset().HTTPHeaders() {
			empty[h] = ""
		}

		fromEmptyValues, err := p.MatchHeaders(empty)
		require.NoError(t, err)
		fromEmptyMap, err := p.MatchHeaders(map[string]string{})
		require.NoError(t, err)

		require.Equal(t, fromEmptyMap.DeviceID(), fromEmptyValues.DeviceID())
		require.Equal(t, fixture.DefaultProfileIDs, fromEmptyValues.ProfileIDs())
	})

	t.Run("Unrecognised headers ignored", func(t *testing.T) {
		m, err := p.MatchHeaders(map[string]string{"Accept": "text/html"})
		require.NoError(t, err)
		require.Equal(t, fixture.DefaultProfileIDs, m.ProfileIDs())
	})
}

func TestValuesUnknownProperty(t *testing.T) {
	p := newProvider(t, format.PatternV32)

	m, err := p.Match(fixture.MobileUserAgent)
	require.NoError(t, err)

	_, err = m.Values("NoSuchProperty")
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
}

// The two schema versions agree on everything a consumer can observe.
func TestVersionsAgreeOnMatchResults(t *testing.T) {
	p31 := newProvider(t, format.PatternV31)
	p32 := newProvider(t, format.PatternV32)

	for _, ua := range []string{fixture.MobileUserAgent, fixture.DesktopUserAgent, ""} {
		m31, err := p31.Match(ua)
		require.NoError(t, err)
		m32, err := p32.Match(ua)
		require.NoError(t, err)

		require.Equal(t, m31.DeviceID(), m32.DeviceID())
		require.Len(t, m31.DeviceIDBytes(), len(m32.DeviceIDBytes()))

		v31, err := m31.Values("IsMobile")
		require.NoError(t, err)
		v32, err := m32.Values("IsMobile")
		require.NoError(t, err)
		require.Equal(t, v31, v32)
	}
}
