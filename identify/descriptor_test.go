package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/tvremote-go/types"
)

const samsungDescriptor = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0" xmlns:sec="http://www.sec.co.kr/dlna">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <device>
    <deviceType>urn:samsung.com:device:RemoteControlReceiver:1</deviceType>
    <friendlyName>[TV] Living Room</friendlyName>
    <manufacturer>Samsung Electronics</manufacturer>
    <manufacturerURL>http://www.samsung.com/sec</manufacturerURL>
    <modelName>QN90</modelName>
    <sec:deviceID>abc</sec:deviceID>
  </device>
</root>`

func TestParseDescriptor(t *testing.T) {
	d, err := ParseDescriptor([]byte(samsungDescriptor))
	require.NoError(t, err)
	assert.Equal(t, "Samsung Electronics", d.Manufacturer)
	assert.Equal(t, "QN90", d.ModelName)
	assert.Equal(t, "Samsung Electronics / QN90", d.Info())
	assert.True(t, d.Mentions("samsung"))
}

func TestParseDescriptorNamespacePrefix(t *testing.T) {
	doc := `<u:root xmlns:u="urn:x"><u:device><u:manufacturer>Samsung Electronics</u:manufacturer></u:device></u:root>`
	d, err := ParseDescriptor([]byte(doc))
	require.NoError(t, err)
	assert.True(t, d.Mentions("SAMSUNG"))
	assert.Equal(t, "Samsung Electronics", d.Info())
}

func TestParseDescriptorFirstMatchWins(t *testing.T) {
	doc := `<root>
  <device><manufacturer>  </manufacturer><MANUFACTURER>LG</MANUFACTURER><modelName>OLED</modelName></device>
  <device><manufacturer>Samsung</manufacturer><x:ModelName xmlns:x="urn:y">Frame</x:ModelName></device>
</root>`
	d, err := ParseDescriptor([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "LG", d.Manufacturer)
	assert.Equal(t, "OLED", d.ModelName)
	assert.False(t, d.Mentions("samsung"))
}

func TestParseDescriptorMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"unclosed": `<root><manufacturer>Samsung</manufacturer>`,
		"empty":    ``,
		"json":     `{"device":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDescriptor([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrMalformedReply)
		})
	}
}

func TestParseDescriptorLatin1(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><root><manufacturer>Samsung \xa9</manufacturer></root>"
	d, err := ParseDescriptor([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Samsung ©", d.Manufacturer)
}
