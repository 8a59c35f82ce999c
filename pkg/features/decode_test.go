package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNetwork_DefaultsAndOverlay(t *testing.T) {
	in, err := DecodeNetwork(map[string]any{
		"serror_rate":   1.0,
		"same_srv_rate": 0.05,
		"src_bytes":     float64(491),
		"unrelated":     "ignored",
		"service":       nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "tcp", in.ProtocolType)
	assert.Equal(t, "http", in.Service)
	assert.Equal(t, "SF", in.Flag)
	assert.Equal(t, int64(491), in.SrcBytes)
	assert.Equal(t, 1.0, in.SerrorRate)

	m, err := in.Extract()
	require.NoError(t, err)
	assert.Len(t, m, 41)
	assert.True(t, m["flag"].IsString())
	assert.Equal(t, 0.05, m["same_srv_rate"].Float())
}

func TestDecodeMalware_RejectsNonNumeric(t *testing.T) {
	_, err := DecodeMalware(map[string]any{"state": "running"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malware")
}

func TestDecodeMalware_Empty(t *testing.T) {
	in, err := DecodeMalware(nil)
	require.NoError(t, err)
	m, err := in.Extract()
	require.NoError(t, err)
	assert.Len(t, m, 33)
	for k, v := range m {
		assert.Zero(t, v.Float(), k)
	}
}

func TestDecodeRansomware_CoercesNumbers(t *testing.T) {
	in, err := DecodeRansomware(map[string]any{
		"NumberOfSections": "abc",
		"CreationYear":     "2019",
		"packer":           true,
		"Machine":          332,
		"BitcoinAddresses": []any{"x"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, in.NumberOfSections)
	assert.Equal(t, 2019.0, in.CreationYear)
	assert.Equal(t, 1.0, in.Packer)
	assert.Equal(t, 0.0, in.BitcoinAddresses)
	assert.Equal(t, "332", in.Machine)
	assert.Equal(t, Unknown, in.Family)
}

func TestDecodeRansomware_CaseDistinctFields(t *testing.T) {
	in, err := DecodeRansomware(map[string]any{"SizeofStackReserve": 7.0})
	require.NoError(t, err)
	assert.Equal(t, 7.0, in.SizeofStackReserve)
	assert.Equal(t, 0.0, in.SizeOfStackReserve)
}

func TestDecodeZeroDay_Aliases(t *testing.T) {
	in, err := DecodeZeroDay(map[string]any{
		"ip_address":    "10.0.0.9",
		"anomaly score": 0.93,
		"anomaly_score": 0.1,
		"user-agent":    "curl/8.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", in.IPAddress)
	assert.Equal(t, 0.93, in.AnomalyScore)
	assert.Equal(t, "curl/8.0", in.UserAgent)
	assert.Equal(t, "tcp", in.Protocol)

	m, err := in.Extract()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", m["ip address"].Text())
	_, snake := m["ip_address"]
	assert.False(t, snake)
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode("firmware", nil)
	assert.Error(t, err)
}

func TestDecodePhishing(t *testing.T) {
	raw, err := Decode(KindPhishing, map[string]any{"subject": "hi", "url": 42})
	require.NoError(t, err)
	in, ok := raw.(PhishingInput)
	require.True(t, ok)
	assert.Equal(t, "hi", in.Subject)
	assert.Equal(t, "42", in.URL)
}
