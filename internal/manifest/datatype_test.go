package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    string // rendered back through String()
		wantErr bool
	}{
		{input: "bool", want: "bool"},
		{input: "u128", want: "u128"},
		{input: "string", want: "string"},
		{input: "seq<u32>", want: "seq<u32>"},
		{input: "array<f64;16>", want: "array<f64;16>"},
		{input: "map<string,u64>", want: "map<string,u64>"},
		{input: "map<string, u64>", want: "map<string,u64>"},
		{input: "option<seq<string>>", want: "option<seq<string>>"},
		{input: "pair<string,map<string,u8>>", want: "pair<string,map<string,u8>>"},
		{input: "Record", want: "Record"},
		{input: "seq<Record>", want: "seq<Record>"},
		{input: "seq<", wantErr: true},
		{input: "array<u8>", wantErr: true},
		{input: "map<u8>", wantErr: true},
		{input: "u8 trailing", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			dt, err := ParseDataType(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, dt.String())
		})
	}
}

func TestDataTypeEqual(t *testing.T) {
	t.Parallel()

	mustParse := func(s string) *DataType {
		dt, err := ParseDataType(s)
		require.NoError(t, err)
		return dt
	}

	require.True(t, mustParse("u64").Equal(mustParse("u64")))
	require.True(t, mustParse("map<string,seq<u8>>").Equal(mustParse("map<string, seq<u8>>")))
	require.False(t, mustParse("u64").Equal(mustParse("i64")))
	require.False(t, mustParse("seq<u8>").Equal(mustParse("array<u8;4>")))
	require.False(t, mustParse("array<u8;4>").Equal(mustParse("array<u8;8>")))
	require.False(t, mustParse("Record").Equal(mustParse("Other")))
	require.False(t, mustParse("u64").Equal(nil))
}
