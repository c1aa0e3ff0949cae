package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var in struct {
		Due  Date  `json:"due"`
		Opt  *Date `json:"opt"`
		Full Date  `json:"full"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-03-05","opt":null,"full":"2024-03-05T23:10:00Z"}`), &in))
	assert.Equal(t, "2024-03-05", in.Due.String())
	assert.Nil(t, in.Opt)
	assert.Equal(t, "2024-03-05", in.Full.String())

	out, err := json.Marshal(in.Due)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(out))

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"05/03/2024"`), &bad))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, "2025-01-02", d.String())

	require.NoError(t, d.Scan("2025-02-03"))
	assert.Equal(t, "2025-02-03", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-02-03", v)
}

func TestJSONB(t *testing.T) {
	var j JSONB
	require.NoError(t, j.Scan(nil))
	assert.Equal(t, "{}", string(j))

	require.NoError(t, j.Scan([]byte(`{"a":1}`)))
	v, err := j.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), v)

	b, err := json.Marshal(struct {
		D JSONB `json:"d"`
	}{D: j})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":{"a":1}}`, string(b))
}

func TestNullable_JSON(t *testing.T) {
	var in struct {
		Absent  Nullable[Date] `json:"absent"`
		Cleared Nullable[Date] `json:"cleared"`
		Given   Nullable[Date] `json:"given"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"cleared":null,"given":"2024-03-05"}`), &in))

	assert.False(t, in.Absent.Set)
	assert.True(t, in.Cleared.Set)
	assert.Nil(t, in.Cleared.Value)
	require.True(t, in.Given.Set)
	require.NotNil(t, in.Given.Value)
	assert.Equal(t, "2024-03-05", in.Given.Value.String())

	out, err := json.Marshal(Some(NewDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(out))
	out, err = json.Marshal(Null[Date]())
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
