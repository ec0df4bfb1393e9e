package v1

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseJSON(t *testing.T) {
	raw, err := json.Marshal(OK(int64(3)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":0,"message":"ok","data":3}`, string(raw))

	raw, err = json.Marshal(Fail(errors.New("A2A server not found")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":1,"message":"A2A server not found","data":null}`, string(raw))
	assert.False(t, Fail(errors.New("x")).Succeeded())
}
