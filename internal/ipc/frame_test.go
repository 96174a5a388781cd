package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEncoderDecoder_PreservesOrder(t *testing.T) {
	var buf bytes.Buffer

	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(ParentMessage{Kind: KindReady}))
	require.NoError(t, enc.Encode(ParentMessage{Kind: KindInitialized}))
	require.NoError(t, enc.Encode(ParentMessage{Kind: KindCallResult, CorrelationID: 7, Result: mustMarshal(t, "done")}))

	dec := NewDecoder(&buf)

	var got []ParentMessage

	for {
		var msg ParentMessage

		err := dec.Decode(&msg)
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		got = append(got, msg)
	}

	require.Len(t, got, 3)
	assert.Equal(t, KindReady, got[0].Kind)
	assert.Equal(t, KindInitialized, got[1].Kind)
	assert.Equal(t, 7, got[2].CorrelationID)

	var result string
	require.NoError(t, msgpack.Unmarshal(got[2].Result, &result))
	assert.Equal(t, "done", result)
}

func TestDecoder_PartialFrameIsFatal(t *testing.T) {
	frame := make([]byte, LengthPrefixSize+2)
	binary.BigEndian.PutUint32(frame, 10)

	_, err := NewDecoder(bytes.NewReader(frame)).ReadFrame()

	require.Error(t, err)
	assert.True(t, IsFatalFrameError(err))
}

func TestDecoder_RejectsOversizedFrame(t *testing.T) {
	prefix := make([]byte, LengthPrefixSize)
	binary.BigEndian.PutUint32(prefix, MaxPayloadSize+1)

	_, err := NewDecoder(bytes.NewReader(prefix)).ReadFrame()

	var frameErr *FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, FrameErrorTooLarge, frameErr.Kind)
}

func TestDecoder_GarbagePayloadIsNotFatal(t *testing.T) {
	var buf bytes.Buffer

	payload := []byte{0xc1} // never used in msgpack
	prefix := make([]byte, LengthPrefixSize)
	binary.BigEndian.PutUint32(prefix, uint32(len(payload)))
	buf.Write(prefix)
	buf.Write(payload)

	var msg WorkerMessage
	err := NewDecoder(&buf).Decode(&msg)

	require.Error(t, err)
	assert.False(t, IsFatalFrameError(err))
}

func TestEncoder_ClosedReturnsChannelClosed(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{})
	require.NoError(t, enc.Close())

	err := enc.Encode(NewDispose())

	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestNewCall_EncodesArguments(t *testing.T) {
	msg, err := NewCall(3, "mutantRun", map[string]int{"timeout": 1000})
	require.NoError(t, err)
	require.NoError(t, msg.Validate())

	assert.Equal(t, KindCall, msg.Kind)
	assert.Equal(t, 3, msg.Call.CorrelationID)
	require.Len(t, msg.Call.Args, 1)

	var decoded map[string]int
	require.NoError(t, msgpack.Unmarshal(msg.Call.Args[0], &decoded))
	assert.Equal(t, 1000, decoded["timeout"])
}

func TestWorkerMessage_ValidateRejectsMissingPayload(t *testing.T) {
	assert.Error(t, WorkerMessage{Kind: KindInit}.Validate())
	assert.Error(t, WorkerMessage{Kind: KindCall}.Validate())
	assert.Error(t, WorkerMessage{Kind: "reboot"}.Validate())
	assert.NoError(t, NewDispose().Validate())
}

func TestSerializedError_RoundTrip(t *testing.T) {
	se := SerializeError(errors.New("boom"))
	require.NotNil(t, se)

	var decoded SerializedError
	require.NoError(t, msgpack.Unmarshal(mustMarshal(t, se), &decoded))

	err := decoded.Err()

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "boom", remote.Message)
	assert.Nil(t, SerializeError(nil))
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()

	b, err := msgpack.Marshal(v)
	require.NoError(t, err)

	return b
}
