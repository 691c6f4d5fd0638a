package server

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/abilityc/compiler"
	"github.com/nstehr/abilityc/ipc"
	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/prompt"
	"github.com/nstehr/abilityc/sandbox"
)

func roundTrip(t *testing.T, conn net.Conn, msgType string, data any) ipc.Envelope {
	t.Helper()
	env, err := ipc.NewEnvelope(msgType, data)
	require.NoError(t, err)
	require.NoError(t, ipc.WriteEnvelope(conn, env))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	resp, err := ipc.ReadEnvelope(conn)
	require.NoError(t, err)
	return resp
}

func TestServe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abilityc.sock")
	ln, err := Listen(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(compiler.New(compiler.Options{}), "", nil)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	resp := roundTrip(t, conn, ipc.TypeHello, ipc.HelloMessage{Client: "test"})
	require.Equal(t, ipc.TypeAck, resp.Type)
	var ack ipc.AckMessage
	require.NoError(t, resp.Decode(&ack))
	assert.Equal(t, "ok", ack.Status)
	assert.Equal(t, prompt.Version, ack.Version)

	resp = roundTrip(t, conn, ipc.TypeCompile, ipc.CompileRequest{
		ID: "req-1",
		Input: model.PlanInput{
			Game:   model.GameGS,
			Name:   "Tester",
			Tables: map[model.TalentKey][]string{model.TalentE: {"Skill DMG"}},
		},
	})
	require.Equal(t, ipc.TypeResult, resp.Type)
	var res ipc.CompileResult
	require.NoError(t, resp.Decode(&res))
	assert.Equal(t, "req-1", res.ID)
	assert.False(t, res.UsedModel)
	assert.Empty(t, res.Error)
	assert.NoError(t, sandbox.Check(res.Script))

	resp = roundTrip(t, conn, ipc.TypeCompile, "not a request")
	assert.Equal(t, ipc.TypeError, resp.Type)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
