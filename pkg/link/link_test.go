package link

import (
	"bufio"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/itohio/gopcr/pkg/rig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(io.Discard, debug.Standard)
	os.Exit(m.Run())
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    float32
		wantErr bool
	}{
		{name: "zero", line: "0.00", want: 0},
		{name: "two decimals", line: "12.34", want: 12.34},
		{name: "integer", line: "7", want: 7},
		{name: "negative", line: "-1.00", wantErr: true},
		{name: "garbage", line: "abc", wantErr: true},
		{name: "nan", line: "NaN", wantErr: true},
		{name: "inf", line: "+Inf", wantErr: true},
		{name: "csv", line: "1,2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// mcu is the far end of the link: it records commands and writes telemetry.
type mcu struct {
	conn     net.Conn
	commands chan string
}

func newLinked(t *testing.T) (*Serial, *mcu) {
	t.Helper()

	host, dev := net.Pipe()
	m := &mcu{conn: dev, commands: make(chan string, 16)}
	go func() {
		scanner := bufio.NewScanner(dev)
		for scanner.Scan() {
			m.commands <- scanner.Text()
		}
		close(m.commands)
	}()

	s := New("test", 0)
	require.NoError(t, s.attach(host))
	return s, m
}

func (m *mcu) send(t *testing.T, lines string) {
	t.Helper()
	_, err := io.WriteString(m.conn, lines)
	require.NoError(t, err)
}

func TestSerial_ReadLatest(t *testing.T) {
	s, m := newLinked(t)
	defer s.Close()

	_, err := s.Read()
	assert.ErrorIs(t, err, ErrNoSample)

	m.send(t, "1.00\r\n\r\n2.50\r\nbogus\r\n3.75\r\n")
	require.Eventually(t, func() bool {
		v, err := s.Read()
		return err == nil && v == 3.75
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, s.Rejected())
}

func TestSerial_Commands(t *testing.T) {
	s, m := newLinked(t)

	require.NoError(t, s.Set(rig.Raise))
	assert.Equal(t, "R", <-m.commands)
	assert.Equal(t, rig.Raise, s.Channel())

	require.NoError(t, s.Set(rig.Lower))
	assert.Equal(t, "L", <-m.commands)

	assert.Error(t, s.Set(rig.Channel(7)))
	assert.Equal(t, rig.Lower, s.Channel())

	require.NoError(t, s.Close())
	assert.Equal(t, "H", <-m.commands, "close releases the valves")
	assert.Equal(t, rig.Hold, s.Channel())
	assert.False(t, s.IsConnected())
}

func TestSerial_NotConnected(t *testing.T) {
	s := New("nowhere", 9600)
	assert.Equal(t, 9600, s.baudRate)
	assert.False(t, s.IsConnected())

	assert.ErrorIs(t, s.Set(rig.Raise), rig.ErrNotConnected)
	_, err := s.Read()
	assert.ErrorIs(t, err, rig.ErrNotConnected)
	assert.NoError(t, s.Close())
}

func TestSerial_AttachTwice(t *testing.T) {
	s, _ := newLinked(t)
	defer s.Close()

	a, b := net.Pipe()
	defer b.Close()
	assert.Error(t, s.attach(a))
	assert.Error(t, s.Connect())
}

func TestNew_Defaults(t *testing.T) {
	s := New("COM3", 0)
	assert.Equal(t, DefaultBaudRate, s.baudRate)
	assert.Equal(t, "COM3", s.port)
}
