package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bluenviron/goroslib/v2/pkg/msgs/geometry_msgs"
	"github.com/bluenviron/goroslib/v2/pkg/msgs/nav_msgs"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/tilt_node/internal/config"
	"github.com/relabs-tech/tilt_node/internal/odometry"
)

func testLog() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return logrus.NewEntry(logger), hook
}

func update(x float64) *odometry.Update {
	return &odometry.Update{Position: odometry.Point{X: x}, Orientation: odometry.Identity}
}

func TestMailboxKeepsLatest(t *testing.T) {
	m := NewMailbox()
	m.Offer(update(1))
	m.Offer(update(2))
	m.Offer(update(3))
	assert.Equal(t, uint64(2), m.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *odometry.Update, 10)
	go m.Serve(ctx, func(u *odometry.Update) { got <- u })

	select {
	case u := <-got:
		assert.Equal(t, 3.0, u.Position.X)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	select {
	case u := <-got:
		t.Fatalf("unexpected extra update %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMailboxDeliversNil(t *testing.T) {
	m := NewMailbox()
	m.Offer(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan bool, 1)
	go m.Serve(ctx, func(u *odometry.Update) { got <- u == nil })

	select {
	case isNil := <-got:
		assert.True(t, isNil)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestMailboxSerialisesHandler(t *testing.T) {
	m := NewMailbox()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		inside   int32
		overlaps int32
		handled  int32
	)
	served := make(chan struct{})
	go func() {
		defer close(served)
		m.Serve(ctx, func(*odometry.Update) {
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			atomic.AddInt32(&handled, 1)
		})
	}()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Offer(update(float64(p*100 + i)))
			}
		}(p)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&handled) > 0 }, time.Second, time.Millisecond)
	cancel()
	<-served

	assert.Zero(t, atomic.LoadInt32(&overlaps))
	assert.LessOrEqual(t, atomic.LoadInt32(&handled), int32(400))
}

func TestServeStopsOnCancel(t *testing.T) {
	m := NewMailbox()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Serve(ctx, func(*odometry.Update) {})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestFromOdometry(t *testing.T) {
	msg := &nav_msgs.Odometry{
		Pose: geometry_msgs.PoseWithCovariance{
			Pose: geometry_msgs.Pose{
				Position:    geometry_msgs.Point{X: 4, Y: 5, Z: 6},
				Orientation: geometry_msgs.Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9},
			},
		},
	}

	u := FromOdometry(msg)
	require.NotNil(t, u)
	assert.Equal(t, odometry.Point{X: 4, Y: 5, Z: 6}, u.Position)
	assert.Equal(t, odometry.Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9}, u.Orientation)

	assert.Nil(t, FromOdometry(nil))
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (f fakeMessage) Duplicate() bool   { return false }
func (f fakeMessage) Qos() byte         { return 0 }
func (f fakeMessage) Retained() bool    { return false }
func (f fakeMessage) Topic() string     { return f.topic }
func (f fakeMessage) MessageID() uint16 { return 0 }
func (f fakeMessage) Payload() []byte   { return f.payload }
func (f fakeMessage) Ack()              {}

func TestMQTTOnMessage(t *testing.T) {
	log, hook := testLog()
	m := NewMQTT("tcp://localhost:1883", "test", "odometry/filtered", log)

	var got []*odometry.Update
	h := m.onMessage(func(u *odometry.Update) { got = append(got, u) })

	h(nil, fakeMessage{topic: "odometry/filtered", payload: []byte(`{"pose":{"pose":{"orientation":{"w":1}}}}`)})
	h(nil, fakeMessage{topic: "odometry/filtered", payload: []byte(`null`)})
	h(nil, fakeMessage{topic: "odometry/filtered", payload: []byte(`not json`)})

	require.Len(t, got, 2)
	assert.Equal(t, odometry.Identity, got[0].Orientation)
	assert.Nil(t, got[1])

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "mqtt", hook.LastEntry().Data["transport"])
}

type stubSource struct {
	calls int32
	fail  bool
}

func (s *stubSource) Next() (odometry.Update, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.fail {
		return odometry.Update{}, errors.New("sensor unplugged")
	}
	return *update(7), nil
}

func TestMockDelivers(t *testing.T) {
	log, _ := testLog()
	src := &stubSource{}
	m := NewMock(src, time.Millisecond, log)

	got := make(chan *odometry.Update, 100)
	require.NoError(t, m.Start(func(u *odometry.Update) {
		select {
		case got <- u:
		default:
		}
	}))

	select {
	case u := <-got:
		assert.Equal(t, 7.0, u.Position.X)
	case <-time.After(time.Second):
		t.Fatal("no mock update")
	}

	m.Close()
	m.Close()
}

func TestMockSkipsSourceErrors(t *testing.T) {
	log, hook := testLog()
	src := &stubSource{fail: true}
	m := NewMock(src, time.Millisecond, log)

	var delivered int32
	require.NoError(t, m.Start(func(*odometry.Update) { atomic.AddInt32(&delivered, 1) }))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&src.calls) >= 2 }, time.Second, time.Millisecond)
	m.Close()

	assert.Zero(t, atomic.LoadInt32(&delivered))
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			return
		}
	}
	t.Fatal("expected a warning for the source error")
}

func TestNew(t *testing.T) {
	log, _ := testLog()

	cfg := config.Default()
	s, err := New(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &ROS{}, s)

	cfg.Transport = config.TransportMQTT
	s, err = New(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &MQTT{}, s)

	cfg.Transport = config.TransportMock
	s, err = New(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, s)

	cfg.Transport = "serial"
	_, err = New(cfg, log)
	assert.Error(t, err)
}
