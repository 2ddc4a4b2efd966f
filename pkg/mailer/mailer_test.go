package mailer

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/noah-isme/datamatch-api/pkg/config"
)

func TestSMTPMailerSendOTP(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "noreply@example.com", Password: "pw"}, 5*time.Minute)

	var sent *mail.Msg
	m.send = func(_ context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	}

	require.NoError(t, m.SendOTP(context.Background(), "student@example.com", "123456"))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"student@example.com"}, sent.GetToString())
	from := sent.GetFromString()
	require.Len(t, from, 1)
	assert.Contains(t, from[0], "noreply@example.com")

	var buf bytes.Buffer
	_, err := sent.WriteTo(&buf)
	require.NoError(t, err)
	body := buf.String()
	assert.Contains(t, body, "Subject: Your OTP Code")
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "expires in 5 minutes")
}

func TestSMTPMailerWrapsFailure(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 25}, time.Minute)
	m.send = func(context.Context, *mail.Msg) error { return errors.New("dial tcp: refused") }

	err := m.SendOTP(context.Background(), "a@example.com", "000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send otp email")
}

func TestSMTPMailerRejectsBadRecipient(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}, time.Minute)
	m.send = func(context.Context, *mail.Msg) error {
		t.Fatal("send must not run for an invalid address")
		return nil
	}

	err := m.SendOTP(context.Background(), "not an address", "000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build otp email")
}

// silentServer accepts connections and never sends the SMTP greeting.
func silentServer(t *testing.T) *net.TCPAddr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr)
}

func TestSMTPMailerHonoursContextDeadline(t *testing.T) {
	addr := silentServer(t)
	m := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: addr.Port, From: "noreply@example.com", Timeout: time.Minute}, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.SendOTP(ctx, "student@example.com", "123456")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSMTPMailerAppliesTimeout(t *testing.T) {
	addr := silentServer(t)
	m := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: addr.Port, From: "noreply@example.com", Timeout: 200 * time.Millisecond}, time.Minute)

	start := time.Now()
	err := m.SendOTP(context.Background(), "student@example.com", "123456")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
