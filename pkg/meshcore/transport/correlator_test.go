package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

func TestCorrelatorSubmitAndOffer(t *testing.T) {
	c := NewCorrelator()
	pending, err := c.Submit(meshcore.CmdDeviceQuery)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	reply := meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: []byte{byte(meshcore.RespCodeOk)}}
	if !c.Offer(reply) {
		t.Fatal("expected Offer to consume the pending slot")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := c.Await(ctx, pending)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got.Code() != meshcore.RespCodeOk {
		t.Errorf("expected RESP_CODE_OK, got %v", got.Code())
	}
}

func TestCorrelatorBusyWhilePending(t *testing.T) {
	c := NewCorrelator()
	if _, err := c.Submit(meshcore.CmdDeviceQuery); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := c.Submit(meshcore.CmdReboot); !errors.Is(err, ErrCorrelatorBusy) {
		t.Errorf("expected ErrCorrelatorBusy, got %v", err)
	}
}

func TestCorrelatorPushCodeBypassesSlot(t *testing.T) {
	c := NewCorrelator()
	if _, err := c.Submit(meshcore.CmdDeviceQuery); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	push := meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: []byte{byte(meshcore.PushCodeStatusResponse)}}
	if c.Offer(push) {
		t.Error("expected push code to bypass the pending slot")
	}

	// The slot should still be open for a subsequent non-push reply.
	reply := meshcore.Frame{Start: meshcore.FrameStartOutbound, Payload: []byte{byte(meshcore.RespCodeErr)}}
	if !c.Offer(reply) {
		t.Error("expected the still-open slot to accept the non-push reply")
	}
}

func TestCorrelatorTimeout(t *testing.T) {
	c := NewCorrelator()
	pending, err := c.Submit(meshcore.CmdDeviceQuery)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.Await(ctx, pending)
	var timeout *meshcore.Timeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected *meshcore.Timeout, got %v", err)
	}

	// The slot must be released so a subsequent Submit succeeds.
	if _, err := c.Submit(meshcore.CmdReboot); err != nil {
		t.Errorf("expected slot released after timeout, got %v", err)
	}
}

func TestCorrelatorCancellation(t *testing.T) {
	c := NewCorrelator()
	pending, err := c.Submit(meshcore.CmdDeviceQuery)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Await(ctx, pending)
	var cancelled *meshcore.Cancelled
	if !errors.As(err, &cancelled) {
		t.Fatalf("expected *meshcore.Cancelled, got %v", err)
	}
}

func TestCorrelatorAbort(t *testing.T) {
	c := NewCorrelator()
	pending, err := c.Submit(meshcore.CmdDeviceQuery)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	wantErr := &meshcore.NotConnected{}
	c.Abort(wantErr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.Await(ctx, pending)
	if !errors.Is(err, error(wantErr)) {
		t.Errorf("expected aborted error to propagate, got %v", err)
	}
}
