package client

import (
	"context"
	"errors"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
)

// GetChannel issues CMD_GET_CHANNEL for the given index.
func (c *Client) GetChannel(ctx context.Context, index uint8) (meshcore.Channel, error) {
	body := []byte{index}
	f, err := c.sendCommand(ctx, meshcore.CmdGetChannel, body)
	if err != nil {
		return meshcore.Channel{}, err
	}
	return dispatch(meshcore.CmdGetChannel, body, f, meshcore.RespCodeChannelInfo, func(payload []byte) (meshcore.Channel, error) {
		return meshcore.DecodeChannel(payload[1:])
	})
}

// SetChannel validates and issues CMD_SET_CHANNEL (spec.md §4.4: name
// non-empty and <= 31 bytes UTF-8).
func (c *Client) SetChannel(ctx context.Context, ch meshcore.Channel) error {
	if len(ch.Name) == 0 || len(ch.Name) > 31 {
		return &meshcore.InvalidArgument{Name: "name", Reason: "must be 1..=31 bytes UTF-8"}
	}

	body := meshcore.EncodeChannel(ch)
	f, err := c.sendCommand(ctx, meshcore.CmdSetChannel, body)
	if err != nil {
		return err
	}
	if f.Code() == meshcore.RespCodeErr {
		return checkErr(meshcore.CmdSetChannel, body, f)
	}
	if f.Code() != meshcore.RespCodeOk {
		return unexpectedCode(meshcore.CmdSetChannel, f)
	}
	return nil
}

// EnumerateChannels polls indices 0..MaxChannels, tolerating missing
// indices above 0 silently, and only failing if index 0 itself is
// absent (spec.md §4.4 exception (b)). Missing channel 0 is reported
// to the caller as a ProtocolError unless the caller prefers
// GetPublicChannel's synthesis exception instead.
func (c *Client) EnumerateChannels(ctx context.Context) ([]meshcore.Channel, error) {
	var out []meshcore.Channel
	for idx := uint8(0); idx < meshcore.MaxChannels; idx++ {
		ch, err := c.GetChannel(ctx, idx)
		if err != nil {
			if idx == 0 {
				return out, err
			}
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

// GetPublicChannel returns channel 0, synthesising the well-known
// default {index=0, name="All", all-zero secret, unencrypted} if the
// device reports nothing at that index (spec.md §4.4 exception (a)).
// Transport errors and an InvalidCommand reply are returned as errors.
func (c *Client) GetPublicChannel(ctx context.Context) (meshcore.Channel, error) {
	ch, err := c.GetChannel(ctx, 0)
	if err == nil {
		return ch, nil
	}
	var perr *meshcore.ProtocolError
	if errors.As(err, &perr) && perr.Status != byte(meshcore.StatusInvalidCommand) {
		return meshcore.PublicChannelDefault(), nil
	}
	return meshcore.Channel{}, err
}

// EnsureHashtagChannel finds the first channel whose name matches a
// hashtag channel's name, or creates one at the first free index >= 1,
// deriving its secret from the name (spec.md §4.4).
func (c *Client) EnsureHashtagChannel(ctx context.Context, name string) (meshcore.Channel, error) {
	if !meshcore.IsHashtagChannel(name) {
		return meshcore.Channel{}, &meshcore.InvalidArgument{Name: "name", Reason: "must start with '#'"}
	}

	existing, err := c.EnumerateChannels(ctx)
	if err != nil {
		return meshcore.Channel{}, err
	}
	for _, ch := range existing {
		if ch.Name == name {
			return ch, nil
		}
	}

	occupied := make(map[uint8]bool, len(existing))
	for _, ch := range existing {
		occupied[ch.Index] = true
	}

	var freeIdx uint8
	found := false
	for idx := uint8(1); idx < meshcore.MaxChannels; idx++ {
		if !occupied[idx] {
			freeIdx = idx
			found = true
			break
		}
	}
	if !found {
		return meshcore.Channel{}, &meshcore.ProtocolError{
			Command: byte(meshcore.CmdSetChannel),
			Status:  byte(meshcore.StatusTableFull),
			Message: "no free channel index",
		}
	}

	ch := meshcore.Channel{
		Index:  freeIdx,
		Name:   name,
		Secret: meshcore.DeriveChannelSecret(name),
	}
	if err := c.SetChannel(ctx, ch); err != nil {
		return meshcore.Channel{}, err
	}
	return ch, nil
}
